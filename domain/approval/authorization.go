package approval

import (
	"kycflow/authority"
	"kycflow/bizerror"
	"kycflow/domain/role"
	"kycflow/session"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

type gateMode int

const (
	// gateHolderOrOverride admits the holder of the current role and global administrators
	gateHolderOrOverride gateMode = iota
	// gateHolderOnly admits the holder of the current role only
	gateHolderOnly
)

type actorRoles struct {
	ids      mapset.Set[types.ID]
	override *types.ID
}

// resolveActorRoles maps the role names of the session to ids of the live role table
func resolveActorRoles(tx *gorm.DB, s *session.Session) (*actorRoles, error) {
	roles, err := role.FindRolesByNames(tx, s.Perms.RoleNames())
	if err != nil {
		return nil, err
	}
	a := &actorRoles{ids: mapset.NewThreadUnsafeSet[types.ID]()}
	for _, r := range roles {
		a.ids.Add(r.ID)
		if a.override == nil && (strings.EqualFold(r.Name, authority.RoleSuperAdmin) || strings.EqualFold(r.Name, authority.RoleAdmin)) {
			id := r.ID
			a.override = &id
		}
	}
	return a, nil
}

// authorize decides whether the actor may act on the record in its current state.
// It returns the role the actor acts under, nil for an override without a matching role row.
func authorize(tx *gorm.DB, s *session.Session, w *KycWorkflow, mode gateMode) (*types.ID, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	actor, err := resolveActorRoles(tx, s)
	if err != nil {
		return nil, err
	}
	if w.CurrentRoleID != nil && actor.ids.Contains(*w.CurrentRoleID) {
		id := *w.CurrentRoleID
		return &id, nil
	}
	if mode == gateHolderOrOverride && s.Perms.HasGlobalOverride() {
		return actor.override, nil
	}
	if mode == gateHolderOnly {
		return nil, &bizerror.ErrForbiddenAtLevel{Message: bizerror.MessageOnlyAssigneeResubmit}
	}
	return nil, &bizerror.ErrForbiddenAtLevel{Message: bizerror.MessageNotAuthorizedAtLevel}
}

// applyBranchScope restricts a workflow query to what the actor may see.
// explicitBranch only narrows the result of global viewers.
func applyBranchScope(db *gorm.DB, s *session.Session, explicitBranch *types.ID) *gorm.DB {
	if s.Perms.HasGlobalViewRole() {
		if explicitBranch != nil {
			return db.Where("branch_id = ?", *explicitBranch)
		}
		return db
	}
	if s.HasBranch() {
		return db.Where("(branch_id = ? OR branch_id IS NULL)", *s.BranchID)
	}
	return db.Where("branch_id IS NULL")
}

func inBranchScope(s *session.Session, w *KycWorkflow) bool {
	if s.Perms.HasGlobalViewRole() || w.BranchID == nil {
		return true
	}
	return s.HasBranch() && *s.BranchID == *w.BranchID
}
