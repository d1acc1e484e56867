package role

import (
	"errors"
	"kycflow/bizerror"
	"kycflow/persistence"
	"kycflow/session"
	"sort"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// Role is owned by the administration surface, it is read only here.
// Only roles with an OrderLevel take part in the approval chain.
type Role struct {
	ID         types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	Name       string    `json:"name" gorm:"unique_index:uni_role_name"`
	OrderLevel *int      `json:"orderLevel"`
	CreateTime time.Time `json:"createTime"`
}

func (r *Role) TableName() string {
	return "roles"
}

func (r Role) InChain() bool {
	return r.OrderLevel != nil
}

var (
	QueryRolesFunc      = QueryRoles
	QueryChainRolesFunc = QueryChainRoles
)

// QueryChainRoles loads the roles carrying an order level, ascending by level
func QueryChainRoles(db *gorm.DB) ([]Role, error) {
	roles := []Role{}
	if err := db.Where("order_level IS NOT NULL").Order("order_level ASC").Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func FindRole(db *gorm.DB, id types.ID) (*Role, error) {
	r := Role{}
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrRoleNotFound
		}
		return nil, err
	}
	return &r, nil
}

// FindRolesByNames matches role names case-insensitively, unknown names are ignored
func FindRolesByNames(db *gorm.DB, names []string) ([]Role, error) {
	if len(names) == 0 {
		return []Role{}, nil
	}
	all := []Role{}
	if err := db.Find(&all).Error; err != nil {
		return nil, err
	}
	matched := []Role{}
	for _, r := range all {
		for _, name := range names {
			if strings.EqualFold(r.Name, name) {
				matched = append(matched, r)
				break
			}
		}
	}
	return matched, nil
}

func QueryRoleNames(db *gorm.DB, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	if len(ids) == 0 {
		return result, nil
	}
	roles := []Role{}
	if err := db.Where("id IN (?)", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	for _, r := range roles {
		result[r.ID] = r.Name
	}
	return result, nil
}

// QueryRoles lists all roles, chain members first by level, then the others by name
func QueryRoles(s *session.Session) ([]Role, error) {
	if s == nil || s.Identity.ID == 0 {
		return nil, bizerror.ErrUnauthenticated
	}
	roles := []Role{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Find(&roles).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(roles, func(i, j int) bool {
		a, b := roles[i], roles[j]
		if a.InChain() != b.InChain() {
			return a.InChain()
		}
		if a.InChain() && *a.OrderLevel != *b.OrderLevel {
			return *a.OrderLevel < *b.OrderLevel
		}
		return a.Name < b.Name
	})
	return roles, nil
}
