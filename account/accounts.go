package account

import (
	"context"
	"errors"
	"kycflow/authority"
	"kycflow/bizerror"
	"kycflow/domain/role"
	"kycflow/persistence"
	"kycflow/session"
	"sort"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// LoadPrincipal reads the staff member together with the names of the roles bound to it.
// Roles are never cached, a revoked role takes effect on the next request.
func LoadPrincipal(ctx context.Context, uid types.ID) (*session.Principal, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	user := StaffUser{}
	if err := db.Where("id = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	var bindings []StaffRoleBinding
	if err := db.Where("user_id = ?", uid).Find(&bindings).Error; err != nil {
		return nil, err
	}
	roleIds := make([]types.ID, 0, len(bindings))
	for _, b := range bindings {
		roleIds = append(roleIds, b.RoleID)
	}
	names, err := role.QueryRoleNames(db, roleIds)
	if err != nil {
		return nil, err
	}

	perms := authority.Permissions{}
	for _, name := range names {
		perms = append(perms, name)
	}
	sort.Strings(perms)
	if user.GlobalSearch {
		perms = append(perms, authority.GlobalSearchPermission)
	}

	return &session.Principal{
		Identity: session.Identity{ID: user.ID, Name: user.Name, Nickname: user.Nickname},
		Perms:    perms,
		BranchID: user.BranchID,
	}, nil
}

// QueryAccountNames maps staff ids to display names, unknown ids are absent from the result
func QueryAccountNames(db *gorm.DB, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	if len(ids) == 0 {
		return result, nil
	}
	var records []UserInfo
	if err := db.Model(&StaffUser{}).Where("id IN (?)", ids).Scan(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		result[r.ID] = r.DisplayName()
	}
	return result, nil
}
