package account

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// StaffUser is maintained by the identity subsystem, the approval engine only reads it
type StaffUser struct {
	ID       types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	Name     string    `json:"name" gorm:"unique_index:uni_staff_name"`
	Nickname string    `json:"nickname"`
	Email    string    `json:"email"`
	BranchID *types.ID `json:"branchId"`

	// GlobalSearch lets a staff member list and search workflows of every branch without holding an admin role
	GlobalSearch bool `json:"globalSearch"`

	CreateTime time.Time `json:"createTime"`
}

func (u *StaffUser) TableName() string {
	return "staff_users"
}

type StaffRoleBinding struct {
	ID     types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	UserID types.ID `json:"userId" gorm:"unique_index:uni_staff_role"`
	RoleID types.ID `json:"roleId" gorm:"unique_index:uni_staff_role"`
}

func (b *StaffRoleBinding) TableName() string {
	return "staff_role_bindings"
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (u StaffUser) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	} else {
		return u.Name
	}
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	} else {
		return u.Name
	}
}
