package app

import (
	"kycflow/account"
	"kycflow/domain/approval"
	"kycflow/domain/branch"
	"kycflow/domain/kyc"
	"kycflow/domain/role"
	"kycflow/event"

	"github.com/jinzhu/gorm"
)

// Entities lists every table the service owns or reads
func Entities() []interface{} {
	return []interface{}{
		&role.Role{}, &branch.Branch{}, &kyc.Session{},
		&account.StaffUser{}, &account.StaffRoleBinding{},
		&approval.KycWorkflow{}, &approval.ApprovalLog{},
		&event.EventRecord{},
	}
}

// Migrate creates missing tables and columns, it never drops anything
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Entities()...).Error
}
