package approval_test

import (
	"context"
	"kycflow/account"
	"kycflow/domain/approval"
	"kycflow/domain/branch"
	"kycflow/domain/kyc"
	"kycflow/domain/role"
	"kycflow/event"
	"kycflow/persistence"
	"kycflow/session"
	"kycflow/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

const (
	makerRoleID      types.ID = 1
	checkerRoleID    types.ID = 2
	complianceRoleID types.ID = 3
	tellerRoleID     types.ID = 4
	superAdminRoleID types.ID = 8
	auditorRoleID    types.ID = 9

	downtownBranchID types.ID = 5
	harbourBranchID  types.ID = 7
)

var (
	maker      = testinfra.BuildSession(10, testinfra.IDRef(downtownBranchID), "Maker")
	checker    = testinfra.BuildSession(11, testinfra.IDRef(downtownBranchID), "Checker")
	compliance = testinfra.BuildSession(12, nil, "Compliance")
	teller     = testinfra.BuildSession(13, testinfra.IDRef(harbourBranchID), "Teller")
	admin      = testinfra.BuildSession(1, nil, "SuperAdmin")
	anonymous  = &session.Session{Context: context.Background()}
)

func setupApprovalDatabase(t *testing.T) *testinfra.TestDatabase {
	testDatabase := testinfra.StartTestDatabase("kycflow")
	persistence.ActiveDataSourceManager = testDatabase.DS
	db := testDatabase.DS.GormDB(context.TODO())
	Expect(db.AutoMigrate(&approval.KycWorkflow{}, &approval.ApprovalLog{}, &role.Role{}, &branch.Branch{},
		&kyc.Session{}, &event.EventRecord{}, &account.StaffUser{}).Error).To(BeNil())

	for _, r := range []role.Role{
		{ID: tellerRoleID, Name: "Teller", OrderLevel: testinfra.IntRef(0)},
		{ID: makerRoleID, Name: "Maker", OrderLevel: testinfra.IntRef(1)},
		{ID: checkerRoleID, Name: "Checker", OrderLevel: testinfra.IntRef(2)},
		{ID: complianceRoleID, Name: "Compliance", OrderLevel: testinfra.IntRef(3)},
		{ID: superAdminRoleID, Name: "SuperAdmin"},
		{ID: auditorRoleID, Name: "Auditor"},
	} {
		r := r
		Expect(db.Save(&r).Error).To(BeNil())
	}
	Expect(db.Save(&branch.Branch{ID: downtownBranchID, Code: "B05", Name: "Downtown"}).Error).To(BeNil())
	Expect(db.Save(&branch.Branch{ID: harbourBranchID, Code: "B07", Name: "Harbour"}).Error).To(BeNil())
	branch.FlushBranchNameCache()

	for _, s := range []kyc.Session{
		{ID: 100, ApplicantName: "Jane Doe", ApplicantEmail: "jane@example.com", Status: kyc.SessionStatusSubmitted},
		{ID: 200, ApplicantName: "John Roe", ApplicantEmail: "john@example.com", Status: kyc.SessionStatusSubmitted},
		{ID: 300, ApplicantName: "Ada Poe", ApplicantEmail: "ada@corp.example", Status: kyc.SessionStatusSubmitted},
	} {
		s := s
		Expect(db.Save(&s).Error).To(BeNil())
	}
	Expect(db.Save(&account.StaffUser{ID: 10, Name: "maker", Nickname: "Mia Maker"}).Error).To(BeNil())
	Expect(db.Save(&account.StaffUser{ID: 11, Name: "checker"}).Error).To(BeNil())
	return testDatabase
}

func submit(sessionID types.ID, s *session.Session) *approval.KycWorkflow {
	result, err := approval.CreateWorkflow(&approval.WorkflowCreation{SessionID: sessionID, SubmittedOrderLevel: testinfra.IntRef(0)}, s)
	Expect(err).To(BeNil())
	Expect(result.Success).To(BeTrue())
	return result.Workflow
}

func submitToBranch(sessionID types.ID, branchID *types.ID) *approval.KycWorkflow {
	result, err := approval.CreateWorkflow(&approval.WorkflowCreation{SessionID: sessionID, BranchID: branchID}, compliance)
	Expect(err).To(BeNil())
	return result.Workflow
}

func reload(testDatabase *testinfra.TestDatabase, id types.ID) *approval.KycWorkflow {
	w := approval.KycWorkflow{}
	Expect(testDatabase.DS.GormDB(context.TODO()).Where("id = ?", id).First(&w).Error).To(BeNil())
	return &w
}

func logsOf(testDatabase *testinfra.TestDatabase, id types.ID) []approval.ApprovalLog {
	logs := []approval.ApprovalLog{}
	Expect(testDatabase.DS.GormDB(context.TODO()).Where("workflow_id = ?", id).Order("seq ASC").Find(&logs).Error).To(BeNil())
	return logs
}

func idOf(id *types.ID) types.ID {
	if id == nil {
		return 0
	}
	return *id
}

func reloadBySession(testDatabase *testinfra.TestDatabase, sessionID types.ID) *approval.KycWorkflow {
	w := approval.KycWorkflow{}
	Expect(testDatabase.DS.GormDB(context.TODO()).Where("session_id = ?", sessionID).First(&w).Error).To(BeNil())
	return &w
}

// versionOf reads the version a caller would see before acting, missing records read as version 1
func versionOf(id types.ID) *int {
	w := approval.KycWorkflow{}
	err := persistence.ActiveDataSourceManager.GormDB(context.TODO()).Where("id = ?", id).First(&w).Error
	if gorm.IsRecordNotFoundError(err) {
		return testinfra.IntRef(1)
	}
	Expect(err).To(BeNil())
	return testinfra.IntRef(w.Version)
}
