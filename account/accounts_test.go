package account_test

import (
	"context"
	"kycflow/account"
	"kycflow/authority"
	"kycflow/bizerror"
	"kycflow/domain/role"
	"kycflow/persistence"
	"kycflow/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("accounts", func() {
	var (
		testDatabase *testinfra.TestDatabase
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("kycflow")
		persistence.ActiveDataSourceManager = testDatabase.DS
		Expect(testDatabase.DS.GormDB(context.TODO()).AutoMigrate(&account.StaffUser{}, &account.StaffRoleBinding{}, &role.Role{}).Error).To(BeNil())

		db := testDatabase.DS.GormDB(context.TODO())
		Expect(db.Save(&role.Role{ID: 1, Name: "Maker", OrderLevel: testinfra.IntRef(0)}).Error).To(BeNil())
		Expect(db.Save(&role.Role{ID: 2, Name: "Checker", OrderLevel: testinfra.IntRef(1)}).Error).To(BeNil())
		Expect(db.Save(&role.Role{ID: 9, Name: "Auditor"}).Error).To(BeNil())
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("LoadPrincipal", func() {
		It("should return not found for unknown staff", func() {
			p, err := account.LoadPrincipal(context.TODO(), 404)
			Expect(err).To(Equal(bizerror.ErrNotFound))
			Expect(p).To(BeNil())
		})

		It("should load roles and branch of staff", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.StaffUser{ID: 10, Name: "ann", Nickname: "Ann", BranchID: testinfra.IDRef(5)}).Error).To(BeNil())
			Expect(db.Save(&account.StaffRoleBinding{ID: 1, UserID: 10, RoleID: 2}).Error).To(BeNil())
			Expect(db.Save(&account.StaffRoleBinding{ID: 2, UserID: 10, RoleID: 9}).Error).To(BeNil())
			Expect(db.Save(&account.StaffRoleBinding{ID: 3, UserID: 11, RoleID: 1}).Error).To(BeNil())

			p, err := account.LoadPrincipal(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(p.Identity.ID).To(Equal(types.ID(10)))
			Expect(p.Identity.Name).To(Equal("ann"))
			Expect(p.Identity.Nickname).To(Equal("Ann"))
			Expect(p.Perms).To(Equal(authority.Permissions{"Auditor", "Checker"}))
			Expect(*p.BranchID).To(Equal(types.ID(5)))
		})

		It("should reflect role revocation immediately", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.StaffUser{ID: 10, Name: "ann"}).Error).To(BeNil())
			Expect(db.Save(&account.StaffRoleBinding{ID: 1, UserID: 10, RoleID: 2}).Error).To(BeNil())

			p, err := account.LoadPrincipal(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(p.Perms).To(Equal(authority.Permissions{"Checker"}))

			Expect(db.Delete(&account.StaffRoleBinding{ID: 1}).Error).To(BeNil())
			p, err = account.LoadPrincipal(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(p.Perms).To(Equal(authority.Permissions{}))
			Expect(p.BranchID).To(BeNil())
		})

		It("should append global search grant", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.StaffUser{ID: 10, Name: "ann", GlobalSearch: true}).Error).To(BeNil())
			Expect(db.Save(&account.StaffRoleBinding{ID: 1, UserID: 10, RoleID: 1}).Error).To(BeNil())

			p, err := account.LoadPrincipal(context.TODO(), 10)
			Expect(err).To(BeNil())
			Expect(p.Perms).To(Equal(authority.Permissions{"Maker", authority.GlobalSearchPermission}))
			Expect(p.Perms.HasGlobalViewRole()).To(BeTrue())
			Expect(p.Perms.HasGlobalOverride()).To(BeFalse())
		})
	})

	Describe("QueryAccountNames", func() {
		It("should map ids to display names", func() {
			db := testDatabase.DS.GormDB(context.TODO())
			Expect(db.Save(&account.StaffUser{ID: 10, Name: "ann", Nickname: "Ann"}).Error).To(BeNil())
			Expect(db.Save(&account.StaffUser{ID: 11, Name: "bob"}).Error).To(BeNil())

			names, err := account.QueryAccountNames(db, []types.ID{10, 11, 12})
			Expect(err).To(BeNil())
			Expect(names).To(Equal(map[types.ID]string{10: "Ann", 11: "bob"}))

			names, err = account.QueryAccountNames(db, nil)
			Expect(err).To(BeNil())
			Expect(names).To(BeEmpty())
		})
	})

	Describe("DisplayName", func() {
		It("should be able to compute display name", func() {
			Expect(account.StaffUser{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.StaffUser{Name: "test"}.DisplayName()).To(Equal("test"))
			Expect(account.UserInfo{Name: "test", Nickname: "Test"}.DisplayName()).To(Equal("Test"))
			Expect(account.UserInfo{Name: "test"}.DisplayName()).To(Equal("test"))
		})
	})
})
