package branch_test

import (
	"context"
	"kycflow/bizerror"
	"kycflow/domain/branch"
	"kycflow/persistence"
	"kycflow/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestBranches(t *testing.T) {
	RegisterTestingT(t)

	testDatabase := testinfra.StartTestDatabase("kycflow")
	defer testinfra.StopTestDatabase(testDatabase)
	persistence.ActiveDataSourceManager = testDatabase.DS
	db := testDatabase.DS.GormDB(context.TODO())
	Expect(db.AutoMigrate(&branch.Branch{}).Error).To(BeNil())
	Expect(db.Save(&branch.Branch{ID: 7, Code: "B07", Name: "Harbour"}).Error).To(BeNil())
	Expect(db.Save(&branch.Branch{ID: 5, Code: "B05", Name: "Downtown"}).Error).To(BeNil())
	branch.FlushBranchNameCache()

	t.Run("should find branch by id", func(t *testing.T) {
		b, err := branch.FindBranch(db, 5)
		Expect(err).To(BeNil())
		Expect(b.Code).To(Equal("B05"))

		b, err = branch.FindBranch(db, 404)
		Expect(err).To(Equal(bizerror.ErrBranchNotFound))
		Expect(b).To(BeNil())
	})

	t.Run("should list branches ordered by code", func(t *testing.T) {
		_, err := branch.QueryBranches(testinfra.BuildSession(0, nil))
		Expect(err).To(Equal(bizerror.ErrUnauthenticated))

		branches, err := branch.QueryBranches(testinfra.BuildSession(10, nil, "Maker"))
		Expect(err).To(BeNil())
		Expect(len(branches)).To(Equal(2))
		Expect(branches[0].Name).To(Equal("Downtown"))
		Expect(branches[1].Name).To(Equal("Harbour"))
	})

	t.Run("should resolve and cache branch names", func(t *testing.T) {
		names, err := branch.QueryBranchNames(db, []types.ID{5, 7, 404})
		Expect(err).To(BeNil())
		Expect(names).To(Equal(map[types.ID]string{5: "Downtown", 7: "Harbour"}))

		Expect(db.Model(&branch.Branch{}).Where("id = ?", 7).Update("name", "Seaside").Error).To(BeNil())
		names, err = branch.QueryBranchNames(db, []types.ID{7})
		Expect(err).To(BeNil())
		Expect(names).To(Equal(map[types.ID]string{7: "Harbour"}))

		branch.FlushBranchNameCache()
		names, err = branch.QueryBranchNames(db, []types.ID{7})
		Expect(err).To(BeNil())
		Expect(names).To(Equal(map[types.ID]string{7: "Seaside"}))
	})
}
