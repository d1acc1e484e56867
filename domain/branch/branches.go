package branch

import (
	"errors"
	"kycflow/bizerror"
	"kycflow/persistence"
	"kycflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

// Branch is master data maintained by the lookup administration surface
type Branch struct {
	ID         types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	Code       string    `json:"code" gorm:"unique_index:uni_branch_code"`
	Name       string    `json:"name"`
	CreateTime time.Time `json:"createTime"`
}

func (b *Branch) TableName() string {
	return "branches"
}

var (
	QueryBranchesFunc = QueryBranches

	// branch names change rarely, listing pages resolve them for every row
	branchNameCache = cache.New(5*time.Minute, 10*time.Minute)
)

func FindBranch(db *gorm.DB, id types.ID) (*Branch, error) {
	b := Branch{}
	if err := db.Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrBranchNotFound
		}
		return nil, err
	}
	branchNameCache.Set(b.ID.String(), b.Name, cache.DefaultExpiration)
	return &b, nil
}

func QueryBranches(s *session.Session) ([]Branch, error) {
	if !s.Authenticated() {
		return nil, bizerror.ErrUnauthenticated
	}
	branches := []Branch{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Order("code ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// QueryBranchNames maps branch ids to names, unknown ids are absent from the result
func QueryBranchNames(db *gorm.DB, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	missing := []types.ID{}
	for _, id := range ids {
		if name, found := branchNameCache.Get(id.String()); found {
			result[id] = name.(string)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	branches := []Branch{}
	if err := db.Where("id IN (?)", missing).Find(&branches).Error; err != nil {
		return nil, err
	}
	for _, b := range branches {
		result[b.ID] = b.Name
		branchNameCache.Set(b.ID.String(), b.Name, cache.DefaultExpiration)
	}
	return result, nil
}

func FlushBranchNameCache() {
	branchNameCache.Flush()
}
