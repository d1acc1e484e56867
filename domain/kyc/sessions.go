package kyc

import (
	"errors"
	"kycflow/bizerror"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const SessionStatusSubmitted = "SUBMITTED"

// Session is an onboarding application captured by the data entry flow.
// The approval engine reads it, it never writes it.
type Session struct {
	ID             types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	ApplicantName  string    `json:"applicantName"`
	ApplicantEmail string    `json:"applicantEmail"`
	Status         string    `json:"status"`
	CreateTime     time.Time `json:"createTime"`
}

func (s *Session) TableName() string {
	return "kyc_sessions"
}

func FindSession(db *gorm.DB, id types.ID) (*Session, error) {
	s := Session{}
	if err := db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func QuerySessions(db *gorm.DB, ids []types.ID) (map[types.ID]Session, error) {
	result := map[types.ID]Session{}
	if len(ids) == 0 {
		return result, nil
	}
	sessions := []Session{}
	if err := db.Where("id IN (?)", ids).Find(&sessions).Error; err != nil {
		return nil, err
	}
	for _, s := range sessions {
		result[s.ID] = s
	}
	return result, nil
}

// MatchSessionIDs finds sessions whose id equals the keyword or whose applicant name or email contains it
func MatchSessionIDs(db *gorm.DB, keyword string) ([]types.ID, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []types.ID{}, nil
	}
	like := "%" + strings.ToLower(keyword) + "%"
	q := db.Model(&Session{}).Where("LOWER(applicant_name) LIKE ? OR LOWER(applicant_email) LIKE ?", like, like)
	if id, err := types.ParseID(keyword); err == nil {
		q = db.Model(&Session{}).Where("id = ? OR LOWER(applicant_name) LIKE ? OR LOWER(applicant_email) LIKE ?", id, like, like)
	}

	sessions := []Session{}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	ids := make([]types.ID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
