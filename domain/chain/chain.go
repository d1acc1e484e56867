package chain

import (
	"fmt"
	"kycflow/bizerror"
	"kycflow/domain/role"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const separator = " -> "

// Member is a role of the chain, its OrderLevel is never nil
type Member struct {
	RoleID     types.ID `json:"roleId"`
	RoleName   string   `json:"roleName"`
	OrderLevel int      `json:"orderLevel"`
}

// Chain is the ordered list of approving roles above a submission level
type Chain struct {
	SubmittedOrderLevel int      `json:"submittedOrderLevel"`
	Members             []Member `json:"members"`
}

var ResolveFunc = Resolve

// Resolve reads the live role table and builds the chain of roles ranked strictly above submittedOrderLevel.
// Pass the caller's transaction so the chain and the decision based on it see the same snapshot.
func Resolve(tx *gorm.DB, submittedOrderLevel int) (*Chain, error) {
	roles, err := role.QueryChainRolesFunc(tx)
	if err != nil {
		return nil, err
	}
	return Build(submittedOrderLevel, roles)
}

// Build keeps the roles with an order level above submittedOrderLevel, roles must be sorted ascending
func Build(submittedOrderLevel int, roles []role.Role) (*Chain, error) {
	c := &Chain{SubmittedOrderLevel: submittedOrderLevel, Members: []Member{}}
	seen := map[int]string{}
	for _, r := range roles {
		if r.OrderLevel == nil || *r.OrderLevel <= submittedOrderLevel {
			continue
		}
		level := *r.OrderLevel
		if other, found := seen[level]; found {
			logrus.WithFields(logrus.Fields{"orderLevel": level, "roles": []string{other, r.Name}}).
				Error("duplicate order level in approval chain")
			return nil, &bizerror.ErrChainMisconfigured{
				Reason: fmt.Sprintf("roles %s and %s share order level %d", other, r.Name, level)}
		}
		seen[level] = r.Name
		c.Members = append(c.Members, Member{RoleID: r.ID, RoleName: r.Name, OrderLevel: level})
	}
	return c, nil
}

func (c *Chain) Len() int {
	return len(c.Members)
}

func (c *Chain) Empty() bool {
	return len(c.Members) == 0
}

// First is the member receiving a fresh submission
func (c *Chain) First() (*Member, error) {
	if c.Empty() {
		return nil, &bizerror.ErrChainMisconfigured{
			Reason: fmt.Sprintf("no role is ranked above order level %d", c.SubmittedOrderLevel)}
	}
	m := c.Members[0]
	return &m, nil
}

// NextAfter returns the first member ranked strictly above level, nil when level is the top of the chain
func (c *Chain) NextAfter(level int) *Member {
	for _, m := range c.Members {
		if m.OrderLevel > level {
			next := m
			return &next
		}
	}
	return nil
}

// PendingFrom counts the members still to act when the member at level holds the item
func (c *Chain) PendingFrom(level int) int {
	count := 0
	for _, m := range c.Members {
		if m.OrderLevel >= level {
			count++
		}
	}
	return count
}

func (c *Chain) Contains(roleID types.ID) bool {
	_, found := c.Find(roleID)
	return found
}

func (c *Chain) Find(roleID types.ID) (Member, bool) {
	for _, m := range c.Members {
		if m.RoleID == roleID {
			return m, true
		}
	}
	return Member{}, false
}

// Describe renders the chain for display, e.g. "Checker -> Compliance"
func (c *Chain) Describe() string {
	names := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		names = append(names, m.RoleName)
	}
	return strings.Join(names, separator)
}
