package session

import (
	"context"
	"kycflow/authority"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`
	BranchID *types.ID             `json:"branchId"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

// Principal is what the identity subsystem knows about an authenticated staff member
type Principal struct {
	Identity Identity
	Perms    authority.Permissions
	BranchID *types.ID
}

func (s *Session) Clone() Session {
	c := *s
	if s.Perms != nil {
		c.Perms = append(authority.Permissions{}, s.Perms...)
	}
	if s.BranchID != nil {
		b := *s.BranchID
		c.BranchID = &b
	}
	return c
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Identity.ID != 0
}

func (s *Session) HasBranch() bool {
	return s != nil && s.BranchID != nil && *s.BranchID != 0
}

func (s *Session) Ctx() context.Context {
	if s == nil || s.Context == nil {
		return context.Background()
	}
	return s.Context
}
