package authority

import (
	"strings"
)

const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"

	// GlobalSearchPermission lets a branch bound reviewer see and search every branch.
	GlobalSearchPermission = "kyc:global-search"
)

// Permissions holds the role names and permission grants of a principal
type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

// HasGlobalOverride reports whether the principal bypasses per-level checks
func (c Permissions) HasGlobalOverride() bool {
	return c.HasRole(RoleSuperAdmin) || c.HasRole(RoleAdmin)
}

func (c Permissions) HasGlobalViewRole() bool {
	return c.HasGlobalOverride() || c.HasRole(GlobalSearchPermission)
}

// RoleNames drops permission grants, which are namespaced with a colon
func (c Permissions) RoleNames() []string {
	names := []string{}
	for _, v := range c {
		if strings.Contains(v, ":") {
			continue
		}
		names = append(names, v)
	}
	return names
}
