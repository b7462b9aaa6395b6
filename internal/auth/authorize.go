package auth

// Role presets for endpoint guards.
var (
	AdminOnly     = []Role{RoleAdmin}
	TenantOnly    = []Role{RoleTenant}
	AdminOrTenant = []Role{RoleAdmin, RoleTenant}
)

// Permits reports whether the claims carry one of the allowed roles.
// Nil claims never pass.
func Permits(c *Claims, allowed ...Role) bool {
	if c == nil {
		return false
	}
	for _, r := range allowed {
		if c.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for Permits(c, RoleAdmin).
func (c *Claims) IsAdmin() bool { return Permits(c, RoleAdmin) }
