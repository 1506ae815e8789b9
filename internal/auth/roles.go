package auth

// Role orders API access. Viewers read risk, calendar, and alert state;
// operators may additionally trigger refreshes; admins hold every
// permission including exports.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// NormalizeRole maps a token claim onto a known role. Unknown claims are
// rejected rather than defaulted so a mistyped role never grants access.
func NormalizeRole(value string) (Role, bool) {
	role := Role(value)
	if _, ok := roleRanks[role]; !ok {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role carries the privileges of required.
// Roles are strictly ordered: viewer < operator < admin.
func RoleAtLeast(role, required Role) bool {
	return roleRanks[role] >= roleRanks[required]
}
