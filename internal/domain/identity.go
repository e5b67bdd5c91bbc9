package domain

// Identity is the authenticated principal derived from a validated token.
type Identity struct {
	Username string
	Roles    []Role
}

// IsAdmin reports whether the identity carries the ADMIN role.
func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
