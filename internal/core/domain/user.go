package domain

// UserProfile is the signed-in user as returned by the auth and user
// endpoints. It is always replaced as a whole, never patched field by field.
type UserProfile struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	Roles           RoleSet `json:"roles"`
	ProfileImageURL string  `json:"profileImageUrl,omitempty"`
	CompanyID       *int64  `json:"companyId,omitempty"`
}

// HighestRole is the role shown next to the user's name.
func (u *UserProfile) HighestRole() Role {
	if u == nil {
		return NoRole
	}
	return HighestPriorityRole(u.Roles)
}

// Can reports whether the user is offered the action p.
func (u *UserProfile) Can(p Permission) bool {
	if u == nil {
		return false
	}
	return Can(u.Roles, p)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = NewRoleSet(u.Roles.Sorted()...)
	if u.CompanyID != nil {
		id := *u.CompanyID
		c.CompanyID = &id
	}
	return &c
}

// AuthResult is the payload of login and both register endpoints.
type AuthResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}
