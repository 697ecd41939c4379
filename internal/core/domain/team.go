package domain

import "strings"

// Team mirrors the server's team DTO. Depending on the endpoint members are
// listed as full profiles, as emails, or both.
type Team struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	MemberEmails []string      `json:"memberEmails,omitempty"`
	Members      []UserProfile `json:"members,omitempty"`
	CompanyID    *int64        `json:"companyId,omitempty"`
}

// HasMember matches by id or, when given, case-insensitively by email.
func (t Team) HasMember(userID int64, email string) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
		if email != "" && strings.EqualFold(m.Email, email) {
			return true
		}
	}
	if email == "" {
		return false
	}
	for _, e := range t.MemberEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// MemberCount counts distinct members across both representations.
func (t Team) MemberCount() int {
	seen := make(map[string]struct{}, len(t.Members)+len(t.MemberEmails))
	for _, m := range t.Members {
		seen[strings.ToLower(m.Email)] = struct{}{}
	}
	for _, e := range t.MemberEmails {
		seen[strings.ToLower(e)] = struct{}{}
	}
	return len(seen)
}

type TeamInput struct {
	Name         string   `json:"name" validate:"required,max=120"`
	Description  string   `json:"description,omitempty" validate:"max=2000"`
	MemberEmails []string `json:"memberEmails,omitempty" validate:"dive,email"`
}

// Invite adds a user to a team by email, optionally with a role.
type Invite struct {
	TeamID int64  `json:"-"`
	Email  string `json:"email" validate:"required,email"`
	Role   Role   `json:"role,omitempty"`
}

// InviteResult is the outcome of one invite in a bulk run.
type InviteResult struct {
	TeamID int64  `json:"teamId"`
	Email  string `json:"email"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}
