package domain

// Storage keys under which the session is persisted.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeyCompanyID = "companyId"
)

// Session answers "am I logged in, as whom, in which company". CompanyID is
// only ever derived from AccessToken; an empty token implies a nil company.
type Session struct {
	AccessToken string
	User        *UserProfile
	CompanyID   *int64
}

func (s Session) Authenticated() bool { return s.AccessToken != "" }

// Company returns the company scope or ErrNoCompanyScope.
func (s Session) Company() (int64, error) {
	if s.CompanyID == nil {
		return 0, ErrNoCompanyScope
	}
	return *s.CompanyID, nil
}

// UserID returns the signed-in user's id or ErrNotAuthenticated.
func (s Session) UserID() (int64, error) {
	if s.User == nil {
		return 0, ErrNotAuthenticated
	}
	return s.User.ID, nil
}

// Roles is the signed-in user's role set, empty when signed out.
func (s Session) Roles() RoleSet {
	if s.User == nil {
		return RoleSet{}
	}
	return s.User.Roles
}

// CompanyClaimPolicy decides what happens to the stored company when a new
// access token cannot be decoded or lacks the companyId claim.
type CompanyClaimPolicy int

const (
	// KeepCompany leaves the previous company in place.
	KeepCompany CompanyClaimPolicy = iota
	// ClearCompany drops the company scope.
	ClearCompany
)

func ParseCompanyClaimPolicy(s string) CompanyClaimPolicy {
	if s == "clear" {
		return ClearCompany
	}
	return KeepCompany
}
