package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is a permission label attached to a user. It decides which actions a
// client offers; enforcement happens on the server.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleTeamLead       Role = "TEAM_LEAD"
	RoleUser           Role = "USER"

	// NoRole is what HighestPriorityRole reports for an empty set.
	NoRole Role = ""
)

// RolePriority orders the known roles from most to least privileged.
var RolePriority = []Role{RoleAdmin, RoleProjectManager, RoleTeamLead, RoleUser}

// Known reports whether r belongs to the fixed role vocabulary.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleTeamLead, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole normalises s and rejects anything outside the vocabulary.
func ParseRole(s string) (Role, error) {
	r := normaliseRole(s)
	if !r.Known() {
		return NoRole, fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// DisplayName renders the role for humans, e.g. "Project Manager".
func (r Role) DisplayName() string {
	if r == NoRole {
		return "No role"
	}
	words := strings.ReplaceAll(strings.ToLower(string(r)), "_", " ")
	return cases.Title(language.English).String(words)
}

// Badge is the colour used to mark the role in listings.
func (r Role) Badge() string {
	switch r {
	case RoleAdmin:
		return "red"
	case RoleProjectManager:
		return "purple"
	case RoleTeamLead:
		return "blue"
	case RoleUser:
		return "green"
	default:
		return "gray"
	}
}

func normaliseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// RoleSet holds a user's roles. Membership is all that matters: there is no
// ordering and duplicates collapse.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, ignoring NoRole.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if r = normaliseRole(string(r)); r != NoRole {
			s[r] = struct{}{}
		}
	}
	return s
}

// RoleSetOf builds a set from raw role names as sent by the API.
func RoleSetOf(names ...string) RoleSet {
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, Role(n))
	}
	return NewRoleSet(roles...)
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) Len() int { return len(s) }

// Unknown returns the roles outside the vocabulary, sorted.
func (s RoleSet) Unknown() []Role {
	var out []Role
	for r := range s {
		if !r.Known() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sorted lists known roles in priority order followed by unknown ones.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range RolePriority {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return append(out, s.Unknown()...)
}

func (s RoleSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, r := range sorted {
		out[i] = string(r)
	}
	return out
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON accepts an array of names, an array of {"name": ...}
// objects, a single name, or null.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("roles: %w", err)
	}

	set := RoleSet{}
	switch v := raw.(type) {
	case nil:
	case string:
		set = RoleSetOf(v)
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			set = RoleSetOf(name)
		}
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				names = append(names, it)
			case map[string]any:
				if name, ok := it["name"].(string); ok {
					names = append(names, name)
				}
			default:
				return fmt.Errorf("roles: unexpected element %T", item)
			}
		}
		set = RoleSetOf(names...)
	default:
		return fmt.Errorf("roles: unexpected value %T", raw)
	}
	*s = set
	return nil
}

// HighestPriorityRole returns the first role of RolePriority present in
// roles. A set holding only unknown roles yields the lexicographically
// smallest of them, so the answer never depends on input order. An empty set
// yields NoRole.
func HighestPriorityRole(roles RoleSet) Role {
	for _, r := range RolePriority {
		if roles.Has(r) {
			return r
		}
	}
	if unknown := roles.Unknown(); len(unknown) > 0 {
		return unknown[0]
	}
	return NoRole
}

// HasAnyRole reports whether roles intersects allowed.
func HasAnyRole(roles RoleSet, allowed ...Role) bool {
	for _, r := range allowed {
		if roles.Has(r) {
			return true
		}
	}
	return false
}

// Permission names an action whose allowed roles differ per screen.
type Permission string

const (
	PermManageProjects       Permission = "manage_projects"
	PermCreateTasks          Permission = "create_tasks"
	PermManageTeams          Permission = "manage_teams"
	PermEditTeamMembers      Permission = "edit_team_members"
	PermManageMembers        Permission = "manage_members"
	PermViewCompanyAnalytics Permission = "view_company_analytics"
	// PermEditAnyTask covers tasks the user is not assigned to, and
	// priority changes on any task.
	PermEditAnyTask Permission = "edit_any_task"
)

var permissionRoles = map[Permission][]Role{
	PermManageProjects:       {RoleAdmin, RoleProjectManager},
	PermCreateTasks:          {RoleAdmin, RoleProjectManager, RoleTeamLead},
	PermManageTeams:          {RoleAdmin, RoleProjectManager, RoleTeamLead},
	PermEditTeamMembers:      {RoleAdmin, RoleProjectManager},
	PermManageMembers:        {RoleAdmin},
	PermViewCompanyAnalytics: {RoleAdmin},
	PermEditAnyTask:          {RoleAdmin},
}

// Roles lists the roles granted p. Unknown permissions grant nothing.
func (p Permission) Roles() []Role {
	return append([]Role(nil), permissionRoles[p]...)
}

// Can reports whether a holder of roles is offered the action p.
func Can(roles RoleSet, p Permission) bool {
	return HasAnyRole(roles, permissionRoles[p]...)
}
