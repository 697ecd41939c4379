package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighestPriorityRole(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  Role
	}{
		{"admin beats user", []string{"ADMIN", "USER"}, RoleAdmin},
		{"user listed first", []string{"USER", "ADMIN"}, RoleAdmin},
		{"single team lead", []string{"TEAM_LEAD"}, RoleTeamLead},
		{"pm and lead", []string{"TEAM_LEAD", "PROJECT_MANAGER"}, RoleProjectManager},
		{"empty", nil, NoRole},
		{"known beats unknown", []string{"AUDITOR", "USER"}, RoleUser},
		{"only unknown picks smallest", []string{"ZED", "AUDITOR"}, Role("AUDITOR")},
		{"lower case normalised", []string{"admin"}, RoleAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HighestPriorityRole(RoleSetOf(tc.roles...)))
		})
	}
}

func TestHighestPriorityRoleIgnoresOrderAndDuplicates(t *testing.T) {
	base := []string{"USER", "TEAM_LEAD", "AUDITOR", "PROJECT_MANAGER"}
	want := HighestPriorityRole(RoleSetOf(base...))

	perms := [][]string{
		{"PROJECT_MANAGER", "AUDITOR", "TEAM_LEAD", "USER"},
		{"AUDITOR", "USER", "PROJECT_MANAGER", "TEAM_LEAD", "USER"},
		{"TEAM_LEAD", "TEAM_LEAD", "PROJECT_MANAGER", "USER", "AUDITOR", "AUDITOR"},
	}
	for _, p := range perms {
		for i := 0; i < 20; i++ {
			if got := HighestPriorityRole(RoleSetOf(p...)); got != want {
				t.Fatalf("HighestPriorityRole(%v) = %s, want %s", p, got, want)
			}
		}
	}

	unknownOnly := HighestPriorityRole(RoleSetOf("X", "B", "M"))
	for i := 0; i < 20; i++ {
		if got := HighestPriorityRole(RoleSetOf("M", "X", "B", "B")); got != unknownOnly {
			t.Fatalf("unknown-only derivation unstable: %s vs %s", got, unknownOnly)
		}
	}
}

func TestRoleSetUnknownIsDetectable(t *testing.T) {
	s := RoleSetOf("USER", "GUEST", "AUDITOR")
	assert.Equal(t, []Role{"AUDITOR", "GUEST"}, s.Unknown())
	assert.Equal(t, []string{"USER", "AUDITOR", "GUEST"}, s.Strings())

	_, err := ParseRole("GUEST")
	assert.True(t, errors.Is(err, ErrUnknownRole))
	r, err := ParseRole(" team_lead ")
	require.NoError(t, err)
	assert.Equal(t, RoleTeamLead, r)
}

func TestRoleSetJSON(t *testing.T) {
	var u UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"roles":["USER","ADMIN","USER"]}`), &u))
	assert.Equal(t, 2, u.Roles.Len())
	assert.True(t, u.Roles.Has(RoleAdmin))

	require.NoError(t, json.Unmarshal([]byte(`{"roles":[{"id":1,"name":"TEAM_LEAD"}]}`), &u))
	assert.Equal(t, RoleTeamLead, u.HighestRole())

	require.NoError(t, json.Unmarshal([]byte(`{"roles":"PROJECT_MANAGER"}`), &u))
	assert.Equal(t, RoleProjectManager, u.HighestRole())

	require.NoError(t, json.Unmarshal([]byte(`{"roles":null}`), &u))
	assert.Equal(t, NoRole, u.HighestRole())

	out, err := json.Marshal(RoleSetOf("USER", "ADMIN"))
	require.NoError(t, err)
	assert.JSONEq(t, `["ADMIN","USER"]`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"roles":[1,2]}`), &u))
}

func TestPermissions(t *testing.T) {
	cases := []struct {
		perm  Permission
		role  Role
		allow bool
	}{
		{PermManageProjects, RoleAdmin, true},
		{PermManageProjects, RoleProjectManager, true},
		{PermManageProjects, RoleTeamLead, false},
		{PermManageTeams, RoleTeamLead, true},
		{PermManageTeams, RoleUser, false},
		{PermEditTeamMembers, RoleTeamLead, false},
		{PermCreateTasks, RoleTeamLead, true},
		{PermManageMembers, RoleProjectManager, false},
		{PermManageMembers, RoleAdmin, true},
		{PermViewCompanyAnalytics, RoleAdmin, true},
		{PermViewCompanyAnalytics, RoleUser, false},
		{PermEditAnyTask, RoleProjectManager, false},
		{PermEditAnyTask, RoleAdmin, true},
		{Permission("unknown"), RoleAdmin, false},
	}
	for _, tc := range cases {
		if got := Can(NewRoleSet(tc.role), tc.perm); got != tc.allow {
			t.Fatalf("Can(%s, %s) = %v, want %v", tc.role, tc.perm, got, tc.allow)
		}
	}

	var nobody *UserProfile
	assert.False(t, nobody.Can(PermManageProjects))
	assert.Equal(t, NoRole, nobody.HighestRole())
}

func TestRoleDisplay(t *testing.T) {
	assert.Equal(t, "Project Manager", RoleProjectManager.DisplayName())
	assert.Equal(t, "Admin", RoleAdmin.DisplayName())
	assert.Equal(t, "No role", NoRole.DisplayName())
	assert.Equal(t, "red", RoleAdmin.Badge())
	assert.Equal(t, "gray", Role("AUDITOR").Badge())
}
