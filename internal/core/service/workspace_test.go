package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type stubProjectAPI struct {
	projects []domain.Project
	created  *domain.ProjectInput
}

func (s *stubProjectAPI) List(context.Context) ([]domain.Project, error) { return s.projects, nil }
func (s *stubProjectAPI) ListByCompany(_ context.Context, id int64) ([]domain.Project, error) {
	if id != 7 {
		return nil, errors.New("wrong company")
	}
	return s.projects, nil
}
func (s *stubProjectAPI) Get(context.Context, int64) (*domain.Project, error) { return nil, nil }
func (s *stubProjectAPI) Create(_ context.Context, in domain.ProjectInput) (*domain.Project, error) {
	s.created = &in
	return &domain.Project{ID: 99, Name: in.Name}, nil
}
func (s *stubProjectAPI) Update(context.Context, domain.ProjectInput) (*domain.Project, error) {
	return nil, nil
}
func (s *stubProjectAPI) UpdateStatus(context.Context, int64, domain.ProjectStatus) (*domain.Project, error) {
	return nil, nil
}
func (s *stubProjectAPI) Delete(context.Context, int64) error { return nil }

type stubTaskAPI struct {
	all       []domain.Task
	byProject map[int64][]domain.Task
	byID      map[int64]domain.Task
	updated   *domain.TaskInput
}

func (s *stubTaskAPI) List(context.Context) ([]domain.Task, error) { return s.all, nil }
func (s *stubTaskAPI) ListByProject(_ context.Context, id int64) ([]domain.Task, error) {
	return s.byProject[id], nil
}
func (s *stubTaskAPI) Get(_ context.Context, id int64) (*domain.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}
func (s *stubTaskAPI) Create(context.Context, domain.TaskInput) (*domain.Task, error) {
	return &domain.Task{ID: 1}, nil
}
func (s *stubTaskAPI) Update(_ context.Context, id int64, in domain.TaskInput) (*domain.Task, error) {
	s.updated = &in
	return &domain.Task{ID: id, Status: in.Status, Priority: in.Priority}, nil
}
func (s *stubTaskAPI) Delete(context.Context, int64) error { return nil }
func (s *stubTaskAPI) Elaborate(context.Context, int64) (*domain.TaskElaboration, error) {
	return nil, nil
}

type stubTeamAPI struct{ teams []domain.Team }

func (s *stubTeamAPI) List(context.Context) ([]domain.Team, error) { return s.teams, nil }
func (s *stubTeamAPI) ListByCompany(context.Context, int64) ([]domain.Team, error) {
	return s.teams, nil
}
func (s *stubTeamAPI) Get(context.Context, int64) (*domain.Team, error) { return nil, nil }
func (s *stubTeamAPI) Create(context.Context, domain.TeamInput) (*domain.Team, error) {
	return nil, nil
}
func (s *stubTeamAPI) Members(context.Context, int64) ([]domain.UserProfile, error) { return nil, nil }
func (s *stubTeamAPI) AddMember(context.Context, domain.Invite) (*domain.Team, error) {
	return nil, nil
}
func (s *stubTeamAPI) RemoveMember(context.Context, int64, int64) (*domain.Team, error) {
	return nil, nil
}

type stubAdminAPI struct{ calls int }

func (s *stubAdminAPI) Analytics(context.Context, int64) (*domain.AdminAnalytics, error) {
	s.calls++
	return &domain.AdminAnalytics{TotalUsers: 12}, nil
}
func (s *stubAdminAPI) ImportUsers(context.Context, string, io.Reader) (string, error) {
	return "imported 1 user", nil
}

func sessionFor(id int64, email string, roles ...string) fixedSession {
	return fixedSession{
		AccessToken: "tok",
		CompanyID:   int64p(7),
		User:        &domain.UserProfile{ID: id, Email: email, Roles: domain.RoleSetOf(roles...)},
	}
}

func testProjects() []domain.Project {
	return []domain.Project{
		{ID: 1, Name: "Mine", CreatedBy: &domain.UserProfile{ID: 5}},
		{ID: 2, Name: "Member", Members: []domain.UserProfile{{ID: 5}}},
		{ID: 3, Name: "Other", CreatedBy: &domain.UserProfile{ID: 8}},
	}
}

func projectIDs(ps []domain.Project) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestWorkspace_ProjectsByScope(t *testing.T) {
	res := Resources{Projects: &stubProjectAPI{projects: testProjects()}}

	user := NewWorkspace(sessionFor(5, "u@x.io", "USER"), res, zerolog.Nop())
	got, err := user.Projects(context.Background(), ScopeAuto)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, projectIDs(got))

	got, err = user.Projects(context.Background(), ScopeAll)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	pm := NewWorkspace(sessionFor(5, "u@x.io", "PROJECT_MANAGER"), res, zerolog.Nop())
	got, err = pm.Projects(context.Background(), ScopeAuto)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = pm.Projects(context.Background(), ScopeMine)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, projectIDs(got))
}

func TestWorkspace_TasksFilter(t *testing.T) {
	tasks := []domain.Task{
		{ID: 1, Title: "Fix login", Status: domain.TaskToDo, AssigneeID: int64p(5)},
		{ID: 2, Title: "Fix logout", Status: domain.TaskDone, CreatorID: int64p(5)},
		{ID: 3, Title: "Plan sprint", Status: domain.TaskToDo, AssigneeID: int64p(8)},
		{ID: 4, Title: "Fix other company", AssigneeID: int64p(5), CompanyID: int64p(99)},
	}
	res := Resources{Tasks: &stubTaskAPI{all: tasks, byProject: map[int64][]domain.Task{4: {tasks[2]}}}}

	user := NewWorkspace(sessionFor(5, "", "USER"), res, zerolog.Nop())
	got, err := user.Tasks(context.Background(), ScopeAuto, domain.TaskFilter{Search: "fix"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	got, err = user.Tasks(context.Background(), ScopeAuto, domain.TaskFilter{Status: domain.TaskToDo})
	require.NoError(t, err)
	require.Len(t, got, 1)

	lead := NewWorkspace(sessionFor(5, "", "TEAM_LEAD"), res, zerolog.Nop())
	got, err = lead.Tasks(context.Background(), ScopeAuto, domain.TaskFilter{ProjectID: 4})
	require.NoError(t, err)
	require.Len(t, got, 0, "project filter compares the task's project id")

	got, err = lead.Tasks(context.Background(), ScopeAuto, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestWorkspace_TeamsMine(t *testing.T) {
	teams := []domain.Team{
		{ID: 1, Members: []domain.UserProfile{{ID: 5}}},
		{ID: 2, MemberEmails: []string{"U@X.io"}},
		{ID: 3, MemberEmails: []string{"someone@x.io"}},
	}
	res := Resources{Teams: &stubTeamAPI{teams: teams}}

	user := NewWorkspace(sessionFor(5, "u@x.io", "USER"), res, zerolog.Nop())
	got, err := user.Teams(context.Background(), ScopeAuto)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	lead := NewWorkspace(sessionFor(5, "u@x.io", "TEAM_LEAD"), res, zerolog.Nop())
	got, err = lead.Teams(context.Background(), ScopeAuto)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestWorkspace_DashboardByRole(t *testing.T) {
	admin := &stubAdminAPI{}
	users := &stubUserAPI{
		AnalyticsFn: func(_ context.Context, id int64) (*domain.UserAnalytics, error) {
			return &domain.UserAnalytics{AssignedTasks: 4, CompletedTasks: 1}, nil
		},
	}
	res := Resources{Admin: admin, Users: users}

	d, err := NewWorkspace(sessionFor(1, "", "ADMIN"), res, zerolog.Nop()).Dashboard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.Admin)
	assert.Nil(t, d.User)

	d, err = NewWorkspace(sessionFor(1, "", "PROJECT_MANAGER"), res, zerolog.Nop()).Dashboard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.User)
	assert.InDelta(t, 0.25, d.User.CompletionRate(), 1e-9)
	assert.Equal(t, 1, admin.calls)

	_, err = NewWorkspace(sessionFor(1, "", "USER"), res, zerolog.Nop()).CompanyDashboard(context.Background())
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestWorkspace_RequiresCompanyScope(t *testing.T) {
	s := sessionFor(1, "", "ADMIN")
	s.CompanyID = nil
	w := NewWorkspace(s, Resources{Projects: &stubProjectAPI{}}, zerolog.Nop())

	_, err := w.Projects(context.Background(), ScopeAll)
	assert.True(t, errors.Is(err, domain.ErrNoCompanyScope))

	w = NewWorkspace(fixedSession{}, Resources{}, zerolog.Nop())
	_, err = w.Teams(context.Background(), ScopeAll)
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
}

func TestWorkspace_MutationsCheckPermissions(t *testing.T) {
	projects := &stubProjectAPI{}
	res := Resources{Projects: projects, Tasks: &stubTaskAPI{}, Teams: &stubTeamAPI{}, Admin: &stubAdminAPI{}}
	ctx := context.Background()

	lead := NewWorkspace(sessionFor(1, "", "TEAM_LEAD"), res, zerolog.Nop())
	_, err := lead.CreateProject(ctx, domain.ProjectInput{Name: "X"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Nil(t, projects.created)

	_, err = lead.CreateTask(ctx, domain.TaskInput{Title: "t", ProjectID: 1})
	assert.NoError(t, err)
	_, err = lead.AddTeamMember(ctx, domain.Invite{TeamID: 1, Email: "a@b.c"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	_, err = lead.ImportMembers(ctx, "users.csv", nil)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	pm := NewWorkspace(sessionFor(1, "", "PROJECT_MANAGER"), res, zerolog.Nop())
	p, err := pm.CreateProject(ctx, domain.ProjectInput{Name: "X"})
	require.NoError(t, err)
	assert.Equal(t, int64(99), p.ID)
	assert.True(t, pm.Can(domain.PermEditTeamMembers))
	assert.False(t, pm.Can(domain.PermManageMembers))
}

func TestWorkspace_UpdateTaskPermissions(t *testing.T) {
	ctx := context.Background()
	tasks := &stubTaskAPI{byID: map[int64]domain.Task{
		4: {ID: 4, Title: "Ship", Status: domain.TaskToDo, Priority: domain.PriorityLow,
			Project: &domain.Project{ID: 2}, AssigneeID: int64p(5)},
	}}
	res := Resources{Tasks: tasks}
	setStatus := func(in *domain.TaskInput) { in.Status = domain.TaskDone }
	setPriority := func(in *domain.TaskInput) { in.Priority = domain.PriorityHigh }

	assignee := NewWorkspace(sessionFor(5, "", "USER"), res, zerolog.Nop())
	got, err := assignee.UpdateTask(ctx, 4, setStatus)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, got.Status)
	require.NotNil(t, tasks.updated)
	assert.Equal(t, "Ship", tasks.updated.Title)
	assert.Equal(t, int64(2), tasks.updated.ProjectID)

	tasks.updated = nil
	_, err = assignee.UpdateTask(ctx, 4, setPriority)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Nil(t, tasks.updated)

	stranger := NewWorkspace(sessionFor(6, "", "PROJECT_MANAGER"), res, zerolog.Nop())
	_, err = stranger.UpdateTask(ctx, 4, setStatus)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	admin := NewWorkspace(sessionFor(1, "", "ADMIN"), res, zerolog.Nop())
	got, err = admin.UpdateTask(ctx, 4, setPriority)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, got.Priority)

	_, err = admin.UpdateTask(ctx, 99, setStatus)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"": ScopeAuto, "auto": ScopeAuto, "MINE": ScopeMine, "all": ScopeAll} {
		got, err := ParseScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseScope("team")
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
