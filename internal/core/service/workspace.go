package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

// Scope selects between the user's own items and the whole company.
type Scope int

const (
	// ScopeAuto shows everything to users allowed to manage the list and
	// only their own items to everyone else.
	ScopeAuto Scope = iota
	ScopeMine
	ScopeAll
)

func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ScopeAuto, nil
	case "mine", "my":
		return ScopeMine, nil
	case "all":
		return ScopeAll, nil
	default:
		return ScopeAuto, fmt.Errorf("%w: unknown scope %q", domain.ErrValidation, s)
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeMine:
		return "mine"
	case ScopeAll:
		return "all"
	default:
		return "auto"
	}
}

// SessionReader is the read side of the session.
type SessionReader interface {
	Snapshot() domain.Session
}

// Resources bundles the REST clients the workspace reads from.
type Resources struct {
	Projects ports.ProjectAPI
	Tasks    ports.TaskAPI
	Teams    ports.TeamAPI
	Users    ports.UserAPI
	Company  ports.CompanyAPI
	Admin    ports.AdminAPI
}

// Workspace derives what the signed-in user sees: lists filtered by role,
// the dashboard matching their role, and the actions they are offered.
type Workspace struct {
	session SessionReader
	res     Resources
	log     zerolog.Logger
}

func NewWorkspace(session SessionReader, res Resources, log zerolog.Logger) *Workspace {
	return &Workspace{session: session, res: res, log: log}
}

type viewer struct {
	user    *domain.UserProfile
	company int64
}

func (w *Workspace) viewer() (viewer, error) {
	s := w.session.Snapshot()
	if !s.Authenticated() || s.User == nil {
		return viewer{}, domain.ErrNotAuthenticated
	}
	company, err := s.Company()
	if err != nil {
		return viewer{}, err
	}
	return viewer{user: s.User, company: company}, nil
}

func (v viewer) all(scope Scope, p domain.Permission) bool {
	switch scope {
	case ScopeAll:
		return true
	case ScopeMine:
		return false
	default:
		return v.user.Can(p)
	}
}

func (v viewer) require(p domain.Permission, action string) error {
	if !v.user.Can(p) {
		return fmt.Errorf("%s: %w: requires one of %v", action, domain.ErrForbidden, p.Roles())
	}
	return nil
}

func (w *Workspace) Company(ctx context.Context) (*domain.Company, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	return w.res.Company.Get(ctx, v.company)
}

func (w *Workspace) Projects(ctx context.Context, scope Scope) ([]domain.Project, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	projects, err := w.res.Projects.ListByCompany(ctx, v.company)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if v.all(scope, domain.PermManageProjects) {
		return projects, nil
	}
	return filter(projects, func(p domain.Project) bool { return p.Involves(v.user.ID) }), nil
}

func (w *Workspace) Tasks(ctx context.Context, scope Scope, f domain.TaskFilter) ([]domain.Task, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	var tasks []domain.Task
	if f.ProjectID != 0 {
		tasks, err = w.res.Tasks.ListByProject(ctx, f.ProjectID)
	} else {
		tasks, err = w.res.Tasks.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	mine := !v.all(scope, domain.PermCreateTasks)
	return filter(tasks, func(t domain.Task) bool {
		if t.CompanyID != nil && *t.CompanyID != v.company {
			return false
		}
		if mine && !t.Involves(v.user.ID) {
			return false
		}
		return f.Match(t)
	}), nil
}

func (w *Workspace) Teams(ctx context.Context, scope Scope) ([]domain.Team, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	teams, err := w.res.Teams.ListByCompany(ctx, v.company)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if v.all(scope, domain.PermManageTeams) {
		return teams, nil
	}
	return filter(teams, func(t domain.Team) bool { return t.HasMember(v.user.ID, v.user.Email) }), nil
}

func (w *Workspace) Project(ctx context.Context, id int64) (*domain.Project, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Projects.Get(ctx, id)
}

func (w *Workspace) Task(ctx context.Context, id int64) (*domain.Task, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Tasks.Get(ctx, id)
}

func (w *Workspace) Team(ctx context.Context, id int64) (*domain.Team, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Teams.Get(ctx, id)
}

func (w *Workspace) TeamMembers(ctx context.Context, teamID int64) ([]domain.UserProfile, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Teams.Members(ctx, teamID)
}

func (w *Workspace) Member(ctx context.Context, id int64) (*domain.UserProfile, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Users.Get(ctx, id)
}

func (w *Workspace) Members(ctx context.Context) ([]domain.UserProfile, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	members, err := w.res.Users.ListByCompany(ctx, v.company)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// Dashboard loads the company summary for users allowed to see it and the
// personal summary for everyone else.
func (w *Workspace) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	if v.user.Can(domain.PermViewCompanyAnalytics) {
		a, err := w.res.Admin.Analytics(ctx, v.company)
		if err != nil {
			return nil, fmt.Errorf("load dashboard: %w", err)
		}
		return &domain.Dashboard{Admin: a}, nil
	}
	u, err := w.res.Users.Analytics(ctx, v.company)
	if err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return &domain.Dashboard{User: u}, nil
}

// CompanyDashboard loads the company summary or fails with ErrForbidden.
func (w *Workspace) CompanyDashboard(ctx context.Context) (*domain.AdminAnalytics, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	if err := v.require(domain.PermViewCompanyAnalytics, "company dashboard"); err != nil {
		return nil, err
	}
	return w.res.Admin.Analytics(ctx, v.company)
}

func (w *Workspace) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := w.allowed(domain.PermManageProjects, "create project"); err != nil {
		return nil, err
	}
	return w.res.Projects.Create(ctx, in)
}

func (w *Workspace) SetProjectStatus(ctx context.Context, id int64, status domain.ProjectStatus) (*domain.Project, error) {
	if err := w.allowed(domain.PermManageProjects, "update project status"); err != nil {
		return nil, err
	}
	return w.res.Projects.UpdateStatus(ctx, id, status)
}

func (w *Workspace) DeleteProject(ctx context.Context, id int64) error {
	if err := w.allowed(domain.PermManageProjects, "delete project"); err != nil {
		return err
	}
	return w.res.Projects.Delete(ctx, id)
}

func (w *Workspace) CreateTask(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	if err := w.allowed(domain.PermCreateTasks, "create task"); err != nil {
		return nil, err
	}
	return w.res.Tasks.Create(ctx, in)
}

// UpdateTask applies in over the task's current state. The assignee may
// change a task; anyone else, and any priority change, needs
// PermEditAnyTask.
func (w *Workspace) UpdateTask(ctx context.Context, id int64, apply func(*domain.TaskInput)) (*domain.Task, error) {
	v, err := w.viewer()
	if err != nil {
		return nil, err
	}
	cur, err := w.res.Tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", id, err)
	}
	in := cur.Input()
	apply(&in)

	assignee := cur.AssigneeID != nil && *cur.AssigneeID == v.user.ID
	if !assignee || in.Priority != cur.Priority {
		if err := v.require(domain.PermEditAnyTask, "update task"); err != nil {
			return nil, err
		}
	}
	return w.res.Tasks.Update(ctx, id, in)
}

func (w *Workspace) DeleteTask(ctx context.Context, id int64) error {
	if err := w.allowed(domain.PermCreateTasks, "delete task"); err != nil {
		return err
	}
	return w.res.Tasks.Delete(ctx, id)
}

func (w *Workspace) ElaborateTask(ctx context.Context, id int64) (*domain.TaskElaboration, error) {
	if _, err := w.viewer(); err != nil {
		return nil, err
	}
	return w.res.Tasks.Elaborate(ctx, id)
}

func (w *Workspace) CreateTeam(ctx context.Context, in domain.TeamInput) (*domain.Team, error) {
	if err := w.allowed(domain.PermManageTeams, "create team"); err != nil {
		return nil, err
	}
	return w.res.Teams.Create(ctx, in)
}

func (w *Workspace) AddTeamMember(ctx context.Context, in domain.Invite) (*domain.Team, error) {
	if err := w.allowed(domain.PermEditTeamMembers, "add team member"); err != nil {
		return nil, err
	}
	return w.res.Teams.AddMember(ctx, in)
}

func (w *Workspace) RemoveTeamMember(ctx context.Context, teamID, userID int64) (*domain.Team, error) {
	if err := w.allowed(domain.PermEditTeamMembers, "remove team member"); err != nil {
		return nil, err
	}
	return w.res.Teams.RemoveMember(ctx, teamID, userID)
}

func (w *Workspace) ImportMembers(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := w.allowed(domain.PermManageMembers, "import members"); err != nil {
		return "", err
	}
	return w.res.Admin.ImportUsers(ctx, filename, r)
}

// Can reports whether the signed-in user is offered the action p.
func (w *Workspace) Can(p domain.Permission) bool {
	s := w.session.Snapshot()
	return s.User.Can(p)
}

func (w *Workspace) allowed(p domain.Permission, action string) error {
	v, err := w.viewer()
	if err != nil {
		return err
	}
	return v.require(p, action)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
