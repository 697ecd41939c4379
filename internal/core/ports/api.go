package ports

import (
	"context"
	"io"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type AuthAPI interface {
	Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error)
	Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error)
	RegisterCompany(ctx context.Context, in domain.RegisterCompanyInput) (*domain.AuthResult, error)
	Refresh(ctx context.Context) (string, error)
	SessionRevoker
}

type UserAPI interface {
	ListByCompany(ctx context.Context, companyID int64) ([]domain.UserProfile, error)
	Get(ctx context.Context, id int64) (*domain.UserProfile, error)
	Update(ctx context.Context, id int64, in domain.ProfileInput) (*domain.UserProfile, error)
	UpdateRoles(ctx context.Context, id int64, roles []domain.Role) (*domain.UserProfile, error)
	ChangePassword(ctx context.Context, id int64, in domain.PasswordInput) error
	Analytics(ctx context.Context, companyID int64) (*domain.UserAnalytics, error)
	UploadProfileImage(ctx context.Context, filename string, r io.Reader) (*domain.UserProfile, error)
	DeleteProfileImage(ctx context.Context) error
}

type TeamAPI interface {
	List(ctx context.Context) ([]domain.Team, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Team, error)
	Get(ctx context.Context, id int64) (*domain.Team, error)
	Create(ctx context.Context, in domain.TeamInput) (*domain.Team, error)
	Members(ctx context.Context, teamID int64) ([]domain.UserProfile, error)
	AddMember(ctx context.Context, in domain.Invite) (*domain.Team, error)
	RemoveMember(ctx context.Context, teamID, userID int64) (*domain.Team, error)
}

type ProjectAPI interface {
	List(ctx context.Context) ([]domain.Project, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Project, error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	Update(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProjectStatus) (*domain.Project, error)
	Delete(ctx context.Context, id int64) error
}

type TaskAPI interface {
	List(ctx context.Context) ([]domain.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Create(ctx context.Context, in domain.TaskInput) (*domain.Task, error)
	Update(ctx context.Context, id int64, in domain.TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
	Elaborate(ctx context.Context, id int64) (*domain.TaskElaboration, error)
}

type CompanyAPI interface {
	Get(ctx context.Context, id int64) (*domain.Company, error)
}

type AdminAPI interface {
	Analytics(ctx context.Context, companyID int64) (*domain.AdminAnalytics, error)
	ImportUsers(ctx context.Context, filename string, r io.Reader) (string, error)
}

// NotificationAPI takes the bearer explicitly; an empty token falls back to
// the session's current one.
type NotificationAPI interface {
	List(ctx context.Context, token string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id int64, token string) error
	MarkAllAsRead(ctx context.Context, userID int64, token string) error
}
