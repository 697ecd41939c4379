package domain

import "fmt"

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

var ProjectStatuses = []ProjectStatus{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled}

func ParseProjectStatus(s string) (ProjectStatus, error) {
	for _, st := range ProjectStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown project status %q", ErrValidation, s)
}

// Project mirrors the server's project DTO.
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	StartDate   Date          `json:"startDate"`
	EndDate     Date          `json:"endDate"`
	Status      ProjectStatus `json:"status"`
	CreatedBy   *UserProfile  `json:"createdBy,omitempty"`
	Team        *Team         `json:"team,omitempty"`
	MemberCount int           `json:"memberCount"`
	Members     []UserProfile `json:"members,omitempty"`
	TaskCount   int           `json:"taskCount"`
}

// Involves reports whether the user created the project or is listed on it.
func (p Project) Involves(userID int64) bool {
	if p.CreatedBy != nil && p.CreatedBy.ID == userID {
		return true
	}
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return p.Team != nil && p.Team.HasMember(userID, "")
}

// ProjectInput is the body of create and update calls.
type ProjectInput struct {
	ID          int64         `json:"id,omitempty"`
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description,omitempty" validate:"max=2000"`
	StartDate   Date          `json:"startDate"`
	EndDate     Date          `json:"endDate"`
	Status      ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	TeamID      int64         `json:"teamId,omitempty" validate:"gte=0"`
}
