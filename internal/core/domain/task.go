package domain

import (
	"fmt"
	"strings"
)

type TaskStatus string

const (
	TaskToDo       TaskStatus = "TO_DO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskReview     TaskStatus = "REVIEW"
	TaskDone       TaskStatus = "DONE"
)

var TaskStatuses = []TaskStatus{TaskToDo, TaskInProgress, TaskReview, TaskDone}

func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range TaskStatuses {
		if strings.EqualFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown task status %q", ErrValidation, s)
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func ParseTaskPriority(s string) (TaskPriority, error) {
	for _, p := range TaskPriorities {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown task priority %q", ErrValidation, s)
}

// Task mirrors the server's task DTO.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CreatedAt   Timestamp    `json:"createdAt"`
	DueDate     Date         `json:"dueDate"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Project     *Project     `json:"project,omitempty"`
	AssigneeID  *int64       `json:"assigneeId,omitempty"`
	CreatorID   *int64       `json:"creatorId,omitempty"`
	CompanyID   *int64       `json:"companyId,omitempty"`
}

// Involves reports whether the task is assigned to or created by the user.
func (t Task) Involves(userID int64) bool {
	return (t.AssigneeID != nil && *t.AssigneeID == userID) ||
		(t.CreatorID != nil && *t.CreatorID == userID)
}

// ProjectID is the id of the owning project, zero when absent.
func (t Task) ProjectID() int64 {
	if t.Project == nil {
		return 0
	}
	return t.Project.ID
}

// Input is the update body that leaves t unchanged.
func (t Task) Input() TaskInput {
	return TaskInput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectID:   t.ProjectID(),
		AssigneeID:  t.AssigneeID,
	}
}

// TaskInput is the body of task create and update calls.
type TaskInput struct {
	ID          int64        `json:"id,omitempty"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description,omitempty" validate:"max=5000"`
	DueDate     Date         `json:"dueDate"`
	Status      TaskStatus   `json:"status,omitempty" validate:"omitempty,oneof=TO_DO IN_PROGRESS REVIEW DONE"`
	Priority    TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	ProjectID   int64        `json:"projectId" validate:"gt=0"`
	AssigneeID  *int64       `json:"assigneeId,omitempty"`
}

// TaskFilter narrows a task list the way the task page does.
type TaskFilter struct {
	ProjectID int64
	Status    TaskStatus
	Priority  TaskPriority
	Search    string
}

// Match reports whether t passes every set criterion. Search is a
// case-insensitive substring match on the title.
func (f TaskFilter) Match(t Task) bool {
	if f.ProjectID != 0 && t.ProjectID() != f.ProjectID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// TaskElaboration is the AI breakdown of a task.
type TaskElaboration struct {
	ElaboratedTask string   `json:"elaboratedTask"`
	Steps          []string `json:"steps"`
}
