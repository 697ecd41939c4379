package domain

import (
	"errors"
	"testing"
)

func int64p(v int64) *int64 { return &v }

func TestTaskFilterMatch(t *testing.T) {
	task := Task{
		Title:    "Ship the Release Notes",
		Status:   TaskReview,
		Priority: PriorityHigh,
		Project:  &Project{ID: 4},
	}

	cases := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty filter", TaskFilter{}, true},
		{"project match", TaskFilter{ProjectID: 4}, true},
		{"project mismatch", TaskFilter{ProjectID: 5}, false},
		{"status", TaskFilter{Status: TaskReview}, true},
		{"wrong status", TaskFilter{Status: TaskDone}, false},
		{"priority", TaskFilter{Priority: PriorityLow}, false},
		{"search case insensitive", TaskFilter{Search: "release"}, true},
		{"search miss", TaskFilter{Search: "invoice"}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Match(task); got != tc.want {
			t.Fatalf("%s: Match = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseTaskStatus("in_progress"); err != nil || s != TaskInProgress {
		t.Fatalf("ParseTaskStatus: %v %v", s, err)
	}
	if _, err := ParseTaskStatus("BLOCKED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if p, err := ParseTaskPriority("low"); err != nil || p != PriorityLow {
		t.Fatalf("ParseTaskPriority: %v %v", p, err)
	}
	if _, err := ParseProjectStatus("active"); err == nil {
		t.Fatalf("project status is case sensitive")
	}
}

func TestInvolvement(t *testing.T) {
	p := Project{
		CreatedBy: &UserProfile{ID: 1},
		Members:   []UserProfile{{ID: 2}},
		Team:      &Team{Members: []UserProfile{{ID: 3, Email: "c@x.io"}}},
	}
	for _, id := range []int64{1, 2, 3} {
		if !p.Involves(id) {
			t.Fatalf("project should involve user %d", id)
		}
	}
	if p.Involves(4) {
		t.Fatalf("project should not involve user 4")
	}

	team := Team{MemberEmails: []string{"Dana@Example.com"}}
	if !team.HasMember(99, "dana@example.com") {
		t.Fatalf("email match should be case insensitive")
	}
	if team.HasMember(99, "") {
		t.Fatalf("empty email must not match")
	}

	task := Task{AssigneeID: int64p(8)}
	if !task.Involves(8) || task.Involves(9) {
		t.Fatalf("assignee involvement wrong")
	}
}
