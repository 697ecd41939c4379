package domain

// AdminAnalytics is the company-wide dashboard summary.
type AdminAnalytics struct {
	TotalUsers          int64            `json:"totalUsers"`
	TotalProjects       int64            `json:"totalProjects"`
	TotalTeams          int64            `json:"totalTeams"`
	TotalTasks          int64            `json:"totalTasks"`
	TasksByStatus       map[string]int64 `json:"tasksByStatus"`
	ProjectsByStatus    map[string]int64 `json:"projectsByStatus"`
	OverdueTasks        int64            `json:"overdueTasks"`
	ActiveUsersLastWeek int64            `json:"activeUsersLastWeek"`
}

// UserAnalytics is the personal dashboard summary.
type UserAnalytics struct {
	AssignedTasks     int64            `json:"assignedTasks"`
	CompletedTasks    int64            `json:"completedTasks"`
	OverdueTasks      int64            `json:"overdueTasks"`
	UserTasksByStatus map[string]int64 `json:"userTasksByStatus"`
	TotalProjects     int64            `json:"totalProjects"`
	ActiveProjects    int64            `json:"activeProjects"`
	CompletedProjects int64            `json:"completedProjects"`
	TotalTeams        int64            `json:"totalTeams"`
}

// CompletionRate is completed over assigned, zero when nothing is assigned.
func (u UserAnalytics) CompletionRate() float64 {
	if u.AssignedTasks == 0 {
		return 0
	}
	return float64(u.CompletedTasks) / float64(u.AssignedTasks)
}

// Dashboard holds whichever summary the signed-in user is entitled to.
type Dashboard struct {
	Admin *AdminAnalytics `json:"admin,omitempty"`
	User  *UserAnalytics  `json:"user,omitempty"`
}
