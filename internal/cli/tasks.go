package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/service"
)

func newTasksCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and manage tasks",
	}
	cmd.AddCommand(
		newTasksListCommand(s),
		newTasksShowCommand(s),
		newTasksCreateCommand(s),
		newTasksUpdateCommand(s),
		newTasksDeleteCommand(s),
		newTasksElaborateCommand(s),
	)
	return cmd
}

func newTasksListCommand(s *state) *cobra.Command {
	var (
		scope, status, priority string
		filter                  domain.TaskFilter
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			sc, err := service.ParseScope(scope)
			if err != nil {
				return err
			}
			if status != "" {
				if filter.Status, err = domain.ParseTaskStatus(status); err != nil {
					return err
				}
			}
			if priority != "" {
				if filter.Priority, err = domain.ParseTaskPriority(priority); err != nil {
					return err
				}
			}
			tasks, err := a.Workspace.Tasks(cmd.Context(), sc, filter)
			if err != nil {
				return err
			}
			return s.printer.Result(tasks, []string{"ID", "TITLE", "STATUS", "PRIORITY", "DUE", "PROJECT", "ASSIGNEE"}, func() [][]string {
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					project := "-"
					if t.Project != nil {
						project = t.Project.Name
					}
					rows = append(rows, []string{
						fmt.Sprint(t.ID), t.Title, string(t.Status), string(t.Priority),
						orDash(t.DueDate.String()), project, idOrDash(t.AssigneeID),
					})
				}
				return rows
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&scope, "scope", "auto", "auto, mine or all")
	f.Int64Var(&filter.ProjectID, "project", 0, "only tasks of this project")
	f.StringVar(&status, "status", "", "only tasks with this status")
	f.StringVar(&priority, "priority", "", "only tasks with this priority")
	f.StringVar(&filter.Search, "search", "", "title contains")
	return cmd
}

func newTasksShowCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := a.Workspace.Task(cmd.Context(), id)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, taskFields(t))
		}),
	}
}

// taskFlags holds the editable task fields shared by create and update.
type taskFlags struct {
	title, description, due, status, priority string
	project, assignee                         int64
}

func (tf *taskFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&tf.title, "title", "", "title")
	f.StringVar(&tf.description, "description", "", "description")
	f.StringVar(&tf.due, "due", "", "due date (YYYY-MM-DD)")
	f.StringVar(&tf.status, "status", "", "TO_DO, IN_PROGRESS, REVIEW or DONE")
	f.StringVar(&tf.priority, "priority", "", "LOW, MEDIUM or HIGH")
	f.Int64Var(&tf.project, "project", 0, "project id")
	f.Int64Var(&tf.assignee, "assignee", 0, "assignee user id, 0 to unassign")
}

// changes parses the flags the user set and returns a setter that copies
// them onto a task body.
func (tf *taskFlags) changes(cmd *cobra.Command) (func(*domain.TaskInput), error) {
	changed := cmd.Flags().Changed
	var (
		due      domain.Date
		status   domain.TaskStatus
		priority domain.TaskPriority
		err      error
	)
	if changed("due") {
		if due, err = optionalDate(tf.due); err != nil {
			return nil, err
		}
	}
	if changed("status") {
		if status, err = domain.ParseTaskStatus(tf.status); err != nil {
			return nil, err
		}
	}
	if changed("priority") {
		if priority, err = domain.ParseTaskPriority(tf.priority); err != nil {
			return nil, err
		}
	}
	return func(in *domain.TaskInput) {
		if changed("title") {
			in.Title = tf.title
		}
		if changed("description") {
			in.Description = tf.description
		}
		if changed("due") {
			in.DueDate = due
		}
		if changed("status") {
			in.Status = status
		}
		if changed("priority") {
			in.Priority = priority
		}
		if changed("project") {
			in.ProjectID = tf.project
		}
		if changed("assignee") {
			in.AssigneeID = nil
			if tf.assignee > 0 {
				id := tf.assignee
				in.AssigneeID = &id
			}
		}
	}, nil
}

func newTasksCreateCommand(s *state) *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			apply, err := tf.changes(cmd)
			if err != nil {
				return err
			}
			in := domain.TaskInput{Status: domain.TaskToDo, Priority: domain.PriorityMedium}
			apply(&in)
			t, err := a.Workspace.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, taskFields(t))
		}),
	}
	tf.register(cmd)
	return cmd
}

func newTasksUpdateCommand(s *state) *cobra.Command {
	var tf taskFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a task; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			apply, err := tf.changes(cmd)
			if err != nil {
				return err
			}
			t, err := a.Workspace.UpdateTask(cmd.Context(), id, apply)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, taskFields(t))
		}),
	}
	tf.register(cmd)
	return cmd
}

func newTasksDeleteCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Workspace.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			return s.printer.Message("Deleted task %d", id)
		}),
	}
}

func newTasksElaborateCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "elaborate ID",
		Short: "Ask the server to break a task down into steps",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			el, err := a.Workspace.ElaborateTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			return s.printer.Result(el, nil, func() [][]string {
				rows := [][]string{{el.ElaboratedTask}}
				for i, step := range el.Steps {
					rows = append(rows, []string{fmt.Sprintf("%d. %s", i+1, step)})
				}
				return rows
			})
		}),
	}
}

func taskFields(t *domain.Task) [][2]string {
	project := "-"
	if t.Project != nil {
		project = fmt.Sprintf("%s (%d)", t.Project.Name, t.Project.ID)
	}
	return [][2]string{
		{"ID", fmt.Sprint(t.ID)},
		{"Title", t.Title},
		{"Description", orDash(t.Description)},
		{"Status", string(t.Status)},
		{"Priority", string(t.Priority)},
		{"Due", orDash(t.DueDate.String())},
		{"Project", project},
		{"Assignee", idOrDash(t.AssigneeID)},
		{"Created", orDash(t.CreatedAt.String())},
	}
}
