package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/service"
)

func newProjectsCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and manage projects",
	}
	cmd.AddCommand(
		newProjectsListCommand(s),
		newProjectsShowCommand(s),
		newProjectsCreateCommand(s),
		newProjectsStatusCommand(s),
		newProjectsDeleteCommand(s),
	)
	return cmd
}

func newProjectsListCommand(s *state) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			sc, err := service.ParseScope(scope)
			if err != nil {
				return err
			}
			projects, err := a.Workspace.Projects(cmd.Context(), sc)
			if err != nil {
				return err
			}
			return s.printer.Result(projects, []string{"ID", "NAME", "STATUS", "START", "END", "MEMBERS", "TASKS"}, func() [][]string {
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						fmt.Sprint(p.ID), p.Name, string(p.Status),
						orDash(p.StartDate.String()), orDash(p.EndDate.String()),
						fmt.Sprint(p.MemberCount), fmt.Sprint(p.TaskCount),
					})
				}
				return rows
			})
		}),
	}
	cmd.Flags().StringVar(&scope, "scope", "auto", "auto, mine or all")
	return cmd
}

func newProjectsShowCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.Workspace.Project(cmd.Context(), id)
			if err != nil {
				return err
			}
			return s.printer.Fields(p, projectFields(p))
		}),
	}
}

func newProjectsCreateCommand(s *state) *cobra.Command {
	var (
		in                 domain.ProjectInput
		status             string
		startDate, endDate string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			var err error
			if in.StartDate, err = optionalDate(startDate); err != nil {
				return err
			}
			if in.EndDate, err = optionalDate(endDate); err != nil {
				return err
			}
			if status != "" {
				if in.Status, err = domain.ParseProjectStatus(status); err != nil {
					return err
				}
			}
			p, err := a.Workspace.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(p, projectFields(p))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "project name")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	f.StringVar(&status, "status", "", "initial status")
	f.Int64Var(&in.TeamID, "team", 0, "owning team id")
	return cmd
}

func newProjectsStatusCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change a project's status",
		Args:  cobra.ExactArgs(2),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := domain.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			p, err := a.Workspace.SetProjectStatus(cmd.Context(), id, st)
			if err != nil {
				return err
			}
			return s.printer.Fields(p, projectFields(p))
		}),
	}
}

func newProjectsDeleteCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Workspace.DeleteProject(cmd.Context(), id); err != nil {
				return err
			}
			return s.printer.Message("Deleted project %d", id)
		}),
	}
}

func projectFields(p *domain.Project) [][2]string {
	team := "-"
	if p.Team != nil {
		team = fmt.Sprintf("%s (%d)", p.Team.Name, p.Team.ID)
	}
	creator := "-"
	if p.CreatedBy != nil {
		creator = p.CreatedBy.Username
	}
	return [][2]string{
		{"ID", fmt.Sprint(p.ID)},
		{"Name", p.Name},
		{"Description", orDash(p.Description)},
		{"Status", string(p.Status)},
		{"Start", orDash(p.StartDate.String())},
		{"End", orDash(p.EndDate.String())},
		{"Team", team},
		{"Created by", creator},
		{"Members", fmt.Sprint(p.MemberCount)},
		{"Tasks", fmt.Sprint(p.TaskCount)},
	}
}

func optionalDate(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	return domain.ParseDate(s)
}
