package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func newLoginCommand(s *state) *cobra.Command {
	var in domain.LoginInput
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			var err error
			if in.Username, err = s.prompt.valueOr(in.Username, "Username", false); err != nil {
				return err
			}
			if in.Password, err = s.prompt.valueOr(in.Password, "Password", true); err != nil {
				return err
			}
			u, err := a.Auth.Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(u, profileFields(u))
		}),
	}
	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCommand(s *state) *cobra.Command {
	var in domain.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account in an existing company",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			var err error
			if in.Password, err = s.prompt.valueOr(in.Password, "Password", true); err != nil {
				return err
			}
			u, err := a.Auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(u, profileFields(u))
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&in.Username, "username", "u", "", "username")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.JoinCode, "join-code", "", "company join code")
	f.StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCompanyCommand(s *state) *cobra.Command {
	var in domain.RegisterCompanyInput
	cmd := &cobra.Command{
		Use:   "register-company",
		Short: "Create a company together with its first admin",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			var err error
			if in.Admin.Password, err = s.prompt.valueOr(in.Admin.Password, "Admin password", true); err != nil {
				return err
			}
			u, err := a.Auth.RegisterCompany(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(u, profileFields(u))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.CompanyName, "name", "", "company name")
	f.StringVar(&in.Domain, "domain", "", "company domain")
	f.StringVar(&in.Admin.Name, "admin-name", "", "admin username")
	f.StringVar(&in.Admin.Email, "admin-email", "", "admin email address")
	f.StringVar(&in.Admin.Password, "admin-password", "", "admin password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			a.Logout(cmd.Context())
			return s.printer.Message("Signed out")
		}),
	}
}

func newWhoamiCommand(s *state) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			u, err := a.Auth.Current()
			if err == nil && refresh {
				u, err = a.Auth.Reload(cmd.Context())
			}
			if err != nil {
				return err
			}
			return s.printer.Fields(u, profileFields(u))
		}),
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the server first")
	return cmd
}

func newCompanyCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "company",
		Short: "Show the company of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			c, err := a.Workspace.Company(cmd.Context())
			if err != nil {
				return err
			}
			return s.printer.Fields(c, [][2]string{
				{"ID", fmt.Sprint(c.ID)},
				{"Name", c.Name},
				{"Domain", orDash(c.Domain)},
				{"Join code", orDash(c.JoinCode)},
				{"Created", orDash(c.Created.String())},
			})
		}),
	}
}

func newDashboardCommand(s *state) *cobra.Command {
	var company bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the dashboard for your role",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			if company {
				an, err := a.Workspace.CompanyDashboard(cmd.Context())
				if err != nil {
					return err
				}
				return s.printer.Fields(an, adminFields(an))
			}
			d, err := a.Workspace.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if d.Admin != nil {
				return s.printer.Fields(d, adminFields(d.Admin))
			}
			return s.printer.Fields(d, userFields(d.User))
		}),
	}
	cmd.Flags().BoolVar(&company, "company", false, "company-wide analytics (admins only)")
	return cmd
}

func profileFields(u *domain.UserProfile) [][2]string {
	return [][2]string{
		{"ID", fmt.Sprint(u.ID)},
		{"Username", u.Username},
		{"Email", u.Email},
		{"Role", u.HighestRole().DisplayName()},
		{"Roles", orDash(strings.Join(u.Roles.Strings(), ", "))},
		{"Company", idOrDash(u.CompanyID)},
	}
}

func adminFields(an *domain.AdminAnalytics) [][2]string {
	return [][2]string{
		{"Users", fmt.Sprint(an.TotalUsers)},
		{"Projects", fmt.Sprint(an.TotalProjects)},
		{"Teams", fmt.Sprint(an.TotalTeams)},
		{"Tasks", fmt.Sprint(an.TotalTasks)},
		{"Overdue tasks", fmt.Sprint(an.OverdueTasks)},
		{"Active last week", fmt.Sprint(an.ActiveUsersLastWeek)},
		{"Tasks by status", counts(an.TasksByStatus)},
		{"Projects by status", counts(an.ProjectsByStatus)},
	}
}

func userFields(u *domain.UserAnalytics) [][2]string {
	if u == nil {
		u = &domain.UserAnalytics{}
	}
	return [][2]string{
		{"Assigned tasks", fmt.Sprint(u.AssignedTasks)},
		{"Completed tasks", fmt.Sprint(u.CompletedTasks)},
		{"Completion", fmt.Sprintf("%.0f%%", u.CompletionRate()*100)},
		{"Overdue tasks", fmt.Sprint(u.OverdueTasks)},
		{"Projects", fmt.Sprintf("%d (%d active, %d completed)", u.TotalProjects, u.ActiveProjects, u.CompletedProjects)},
		{"Teams", fmt.Sprint(u.TotalTeams)},
		{"Tasks by status", counts(u.UserTasksByStatus)},
	}
}

// counts renders a status histogram in the fixed status order, then any
// statuses the client does not know.
func counts(m map[string]int64) string {
	if len(m) == 0 {
		return "-"
	}
	var parts []string
	seen := map[string]bool{}
	for _, st := range domain.TaskStatuses {
		seen[string(st)] = true
		if n, ok := m[string(st)]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", st, n))
		}
	}
	for _, st := range domain.ProjectStatuses {
		if seen[string(st)] {
			continue
		}
		seen[string(st)] = true
		if n, ok := m[string(st)]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", st, n))
		}
	}
	var rest []string
	for k, n := range m {
		if !seen[k] {
			rest = append(rest, fmt.Sprintf("%s=%d", k, n))
		}
	}
	sort.Strings(rest)
	return strings.Join(append(parts, rest...), " ")
}
