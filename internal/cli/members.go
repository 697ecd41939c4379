package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func newMembersCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member", "users"},
		Short:   "List and manage company members",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the members of your company",
			Args:  cobra.NoArgs,
			RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
				members, err := a.Workspace.Members(cmd.Context())
				if err != nil {
					return err
				}
				return printProfiles(s.printer, members)
			}),
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Show one member",
			Args:  cobra.ExactArgs(1),
			RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				u, err := a.Workspace.Member(cmd.Context(), id)
				if err != nil {
					return err
				}
				return s.printer.Fields(u, profileFields(u))
			}),
		},
		&cobra.Command{
			Use:   "roles ID ROLE...",
			Short: "Replace a member's roles",
			Args:  cobra.MinimumNArgs(2),
			RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				u, err := a.Auth.UpdateRoles(cmd.Context(), id, args[1:])
				if err != nil {
					return err
				}
				return s.printer.Fields(u, profileFields(u))
			}),
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Create members from a spreadsheet",
			Args:  cobra.ExactArgs(1),
			RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				msg, err := a.Workspace.ImportMembers(cmd.Context(), filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				return s.printer.Message("%s", orDash(msg))
			}),
		},
	)
	return cmd
}

func printProfiles(p *Printer, users []domain.UserProfile) error {
	return p.Result(users, []string{"ID", "USERNAME", "EMAIL", "ROLE", "ROLES"}, func() [][]string {
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{
				fmt.Sprint(u.ID), u.Username, u.Email,
				u.HighestRole().DisplayName(), strings.Join(u.Roles.Strings(), ","),
			})
		}
		return rows
	})
}
