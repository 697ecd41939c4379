package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func newNotificationsCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notification", "inbox"},
		Short:   "Read and dismiss notifications",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List unread notifications",
			Args:  cobra.NoArgs,
			RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
				if err := a.Feed.Fetch(cmd.Context(), ""); err != nil {
					return err
				}
				return printNotifications(s.printer, a.Feed.Items())
			}),
		},
		&cobra.Command{
			Use:   "read ID",
			Short: "Mark one notification as read",
			Args:  cobra.ExactArgs(1),
			RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := a.Feed.MarkAsRead(cmd.Context(), id, ""); err != nil {
					return err
				}
				return s.printer.Message("Marked notification %d as read", id)
			}),
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification as read",
			Args:  cobra.NoArgs,
			RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
				u, err := a.Auth.Current()
				if err != nil {
					return err
				}
				if err := a.Feed.MarkAllAsRead(cmd.Context(), u.ID, ""); err != nil {
					return err
				}
				return s.printer.Message("Marked all notifications as read")
			}),
		},
	)
	return cmd
}

func printNotifications(p *Printer, items []domain.Notification) error {
	return p.Result(items, []string{"ID", "TYPE", "CREATED", "MESSAGE"}, func() [][]string {
		rows := make([][]string, 0, len(items))
		for _, n := range items {
			rows = append(rows, []string{fmt.Sprint(n.ID), orDash(string(n.Type)), orDash(n.CreatedAt.String()), n.Text()})
		}
		return rows
	})
}
