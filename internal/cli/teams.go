package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/service"
)

func newTeamsCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "teams",
		Aliases: []string{"team"},
		Short:   "List and manage teams",
	}
	cmd.AddCommand(
		newTeamsListCommand(s),
		newTeamsShowCommand(s),
		newTeamsCreateCommand(s),
		newTeamsMembersCommand(s),
		newTeamsInviteCommand(s),
		newTeamsRemoveCommand(s),
	)
	return cmd
}

func newTeamsListCommand(s *state) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			sc, err := service.ParseScope(scope)
			if err != nil {
				return err
			}
			teams, err := a.Workspace.Teams(cmd.Context(), sc)
			if err != nil {
				return err
			}
			return s.printer.Result(teams, []string{"ID", "NAME", "MEMBERS", "DESCRIPTION"}, func() [][]string {
				rows := make([][]string, 0, len(teams))
				for _, t := range teams {
					rows = append(rows, []string{fmt.Sprint(t.ID), t.Name, fmt.Sprint(t.MemberCount()), orDash(t.Description)})
				}
				return rows
			})
		}),
	}
	cmd.Flags().StringVar(&scope, "scope", "auto", "auto, mine or all")
	return cmd
}

func newTeamsShowCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one team",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := a.Workspace.Team(cmd.Context(), id)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, teamFields(t))
		}),
	}
}

func newTeamsCreateCommand(s *state) *cobra.Command {
	var in domain.TeamInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a team",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			t, err := a.Workspace.CreateTeam(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, teamFields(t))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "team name")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringSliceVar(&in.MemberEmails, "member", nil, "member email, repeatable")
	return cmd
}

func newTeamsMembersCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "members ID",
		Short: "List the members of a team",
		Args:  cobra.ExactArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			members, err := a.Workspace.TeamMembers(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printProfiles(s.printer, members)
		}),
	}
}

func newTeamsInviteCommand(s *state) *cobra.Command {
	var (
		role string
		from string
	)
	cmd := &cobra.Command{
		Use:   "invite [TEAM_ID EMAIL...]",
		Short: "Add members to teams by email",
		Long: "Add members to teams by email. With --from, invites are read from a CSV\n" +
			"file of team_id,email[,role] rows; \"-\" reads standard input.",
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			invites, err := collectInvites(s.env.In, args, role, from)
			if err != nil {
				return err
			}
			results := a.Invites.Run(cmd.Context(), invites)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if err := s.printer.Result(results, []string{"TEAM", "EMAIL", "RESULT"}, func() [][]string {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					outcome := "added"
					if r.Err != nil {
						outcome = r.Error
					}
					rows = append(rows, []string{fmt.Sprint(r.TeamID), r.Email, outcome})
				}
				return rows
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d invites failed", failed, len(results))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&role, "role", "", "role to grant the invited members")
	cmd.Flags().StringVar(&from, "from", "", "CSV file of invites")
	return cmd
}

func collectInvites(stdin io.Reader, args []string, role, from string) ([]domain.Invite, error) {
	var invites []domain.Invite
	if len(args) > 0 {
		if len(args) < 2 {
			return nil, errors.New("invite needs a team id and at least one email")
		}
		teamID, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		r, err := optionalRole(role)
		if err != nil {
			return nil, err
		}
		for _, email := range args[1:] {
			invites = append(invites, domain.Invite{TeamID: teamID, Email: email, Role: r})
		}
	}
	if from != "" {
		in := stdin
		if from != "-" {
			f, err := os.Open(from)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			in = f
		}
		rows, err := readInvites(in, role)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", from, err)
		}
		invites = append(invites, rows...)
	}
	if len(invites) == 0 {
		return nil, errors.New("nothing to invite")
	}
	return invites, nil
}

// readInvites parses team_id,email[,role] rows. A first row whose team id
// is not a number is taken as a header.
func readInvites(r io.Reader, defaultRole string) ([]domain.Invite, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	var out []domain.Invite
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want team_id,email[,role]", i+1)
		}
		teamID, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid team id %q", i+1, rec[0])
		}
		name := defaultRole
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			name = rec[2]
		}
		role, err := optionalRole(name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, domain.Invite{TeamID: teamID, Email: strings.TrimSpace(rec[1]), Role: role})
	}
	return out, nil
}

func optionalRole(s string) (domain.Role, error) {
	if s == "" {
		return domain.NoRole, nil
	}
	return domain.ParseRole(s)
}

func newTeamsRemoveCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TEAM_ID USER_ID",
		Short: "Remove a member from a team",
		Args:  cobra.ExactArgs(2),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			teamID, err := parseID(args[0])
			if err != nil {
				return err
			}
			userID, err := parseID(args[1])
			if err != nil {
				return err
			}
			t, err := a.Workspace.RemoveTeamMember(cmd.Context(), teamID, userID)
			if err != nil {
				return err
			}
			return s.printer.Fields(t, teamFields(t))
		}),
	}
}

func teamFields(t *domain.Team) [][2]string {
	return [][2]string{
		{"ID", fmt.Sprint(t.ID)},
		{"Name", t.Name},
		{"Description", orDash(t.Description)},
		{"Members", fmt.Sprint(t.MemberCount())},
		{"Emails", orDash(strings.Join(t.MemberEmails, ", "))},
	}
}
