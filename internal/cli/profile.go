package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func newProfileCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your own profile",
	}
	cmd.AddCommand(
		newProfileUpdateCommand(s),
		newProfilePasswordCommand(s),
		newProfileImageCommand(s),
	)
	return cmd
}

func newProfileUpdateCommand(s *state) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your username or email",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			cur, err := a.Auth.Current()
			if err != nil {
				return err
			}
			in := domain.ProfileInput{Username: cur.Username, Email: cur.Email}
			if cmd.Flags().Changed("username") {
				in.Username = username
			}
			if cmd.Flags().Changed("email") {
				in.Email = email
			}
			u, err := a.Auth.UpdateProfile(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.printer.Fields(u, profileFields(u))
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	return cmd
}

func newProfilePasswordCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: s.withApp(func(cmd *cobra.Command, _ []string, a *App) error {
			var in domain.PasswordInput
			var err error
			if in.CurrentPassword, err = s.prompt.Password("Current password"); err != nil {
				return err
			}
			if in.NewPassword, err = s.prompt.Password("New password"); err != nil {
				return err
			}
			confirm, err := s.prompt.Password("Repeat new password")
			if err != nil {
				return err
			}
			if confirm != in.NewPassword {
				return errors.New("passwords do not match")
			}
			if err := a.Auth.ChangePassword(cmd.Context(), in); err != nil {
				return err
			}
			return s.printer.Message("Password changed")
		}),
	}
}

func newProfileImageCommand(s *state) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "image [FILE]",
		Short: "Upload or delete your profile picture",
		Args:  cobra.MaximumNArgs(1),
		RunE: s.withApp(func(cmd *cobra.Command, args []string, a *App) error {
			var (
				u   *domain.UserProfile
				err error
			)
			switch {
			case remove:
				u, err = a.Auth.DeleteProfileImage(cmd.Context())
			case len(args) == 1:
				var f *os.File
				if f, err = os.Open(args[0]); err != nil {
					return err
				}
				defer f.Close()
				u, err = a.Auth.UploadProfileImage(cmd.Context(), filepath.Base(args[0]), f)
			default:
				return errors.New("give an image file or --delete")
			}
			if err != nil {
				return err
			}
			return s.printer.Fields(u, append(profileFields(u), [2]string{"Image", orDash(u.ProfileImageURL)}))
		}),
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the current picture")
	return cmd
}
