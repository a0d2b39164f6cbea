package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/library-gateway/internal/domain"
	"github.com/spec-kit/library-gateway/internal/session"
)

func newLoginCommand(factory SessionFactory) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Sign in with email and password",
		Example: `  perpusctl login --email siswa@sekolah.sch.id --password rahasia`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, factory, func(ctx context.Context, coordinator *session.Coordinator) error {
				identity, err := coordinator.Login(ctx, email, password)
				if err != nil {
					return fmt.Errorf("login failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", identity.Name, identity.Role)
				fmt.Fprintf(cmd.OutOrStdout(), "Home: %s\n", identity.Role.HomePath())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand(factory SessionFactory) *cobra.Command {
	var registration domain.Registration

	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Open a student account and sign in",
		Example: `  perpusctl register --name "Siti Aminah" --email siswa@sekolah.sch.id --password rahasia --student-number 2024001`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, factory, func(ctx context.Context, coordinator *session.Coordinator) error {
				identity, err := coordinator.Register(ctx, registration)
				if err != nil {
					return fmt.Errorf("registration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s (%s)\n", identity.Name, identity.Role)
				fmt.Fprintf(cmd.OutOrStdout(), "Home: %s\n", identity.Role.HomePath())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&registration.Name, "name", "", "full name")
	cmd.Flags().StringVar(&registration.Email, "email", "", "account email")
	cmd.Flags().StringVar(&registration.Password, "password", "", "account password")
	cmd.Flags().StringVar(&registration.StudentNumber, "student-number", "", "student number (NIS)")
	cmd.Flags().StringVar(&registration.Phone, "phone", "", "phone number")
	for _, name := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLogoutCommand(factory SessionFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, factory, func(ctx context.Context, coordinator *session.Coordinator) error {
				err := coordinator.Logout(ctx)
				if coordinator.Snapshot().State() != session.StateAnonymous {
					return fmt.Errorf("logout failed: %w", err)
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCommand(factory SessionFactory) *cobra.Command {
	var refresh, asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, factory, func(ctx context.Context, coordinator *session.Coordinator) error {
				snap := coordinator.Bootstrap(ctx)
				if refresh && snap.Identity != nil {
					snap = coordinator.Refresh(ctx)
				}
				if snap.Identity == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
					return nil
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(snap.Identity)
				}
				printIdentity(cmd.OutOrStdout(), snap.Identity)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-fetch the identity from the server")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the identity as JSON")
	return cmd
}

func newStatusCommand(factory SessionFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, factory, func(ctx context.Context, coordinator *session.Coordinator) error {
				snap := coordinator.Bootstrap(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", snap.State())
				if snap.Identity != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "User:  %s <%s>\n", snap.Identity.Name, snap.Identity.Email)
					fmt.Fprintf(cmd.OutOrStdout(), "Home:  %s\n", snap.Identity.Role.HomePath())
				}
				return nil
			})
		},
	}
}
