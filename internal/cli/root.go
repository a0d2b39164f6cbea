package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/library-gateway/internal/client"
	"github.com/spec-kit/library-gateway/internal/config"
	"github.com/spec-kit/library-gateway/internal/domain"
	"github.com/spec-kit/library-gateway/internal/events"
	"github.com/spec-kit/library-gateway/internal/observability"
	"github.com/spec-kit/library-gateway/internal/service"
	"github.com/spec-kit/library-gateway/internal/session"
)

// SessionFactory builds the coordinator a command runs against. The
// returned cleanup runs after the command.
type SessionFactory func(ctx context.Context) (*session.Coordinator, func(), error)

// NewRootCommand assembles perpusctl. A nil factory uses DefaultSessionFactory.
func NewRootCommand(factory SessionFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultSessionFactory
	}

	root := &cobra.Command{
		Use:           "perpusctl",
		Short:         "Sign in to the school library from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCommand(factory),
		newRegisterCommand(factory),
		newLogoutCommand(factory),
		newWhoamiCommand(factory),
		newStatusCommand(factory),
	)
	return root
}

// DefaultSessionFactory wires the coordinator to the credential file and
// the HTTP API described by the PERPUS_* environment.
func DefaultSessionFactory(_ context.Context) (*session.Coordinator, func(), error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewCLILogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	api := client.NewAuthAPI(client.Options{
		BaseURL:    cfg.APIURL,
		CookieName: cfg.CookieName,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	dispatcher := events.NewSessionBus()
	service.NewSessionAuditService(dispatcher, logger).RegisterHandlers()

	coordinator := session.NewCoordinator(session.Options{
		Store:      session.NewFileStore(cfg.CredentialFile),
		Identities: api,
		Issuer:     api,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	cleanup := func() { _ = logger.Sync() }
	return coordinator, cleanup, nil
}

// withSession runs fn against a freshly built coordinator.
func withSession(cmd *cobra.Command, factory SessionFactory, fn func(ctx context.Context, coordinator *session.Coordinator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	coordinator, cleanup, err := factory(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(ctx, coordinator)
}

func printIdentity(w io.Writer, identity *domain.Identity) {
	fmt.Fprintf(w, "Name:  %s\n", identity.Name)
	fmt.Fprintf(w, "Email: %s\n", identity.Email)
	fmt.Fprintf(w, "Role:  %s\n", identity.Role)
	if identity.StudentNumber != nil {
		fmt.Fprintf(w, "NIS:   %s\n", *identity.StudentNumber)
	}
	if identity.Phone != nil {
		fmt.Fprintf(w, "Phone: %s\n", *identity.Phone)
	}
	fmt.Fprintf(w, "Home:  %s\n", identity.Role.HomePath())
}
