package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxseedlab/firassist/external/web"
	"github.com/foxseedlab/firassist/internal/discordbot"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

const (
	discordConnectTimeout = 20 * time.Second
	shutdownTimeout       = 30 * time.Second
)

func newServeCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web surface and, when configured, the Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runServe(cmd.Context())
		},
	}
}

func (a *appState) runServe(ctx context.Context) error {
	cfg, err := a.boot()
	if err != nil {
		return err
	}
	defer a.syncLogger()

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	server, err := do.Invoke[*web.Server](injector)
	if err != nil {
		return fmt.Errorf("resolve web server: %w", err)
	}

	var bot *discordbot.Bot
	if cfg.DiscordEnabled() {
		bot, err = startBot(ctx, injector)
		if err != nil {
			return multierror.Append(err, shutdownInjector(injector)).ErrorOrNil()
		}
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Listen()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-sigCtx.Done():
		slog.Info("shutting down")
	case err := <-serverDone:
		if err != nil {
			slog.Error("http server stopped", "error", err)
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	if err := shutdown(injector, server, bot); err != nil {
		slog.Error("shutdown finished with errors", "error", err)
		return multierror.Append(runErr, err).ErrorOrNil()
	}
	slog.Info("shutdown complete")
	return runErr
}

func startBot(ctx context.Context, injector do.Injector) (*discordbot.Bot, error) {
	bot, err := do.Invoke[*discordbot.Bot](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve discord bot: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := bot.Start(connectCtx); err != nil {
		return nil, err
	}
	slog.Info("startup: discord connected")
	return bot, nil
}

// shutdown stops the surfaces first so no new work arrives, then the listening sessions, then
// waits for archive deliveries before the injector closes the collaborators.
func shutdown(injector do.Injector, server *web.Server, bot *discordbot.Bot) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs *multierror.Error
	if err := server.Stop(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stop http server: %w", err))
	}
	if bot != nil {
		if err := bot.Stop(ctx); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("stop discord bot: %w", err))
		}
	}

	manager := do.MustInvoke[*listening.Manager](injector)
	stopped, err := manager.StopAll(ctx)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stop listening sessions: %w", err))
	}
	slog.Info("listening sessions stopped", "count", stopped)

	do.MustInvoke[*incident.Service](injector).Wait()

	if err := shutdownInjector(injector); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func shutdownInjector(injector do.Injector) error {
	if err := injector.Shutdown(); err != nil {
		return fmt.Errorf("shutdown dependencies: %w", err)
	}
	return nil
}
