package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	assistantimpl "github.com/foxseedlab/firassist/external/assistant"
	audioimpl "github.com/foxseedlab/firassist/external/audio"
	configloader "github.com/foxseedlab/firassist/external/config"
	"github.com/foxseedlab/firassist/external/discord"
	repositoryimpl "github.com/foxseedlab/firassist/external/repository"
	synthesizerimpl "github.com/foxseedlab/firassist/external/synthesizer"
	transcriberimpl "github.com/foxseedlab/firassist/external/transcriber"
	translatorimpl "github.com/foxseedlab/firassist/external/translator"
	"github.com/foxseedlab/firassist/external/web"
	webhookimpl "github.com/foxseedlab/firassist/external/webhook"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/discordbot"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/foxseedlab/firassist/internal/logging"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type appState struct {
	verbose  bool
	jsonLogs bool

	logger *zap.Logger
	out    io.Writer

	loadConfig func() (*config.Config, error)
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&appState{
		out:        os.Stdout,
		loadConfig: configloader.Load,
	})
}

func newRootCmdFor(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "firassist",
		Short:         "Voice and text assistant for filing first information reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runServe(cmd.Context())
		},
	}
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", false, "Enable debug logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", false, "Force JSON logs")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newLanguagesCmd(app))
	return cmd
}

// boot loads the configuration and installs the process logger. Flags only ever raise verbosity.
func (a *appState) boot() (*config.Config, error) {
	slog.Info("startup: loading configuration")
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Verbose: a.verbose || cfg.IsDevelopment(),
		JSON:    a.jsonLogs || cfg.LogJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger
	logging.InstallDefault(logger)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "discord_enabled", cfg.DiscordEnabled())
	return cfg, nil
}

func (a *appState) syncLogger() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metrics.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	translatorimpl.RegisterDI(injector)
	synthesizerimpl.RegisterDI(injector)
	assistantimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	listening.RegisterDI(injector)
	incident.RegisterDI(injector)
	web.RegisterDI(injector)
	if cfg.DiscordEnabled() {
		discord.RegisterDI(injector)
		discordbot.RegisterDI(injector)
	}

	return injector
}
