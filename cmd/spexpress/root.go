package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spexpress/spexpress-go/internal/app"
	"github.com/spexpress/spexpress-go/internal/config"
	"github.com/spexpress/spexpress-go/internal/logger"
)

// buildVersion is set at link time with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

type cliFlags struct {
	login       string
	token       string
	versionFile string
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "spexpress",
		Short: "Authenticated JSON API client",
		Long: `Sends GET and POST requests with HTTP Basic authentication.

POST requests carry the API version read from the version file in the
X-API-Version header. Every exchange is journaled locally and, when a
publishers file is configured, announced to the configured sinks.`,
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.login, "login", "", "login for Basic authentication (overrides SPEXPRESS_LOGIN)")
	pf.StringVar(&flags.token, "token", "", "API token for Basic authentication (overrides SPEXPRESS_API_TOKEN)")
	pf.StringVar(&flags.versionFile, "version-file", "", "API version file (overrides SPEXPRESS_VERSION_FILE)")

	root.AddCommand(
		newRequestCmd("get", flags),
		newRequestCmd("post", flags),
		newRunCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(flags),
	)
	return root
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig(flags *cliFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.login != "" {
		cfg.Login = flags.login
	}
	if flags.token != "" {
		cfg.APIToken = flags.token
	}
	if flags.versionFile != "" {
		cfg.VersionFile = flags.versionFile
	}
	return cfg, nil
}

// withDispatcher wires config, logging and the dispatcher around fn.
func withDispatcher(cmd *cobra.Command, flags *cliFlags, fn func(ctx context.Context, d *app.Dispatcher) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("spexpress starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDispatcher(ctx, cfg, log, app.Deps{})
	if err != nil {
		logger.ErrorObj("failed to initialize dispatcher", "error", err.Error())
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			logger.WarnObj("dispatcher close failed", "error", cerr.Error())
		}
	}()

	return fn(ctx, d)
}
