// Command tapir runs the forensic/binary-inspection analysis server: it
// loads configuration, registers the built-in plugins, and serves the REST
// API described by internal/apiserver.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tap-ir/tapir/internal/apiserver"
	"github.com/tap-ir/tapir/internal/config"
	"github.com/tap-ir/tapir/internal/plugin"
	"github.com/tap-ir/tapir/internal/session"
	"github.com/tap-ir/tapir/web"
)

var version = "dev"

// Flags bound by newRootCmd, read in runServe.
var (
	flagConfigPath string
	flagAddress    string
	flagUpload     string
	flagAPIKey     string
	flagTLSCert    string
	flagTLSKey     string
	flagOpenBrowse bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tapir",
		Short:         "forensic/binary-inspection analysis server",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runServe,
	}

	cmd.Flags().StringVar(&flagConfigPath, "config", "tapir.toml", "TOML config file path")
	cmd.Flags().StringVar(&flagAddress, "address", "", "bind address (overrides config/env)")
	cmd.Flags().StringVar(&flagUpload, "upload", "", "upload directory (overrides config/env)")
	cmd.Flags().StringVar(&flagAPIKey, "apikey", "", "shared API key (overrides config/env)")
	cmd.Flags().StringVar(&flagTLSCert, "tls-cert", "", "TLS certificate path")
	cmd.Flags().StringVar(&flagTLSKey, "tls-key", "", "TLS key path")
	cmd.Flags().BoolVar(&flagOpenBrowse, "open-browser", false, "open a browser at the bound address on startup")

	return cmd
}

func buildLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := buildLogger()

	// Best-effort .env load before the environment layer, ported from the
	// original's dotenv().ok() in main() (spec.md "SUPPLEMENTED FEATURES").
	_ = godotenv.Load()

	cli := config.CLIOverrides{
		Address:     flagAddress,
		UploadDir:   flagUpload,
		APIKey:      flagAPIKey,
		TLSCertFile: flagTLSCert,
		TLSKeyFile:  flagTLSKey,
	}
	if cmd.Flags().Changed("open-browser") {
		cli.OpenBrowser = &flagOpenBrowse
	}

	cfg, err := config.Load(flagConfigPath, cli, log)
	if err != nil {
		return fmt.Errorf("tapir: %w", err)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("tapir: create upload dir: %w", err)
	}

	registry := plugin.NewRegistry()
	registry.Register(plugin.NewLocal())
	registry.Register(plugin.NewHash())
	registry.Register(plugin.NewMerge())

	sess := session.New(registry, 8, log)

	staticFS := web.FS()
	if cfg.StaticDir != "" {
		staticFS = http.Dir(cfg.StaticDir)
	}

	srv := apiserver.New(apiserver.Config{
		Address:     cfg.Address,
		APIKey:      cfg.APIKey,
		UploadDir:   cfg.UploadDir,
		TLSCertFile: cfg.TLSCertFile,
		TLSKeyFile:  cfg.TLSKeyFile,
		OpenBrowser: cfg.OpenBrowser,
		StaticFS:    staticFS,
	}, sess, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.ListenAndServe(ctx)
}
