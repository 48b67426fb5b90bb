package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tj-smith47/cosynight-go"
	"github.com/tj-smith47/cosynight-go/internal/config"
	"github.com/tj-smith47/cosynight-go/sqlitestore"
)

// app holds state shared by all subcommands.
type app struct {
	configPath string
	envFile    string
	baseURL    string
	logLevel   string

	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	store  cosynight.TokenStore
	client *cosynight.Client
	closer func() error
}

func newApp() *app {
	return &app{stdout: os.Stdout, stderr: os.Stderr}
}

// execute runs root and closes the token store afterwards, also when the
// command fails.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cosynight",
		Short:         "Control Beurer CosyNight heated mattress pads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: ./cosynight.yaml or ~/.config/cosynight/config.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "file with COSYNIGHT_USERNAME and COSYNIGHT_PASSWORD")
	flags.StringVar(&a.baseURL, "base-url", "", "override the API base URL")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newDevicesCmd(a),
		newStatusCmd(a),
		newQuickstartCmd(a),
		newZoneCmd(a),
	)
	return root
}

// setup loads configuration and builds the client.
func (a *app) setup() error {
	path, err := config.FindConfig(a.configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	logger, err := cfg.NewLogger(a.stderr)
	if err != nil {
		return err
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}
	a.store = store
	a.closer = closer

	opts := []cosynight.Option{cosynight.WithLogger(logger)}
	if level <= slog.LevelDebug {
		opts = append(opts, cosynight.WithHTTPClient(&http.Client{
			Transport: &cosynight.LoggingTransport{Logger: logger},
		}))
	}
	opts = append(opts, cosynight.WithTimeout(cfg.Timeout))
	if cfg.BaseURL != "" {
		opts = append(opts, cosynight.WithBaseURL(cfg.BaseURL))
	}

	client, err := cosynight.NewClient(store, opts...)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) teardown() error {
	closer := a.closer
	a.closer = nil
	if closer == nil {
		return nil
	}
	return closer()
}

// openStore builds the configured token store.
func openStore(cfg *config.Config) (cosynight.TokenStore, func() error, error) {
	switch cfg.TokenStore {
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.TokenPath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create token directory: %w", err)
		}
		s, err := sqlitestore.Open(cfg.TokenPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return cosynight.NewFileTokenStore(cfg.TokenPath), nil, nil
	}
}
