package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/internal/config"
	"github.com/reoring/surveyschema/internal/server"
	"github.com/reoring/surveyschema/internal/store"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var cfgPath, addr string
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the survey editing API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, opts, cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if inMemory {
				cfg.Store.InMemory = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := cfg.Log.NewLogger(os.Stderr)
			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			st, err := store.Open(store.Config{
				Path:        cfg.Store.Path,
				InMemory:    cfg.Store.InMemory,
				SyncWrites:  cfg.Store.SyncWrites,
				MaxVersions: cfg.Store.MaxVersions,
				Logger:      logger.With("component", "store"),
			})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			srv := server.New(st, server.Options{
				Parse:           surveyschema.ParseOpt{Strict: cfg.Parse.Strict, MaxBytes: cfg.Parse.MaxBytes},
				ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
				Logger:          logger,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "configuration file (default ./"+config.FileName+" when present)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides [server] addr")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep surveys in memory only")
	return cmd
}

// loadServeConfig reads the explicit --config file, or ./surveyschema.toml
// when it exists. Persistent flags the user set win over file values.
func loadServeConfig(cmd *cobra.Command, opts *globalOptions, path string) (config.Config, error) {
	optional := path == ""
	if optional {
		path = config.FileName
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("strict") {
		cfg.Parse.Strict = opts.strict
	}
	if flags.Changed("max-bytes") {
		cfg.Parse.MaxBytes = opts.maxBytes
	}
	return cfg, nil
}
