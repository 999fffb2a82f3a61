package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard edits the conversation flows of voice agents",
	Long: `Switchboard loads an agent's State-Machine Definition into an editable graph,
applies edit commands that keep it consistent, and saves it back to the store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	flags.String("store", "", "Definition store: memory, loam or redis (overrides config)")
	flags.String("dir", "", "Directory of the loam store (overrides config)")
	flags.String("redis", "", "Redis address (overrides config and "+config.EnvRedisAddr+")")
	flags.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadConfig reads the configuration file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"store", &cfg.Store.Kind},
		{"dir", &cfg.Store.Dir},
		{"redis", &cfg.Redis.Addr},
		{"log-level", &cfg.LogLevel},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.target, _ = cmd.Flags().GetString(o.flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// env bundles what every command needs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend *cli.Backend
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	backend, err := cli.OpenBackend(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Store opened", "kind", cfg.Store.Kind)
	return &env{cfg: cfg, logger: logger, backend: backend}, nil
}

func (e *env) manager(hooks ...domain.LifecycleHooks) *session.Manager {
	return cli.NewManager(e.backend, e.cfg, e.logger, hooks...)
}

func (e *env) Close() {
	if err := e.backend.Close(); err != nil {
		e.logger.Warn("Failed to close store", "err", err)
	}
}

// loadDefinition reads an agent's stored definition. Agents without one get the default.
func loadDefinition(ctx context.Context, store ports.DefinitionStore, agentID string) (*domain.Definition, error) {
	rec, err := store.Load(ctx, agentID)
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return domain.DefaultDefinition(), nil
	}
	if err != nil {
		return nil, err
	}
	return &rec.Definition, nil
}
