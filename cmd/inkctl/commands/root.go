package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/config"
	"inkwell/internal/observability"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "inkctl",
	Short: "Inkwell operator CLI",
	Long: `inkctl manages an Inkwell deployment.

Configuration is read from the environment and .env, the same way the
server reads it.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// loadConfig reads configuration and sets up logging for a command.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)
	return cfg, nil
}
