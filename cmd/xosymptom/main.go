package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xostack/xosymptom/config"
	"github.com/xostack/xosymptom/internal/logger"
)

var (
	version = "v0.1.0" // Overwritten at build time
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	debug      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "xosymptom",
		Short: "Educational symptom guidance from AI models",
		Long: `xosymptom describes possible conditions, next steps and urgent-care warnings
for a free-text symptom description. It asks the configured AI models in order
and answers from built-in keyword rules when none is reachable.

The output is educational only and is not medical advice.`,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/xosymptom/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

// load reads configuration and sets up logging on the command's stderr.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load(o.debug)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.LogLevel
	if o.debug {
		level = "debug"
	}
	return cfg, logger.Setup(level, cfg.LogFormat, cmd.ErrOrStderr()), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xosymptom version %s\n", version)
		},
	}
}
