package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/config"
)

// version is reported in serverInfo on both transports.
const version = "0.1.0"

var (
	configPath string
	transport  string
	port       string
	dataDir    string
	forgeDir   string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mind-mcp",
		Short: "The Mind: a thought graph served over the tool protocol",
		Long: `mind-mcp records thoughts in a local SQLite graph, links them by shared
keywords, groups them into category clusters and exposes the mind_* tools to
an agent over stdio (line-delimited JSON-RPC) or streamable HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&transport, "transport", config.TransportStdio, "Transport mode: stdio or http")
	flags.StringVar(&port, "port", "8081", "HTTP port (only used with --transport http)")
	flags.StringVar(&dataDir, "data-dir", "", "Directory holding mind.db (default: platform data dir)")
	flags.StringVar(&forgeDir, "forge-dir", "", "session-forge directory (default: platform location)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}

// resolveConfig layers explicitly set flags over file and environment settings.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = transport
	}
	if flags.Changed("port") {
		cfg.Addr = ":" + port
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("forge-dir") {
		cfg.ForgeDir = forgeDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
