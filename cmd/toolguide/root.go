package main

import (
	"fmt"
	"os"

	"github.com/aretw0/toolguide/internal/cli"
	"github.com/aretw0/toolguide/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "toolguide",
	Short: "Deterministic guides that tell AI agents what to do next",
	Long: `toolguide runs protocol state machines ("guides") that constrain an AI agent.
The agent starts a session, relays each instruction and reports back what the
user said or what its tools found. Guides ship for pizza ordering and for
emergency department triage.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./toolguide.yaml)")
	flags.BoolVar(&debug, "debug", false, "Log every lifecycle event at debug level")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("store", config.BackendMemory, "Session store: memory, file, redis or sqlite")
	flags.String("store-path", ".toolguide/sessions", "Directory (file) or database path (sqlite)")
	flags.String("redis-addr", "localhost:6379", "Redis address (store=redis)")

	mustBind("log_level", "log-level")
	mustBind("store.backend", "store")
	mustBind("store.path", "store-path")
	mustBind("redis.addr", "redis-addr")
}

func mustBind(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// loadRuntime reads the configuration and opens the engine for a command.
func loadRuntime(cmd *cobra.Command) (*cli.Runtime, *config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := cli.NewLogger(cfg.LogLevel, debug)
	rt, err := cli.NewRuntime(cmd.Context(), cfg, logger, debug)
	if err != nil {
		return nil, nil, err
	}
	return rt, cfg, nil
}
