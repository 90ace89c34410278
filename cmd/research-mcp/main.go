// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-mcp server and CLI.
// The serve command exposes the paper tools over MCP; the remaining
// commands call the same operations from the shell.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-mcp/internal/research"
	"github.com/pdiddy/research-mcp/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg holds the configuration loaded before any command runs.
	cfg types.Config

	logger    *slog.Logger
	logCloser io.Closer
)

// rootCmd is the base command for the research-mcp CLI.
var rootCmd = &cobra.Command{
	Use:   "research-mcp",
	Short: "MCP server for searching and caching arXiv papers",
	Long: `research-mcp answers paper search, detail, and statistics requests from a
local topic index and paper store, querying arXiv only when the local cache
cannot satisfy a search.

Run "research-mcp serve" to expose the tools to an MCP client over stdio or
streamable HTTP. The other subcommands call the same operations directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded

		l, closer, err := newLogger(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-mcp.yaml or ~/.config/research-mcp/research-mcp.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}

func initConfig() {
	envFile, _ := rootCmd.PersistentFlags().GetString("env-file")
	if err := loadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-mcp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-mcp"))
		}
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openService builds the service over the configured stores.
func openService() *research.Service {
	return research.Open(cfg, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
