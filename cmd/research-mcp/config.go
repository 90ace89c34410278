// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-mcp/pkg/types"
)

const envPrefix = "MCP"

// envBindings maps config keys to the environment variables that set them.
// The names predate the nested config layout, so they are bound
// explicitly rather than derived from the key.
var envBindings = map[string]string{
	"server.name":             "MCP_SERVER_NAME",
	"server.transport":        "MCP_TRANSPORT",
	"server.http_addr":        "MCP_HTTP_ADDR",
	"store.base_dir":          "MCP_BASE_DIR",
	"store.json_indent":       "MCP_JSON_INDENT",
	"arxiv.max_results":       "MCP_ARXIV_MAX_RESULTS",
	"arxiv.max_results_limit": "MCP_ARXIV_MAX_RESULTS_LIMIT",
	"arxiv.timeout":           "MCP_ARXIV_TIMEOUT",
	"arxiv.user_agent":        "MCP_ARXIV_USER_AGENT",
	"arxiv.min_interval":      "MCP_ARXIV_MIN_INTERVAL",
	"log.level":               "MCP_LOG_LEVEL",
	"log.file":                "MCP_LOG_FILE",
}

// configureViper registers defaults and environment bindings on v.
func configureViper(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetDefault("server.name", d.Server.Name)
	v.SetDefault("server.transport", d.Server.Transport)
	v.SetDefault("server.http_addr", d.Server.HTTPAddr)
	v.SetDefault("store.base_dir", d.Store.BaseDir)
	v.SetDefault("store.json_indent", d.Store.JSONIndent)
	v.SetDefault("arxiv.max_results", d.Arxiv.MaxResultsDefault)
	v.SetDefault("arxiv.max_results_limit", d.Arxiv.MaxResultsLimit)
	v.SetDefault("arxiv.timeout", d.Arxiv.Timeout)
	v.SetDefault("arxiv.user_agent", d.Arxiv.UserAgent)
	v.SetDefault("arxiv.min_interval", d.Arxiv.MinInterval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for key, env := range envBindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, env)
	}
}

// loadConfig decodes v into a Config and validates it.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return types.Config{}, err
	}
	return c, nil
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
