package types

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// ServerConfig holds the MCP server identity and transport.
type ServerConfig struct {
	// Name is the implementation name advertised during the MCP handshake.
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`

	// Transport selects stdio or streamable HTTP.
	Transport string `json:"transport" yaml:"transport" mapstructure:"transport" validate:"oneof=stdio http"`

	// HTTPAddr is the listen address used when Transport is "http".
	HTTPAddr string `json:"http_addr" yaml:"http_addr" mapstructure:"http_addr" validate:"required_if=Transport http"`
}

// StoreConfig holds the on-disk location of the paper stores.
type StoreConfig struct {
	// BaseDir is the root under which data/papers/ and logs/ live.
	BaseDir string `json:"base_dir" yaml:"base_dir" mapstructure:"base_dir" validate:"required"`

	// JSONIndent is the indent width used by the json export format.
	JSONIndent int `json:"json_indent" yaml:"json_indent" mapstructure:"json_indent" validate:"gte=0,lte=8"`
}

// PapersDir returns the directory holding topics.json and papers.json.
func (c StoreConfig) PapersDir() string {
	return filepath.Join(c.BaseDir, "data", "papers")
}

// CatalogPath returns the SQLite snapshot written by the snapshot command.
func (c StoreConfig) CatalogPath() string {
	return filepath.Join(c.BaseDir, "data", "catalog", "research.db")
}

// ArxivConfig holds settings for the remote index gateway.
type ArxivConfig struct {
	// MaxResultsDefault is used when a search omits max_results (default 5).
	MaxResultsDefault int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=1,ltefield=MaxResultsLimit"`

	// MaxResultsLimit is the ceiling every requested max_results is clamped to (default 50).
	MaxResultsLimit int `json:"max_results_limit" yaml:"max_results_limit" mapstructure:"max_results_limit" validate:"gte=1"`

	// Timeout bounds a single remote query.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the User-Agent header sent to the arXiv API.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MinInterval is the minimum spacing between remote queries. arXiv asks
	// clients for one request every three seconds. Zero disables pacing.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of DEBUG, INFO, WARN (or WARNING), ERROR.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`

	// File, when set, receives log output instead of stderr.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
}

// Config groups every setting of the research server. It is read once at
// process start and not modified afterwards.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	Store  StoreConfig  `json:"store" yaml:"store" mapstructure:"store"`
	Arxiv  ArxivConfig  `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when neither a config file nor
// the environment overrides them.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:      "research",
			Transport: "stdio",
			HTTPAddr:  "localhost:8000",
		},
		Store: StoreConfig{
			BaseDir:    ".",
			JSONIndent: 2,
		},
		Arxiv: ArxivConfig{
			MaxResultsDefault: 5,
			MaxResultsLimit:   50,
			Timeout:           30 * time.Second,
			UserAgent:         "research-mcp/0.1",
			MinInterval:       3 * time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cross-field constraints such as default ≤ limit.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
