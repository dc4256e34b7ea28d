// Package config handles Quire configuration loading.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. QUIRE_SERVER_PORT.
const EnvPrefix = "QUIRE"

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig           `mapstructure:"server" yaml:"server"`
	LLM     LLMConfig              `mapstructure:"llm" yaml:"llm"`
	Agents  map[string]AgentConfig `mapstructure:"agents" yaml:"agents"`
	Fonts   FontsConfig            `mapstructure:"fonts" yaml:"fonts"`
	Render  RenderConfig           `mapstructure:"render" yaml:"render"`
	Boards  []BoardConfig          `mapstructure:"boards" yaml:"boards"`
	Logging LoggingConfig          `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig          `mapstructure:"metrics" yaml:"metrics"`
	Tracing TracingConfig          `mapstructure:"tracing" yaml:"tracing"`
}

// ServerConfig holds web UI settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// PaperStoreSize bounds how many rendered PDFs are kept for download.
	PaperStoreSize int `mapstructure:"paper_store_size" yaml:"paper_store_size"`
	// CORSOrigins also gates websocket upgrades. Empty means same-origin only.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins,omitempty"`
}

// LLMConfig holds the OpenAI-compatible backend settings.
type LLMConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Model     string        `mapstructure:"model" yaml:"model"`
	APIKeyEnv string        `mapstructure:"api_key_env" yaml:"api_key_env"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// APIKey is resolved from APIKeyEnv at load time and never written out.
	APIKey string `mapstructure:"-" yaml:"-"`
}

// AgentConfig overrides inference parameters for one crew role.
// Temperature is a pointer to distinguish "not set" from "explicitly 0".
type AgentConfig struct {
	Model       string   `mapstructure:"model" yaml:"model,omitempty"`
	MaxTokens   int      `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
}

// InferenceDefaults fills unset parameters.
func (a *AgentConfig) InferenceDefaults(model string) {
	if a.Model == "" {
		a.Model = model
	}
	if a.MaxTokens == 0 {
		a.MaxTokens = 4096
	}
	if a.Temperature == nil {
		t := 0.7
		a.Temperature = &t
	}
}

// FontsConfig names the RTL font file and the name it is registered under.
type FontsConfig struct {
	UrduPath string `mapstructure:"urdu_path" yaml:"urdu_path"`
	UrduName string `mapstructure:"urdu_name" yaml:"urdu_name"`
}

// RenderConfig holds PDF rendering switches.
type RenderConfig struct {
	// StrictEncoding turns unencodable characters into a render error
	// instead of substituting '?'.
	StrictEncoding bool `mapstructure:"strict_encoding" yaml:"strict_encoding"`
}

// BoardConfig adds or replaces one examination board pattern.
type BoardConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	MCQs     int    `mapstructure:"mcqs" yaml:"mcqs"`
	ShortQs  int    `mapstructure:"short_questions" yaml:"short_questions"`
	LongQs   int    `mapstructure:"long_questions" yaml:"long_questions"`
	Syllabus string `mapstructure:"syllabus" yaml:"syllabus"`
}

// LoggingConfig selects zap level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8501,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			PaperStoreSize: 64,
		},
		LLM: LLMConfig{
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:     "gemini-2.0-flash",
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   3 * time.Minute,
		},
		Agents: map[string]AgentConfig{},
		Fonts: FontsConfig{
			UrduPath: "fonts/NotoNastaliqUrdu-Regular.ttf",
			UrduName: "UrduFont",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			ServiceName: "quire",
		},
	}
}

// Load reads the file at path layered over Default, then applies
// QUIRE_* environment overrides. A missing file is an error.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, qerrors.Config(qerrors.ErrConfigNotFound, "configuration file not found").
			WithContext(qerrors.ContextPath, path)
	}
	return load(path)
}

// LoadOrDefault loads config from path, or the defaults if path is empty
// or missing. Environment overrides apply either way.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return load(path)
		}
	}
	return load("")
}

func load(path string) (*Config, error) {
	loadEnvFile(path)

	v := viper.New()
	v.SetConfigType("yaml")
	base, err := yaml.Marshal(Default())
	if err != nil {
		return nil, qerrors.ConfigWrap(err, qerrors.ErrConfigInvalid, "failed to encode defaults")
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, qerrors.ConfigWrap(err, qerrors.ErrConfigParseFailed, "failed to read defaults")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, qerrors.ConfigWrap(err, qerrors.ErrConfigParseFailed, "failed to parse config").
				WithContext(qerrors.ContextPath, path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, qerrors.ConfigWrap(err, qerrors.ErrConfigParseFailed, "failed to decode config").
			WithContext(qerrors.ContextPath, path)
	}
	if cfg.Agents == nil {
		cfg.Agents = map[string]AgentConfig{}
	}
	cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env from the working directory and next to the
// config file. Existing environment variables win.
func loadEnvFile(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates,
			filepath.Join(filepath.Dir(configPath), ".env"),
			filepath.Join(filepath.Dir(configPath), "..", ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Validate checks field values and returns a CONFIG_INVALID error naming the first bad field.
func (c *Config) Validate() error {
	invalid := func(field, msg string) error {
		return qerrors.Config(qerrors.ErrConfigInvalid, msg).WithContext("field", field)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port", fmt.Sprintf("port %d out of range", c.Server.Port))
	}
	if c.Server.PaperStoreSize <= 0 {
		return invalid("server.paper_store_size", "paper store size must be positive")
	}
	if c.LLM.BaseURL == "" {
		return invalid("llm.base_url", "llm base url is required")
	}
	if c.LLM.Model == "" {
		return invalid("llm.model", "llm model is required")
	}
	if c.Fonts.UrduPath == "" || c.Fonts.UrduName == "" {
		return invalid("fonts", "urdu font path and name are required")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return invalid("logging.format", fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	for i, b := range c.Boards {
		if b.Name == "" {
			return invalid(fmt.Sprintf("boards[%d].name", i), "board name is required")
		}
		if b.MCQs < 0 || b.ShortQs < 0 || b.LongQs < 0 {
			return invalid(fmt.Sprintf("boards[%d]", i), "question counts must not be negative")
		}
	}
	return nil
}

// Agent returns the inference settings for role with defaults applied.
func (c *Config) Agent(role string) AgentConfig {
	a := c.Agents[role]
	a.InferenceDefaults(c.LLM.Model)
	return a
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return qerrors.ConfigWrap(err, qerrors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext(qerrors.ContextPath, path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return qerrors.ConfigWrap(err, qerrors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return qerrors.ConfigWrap(err, qerrors.ErrConfigWriteFailed, "failed to write config file").
			WithContext(qerrors.ContextPath, path)
	}
	return nil
}

// DefaultConfigPath returns the first existing well-known config path.
func DefaultConfigPath() string {
	for _, p := range []string{"configs/config.yaml", "config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "configs/config.yaml"
}

// InitConfig creates a default config file if it doesn't exist.
func InitConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := Default().Save(path); err != nil {
		return qerrors.ConfigWrap(err, qerrors.ErrConfigInitFailed, "failed to initialize config").
			WithContext(qerrors.ContextPath, path)
	}
	return nil
}
