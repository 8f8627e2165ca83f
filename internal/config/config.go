package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Prompts are text/template sources, one per agent.
type Prompts struct {
	Discovery    string `toml:"discovery"`
	Parser       string `toml:"parser"`
	Verifier     string `toml:"verifier"`
	Strategist   string `toml:"strategist"`
	Matcher      string `toml:"matcher"`
	Predictor    string `toml:"predictor"`
	Query        string `toml:"query"`
	Intervention string `toml:"intervention"`
	Chat         string `toml:"chat"`
}

type LLMConfig struct {
	Provider        string `toml:"provider"`
	Model           string `toml:"model"`
	StrategistModel string `toml:"strategist_model"`
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	MaxTokens       int    `toml:"max_tokens"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	Secret   string   `toml:"secret"`
	TokenTTL Duration `toml:"token_ttl"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type WorkflowConfig struct {
	Region         string   `toml:"region"`
	DiscoveryTopic string   `toml:"discovery_topic"`
	Timeout        Duration `toml:"timeout"`
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	LLM      LLMConfig      `toml:"llm"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Redis    RedisConfig    `toml:"redis"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Workflow WorkflowConfig `toml:"workflow"`
	Prompts  Prompts        `toml:"prompts"`
}

// Default returns a configuration that runs without a config file: Gemini models,
// in-memory stores and the built-in prompt set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "release"},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-3-flash-preview",
			StrategistModel: "gemini-2.5-flash",
			MaxTokens:       4096,
		},
		Auth: AuthConfig{Secret: "change-me", TokenTTL: Duration{24 * time.Hour}},
		Log:  LogConfig{Level: "info", Format: "text"},
		Workflow: WorkflowConfig{
			Region:         "Ghana",
			DiscoveryTopic: "Health infrastructure challenges, equipment status, and hospital news in Ghana 2024-2025",
		},
		Prompts: DefaultPrompts(),
	}
}

// Load reads the TOML file at path on top of Default. Prompts absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when the file exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overrides config values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.StrategistModel, "LLM_STRATEGIST_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.SQLite.Path, "SQLITE_PATH")
	setString(&c.Auth.Secret, "AUTH_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Workflow.Region, "WORKFLOW_REGION")

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.MaxTokens = n
		}
	}
	if v := os.Getenv("WORKFLOW_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Workflow.Timeout = Duration{d}
		}
	}

	// Gemini keys are commonly exported under the SDK's own name.
	if c.LLM.APIKey == "" {
		setString(&c.LLM.APIKey, "GEMINI_API_KEY")
	}
}

// Duration decodes TOML strings such as "90s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
