package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider      string  `toml:"provider"`
	Model         string  `toml:"model"`
	APIKey        string  `toml:"api_key"`
	BaseURL       string  `toml:"base_url"`
	Temperature   float32 `toml:"temperature"`
	MaxTokens     int     `toml:"max_tokens"`
	RatePerMinute float64 `toml:"rate_per_minute"`
	RateBurst     int     `toml:"rate_burst"`
}

type StoreConfig struct {
	Backend  string `toml:"backend"` // memgraph, sqlite or memory
	RecordID string `toml:"record_id"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Path     string `toml:"path"`
}

type NotifyConfig struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Channel       string `toml:"channel"`
}

type ServerConfig struct {
	Port            string `toml:"port"`
	ReconcileSecret string `toml:"reconcile_secret"`
}

// Category is one topic family the reconciliation prompt asks the model to examine.
type Category struct {
	Name string `toml:"name"`
	Rule string `toml:"rule"`
}

type ReconcileConfig struct {
	Prompt          string     `toml:"prompt"`
	MinConfidence   float64    `toml:"min_confidence"`
	TimeoutSeconds  int        `toml:"timeout_seconds"`
	IntervalMinutes int        `toml:"interval_minutes"`
	Categories      []Category `toml:"categories"`
}

type ClassifyConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Store     StoreConfig     `toml:"store"`
	Notify    NotifyConfig    `toml:"notify"`
	Server    ServerConfig    `toml:"server"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Classify  ClassifyConfig  `toml:"classify"`
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:      "claude",
			Model:         "claude-sonnet-4-20250514",
			Temperature:   0.1,
			MaxTokens:     4096,
			RatePerMinute: 50,
			RateBurst:     5,
		},
		Store: StoreConfig{
			Backend:  "memgraph",
			RecordID: "main",
		},
		Notify: NotifyConfig{
			Channel: "tally:tracker_events",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Reconcile: ReconcileConfig{
			MinConfidence:  0.8,
			TimeoutSeconds: 120,
			Categories:     DefaultCategories(),
		},
		Classify: ClassifyConfig{
			TimeoutSeconds: 60,
		},
	}
}

// DefaultCategories lists the topic families examined on every reconciliation cycle.
func DefaultCategories() []Category {
	return []Category{
		{Name: "brokenPromises", Rule: "Add a promise only when a credible source reports it as broken or reversed; keep existing entries unless superseded."},
		{Name: "incidents", Rule: "Record new enforcement incidents with date, location and source; replace the whole list when returning it."},
		{Name: "travel", Rule: "Update cumulative travel days and cost figures only from reported totals, not estimates of single trips."},
		{Name: "wealth", Rule: "Update net-worth estimates only from a named publication's latest figure."},
		{Name: "selfDealing", Rule: "Update self-dealing figures when payments to owned businesses are newly reported."},
		{Name: "financials", Rule: "Update aggregate figures such as national debt or deficit only from official releases."},
	}
}

// Load reads the TOML file at path on top of Default.
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

// DefaultPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultPath = "config/config.toml"

// Resolve loads path (or CONFIG_PATH, or DefaultPath) and applies environment
// overrides. A missing file falls back to Default.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	cfg, err := Load(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")

	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.RecordID, "STORE_RECORD_ID")
	setString(&c.Store.URI, "STORE_URI")
	setString(&c.Store.User, "STORE_USER")
	setString(&c.Store.Password, "STORE_PASSWORD")
	setString(&c.Store.Path, "STORE_PATH")

	setString(&c.Notify.RedisAddr, "REDIS_ADDR")
	setString(&c.Notify.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Notify.Channel, "REDIS_CHANNEL")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Notify.RedisDB = db
		}
	}

	setString(&c.Server.Port, "PORT")
	setString(&c.Server.ReconcileSecret, "RECONCILE_SECRET")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ConfigError lists the required settings that are missing.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: missing %s", strings.Join(e.Missing, ", "))
}

// Validate checks the settings a reconciliation cycle needs before any network call.
func (c *Config) Validate() error {
	var missing []string

	provider := strings.ToLower(c.LLM.Provider)
	if provider == "" {
		missing = append(missing, "llm.provider")
	}
	if c.LLM.APIKey == "" && provider != "ollama" {
		missing = append(missing, "llm.api_key")
	}

	switch strings.ToLower(c.Store.Backend) {
	case "memgraph":
		if c.Store.URI == "" {
			missing = append(missing, "store.uri")
		}
		if c.Store.User == "" {
			missing = append(missing, "store.user")
		}
	case "sqlite":
		if c.Store.Path == "" {
			missing = append(missing, "store.path")
		}
	case "memory":
	default:
		missing = append(missing, "store.backend")
	}
	if c.Store.RecordID == "" {
		missing = append(missing, "store.record_id")
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
