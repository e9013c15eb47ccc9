// Package config builds the run configuration once at process start.
//
// Sources, lowest to highest precedence:
//   - built-in defaults
//   - optional YAML file (AGT_CONFIG, else ./agent.yaml when present)
//   - environment variables (a .env file is loaded first when present)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "agent.yaml"

type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`

	// Endpoint overrides the Sheets API base URL (tests, proxies).
	Endpoint string `yaml:"endpoint"`
}

type WikipediaConfig struct {
	BaseURL  string `yaml:"base_url"`
	MaxChars int    `yaml:"max_chars"`
}

type ArxivConfig struct {
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
	MaxChars   int    `yaml:"max_chars"`
}

type TavilyConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
}

// Config is the explicit configuration object handed to every component.
type Config struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// MaxCycles caps Generate<->ExecuteTools round trips per turn; 0 disables the cap.
	MaxCycles        int           `yaml:"max_cycles"`
	ToolConcurrency  int           `yaml:"tool_concurrency"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`
	ToolTimeout      time.Duration `yaml:"tool_timeout"`

	// TokenBudget caps the estimated input tokens sent per Generate; 0 sends the whole conversation.
	TokenBudget int `yaml:"token_budget"`

	Observe   bool   `yaml:"observe"`
	EventsDir string `yaml:"events_dir"`

	UserAgent     string `yaml:"user_agent"`
	RespectRobots bool   `yaml:"respect_robots"`

	Sheets    SheetsConfig    `yaml:"sheets"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Tavily    TavilyConfig    `yaml:"tavily"`
}

// Providers lists the accepted values of Config.Provider.
var Providers = []string{"anthropic", "gemini", "openai"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:         "anthropic",
		MaxTokens:        1024,
		MaxCycles:        10,
		ToolConcurrency:  1,
		InferenceTimeout: 60 * time.Second,
		ToolTimeout:      20 * time.Second,
		EventsDir:        ".agent",
		UserAgent:        "toolgraph/1.0",
		Sheets:           SheetsConfig{CredentialsFile: "credentials.json", Range: "Sheet1!A:B"},
		Wikipedia:        WikipediaConfig{BaseURL: "https://en.wikipedia.org", MaxChars: 500},
		Arxiv:            ArxivConfig{BaseURL: "http://export.arxiv.org/api/query", MaxResults: 3, MaxChars: 4000},
		Tavily:           TavilyConfig{BaseURL: "https://api.tavily.com/search", MaxResults: 5},
	}
}

// Load reads .env, the YAML file and the environment, then validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	cfg := Default()
	path, explicit := os.LookupEnv("AGT_CONFIG")
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
			return
		}
		*dst = n
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
			return
		}
		*dst = d
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v == "1" || v == "true"
		}
	}

	str("AGT_PROVIDER", &c.Provider)
	str("AGT_MODEL", &c.Model)
	num("AGT_MAX_TOKENS", &c.MaxTokens)
	num("AGT_MAX_CYCLES", &c.MaxCycles)
	num("AGT_TOOL_CONCURRENCY", &c.ToolConcurrency)
	dur("AGT_INFERENCE_TIMEOUT", &c.InferenceTimeout)
	dur("AGT_TOOL_TIMEOUT", &c.ToolTimeout)
	num("AGT_TOKEN_BUDGET", &c.TokenBudget)
	flag("AGT_OBSERVE_JSON", &c.Observe)
	str("AGT_EVENTS_DIR", &c.EventsDir)
	str("AGT_USER_AGENT", &c.UserAgent)
	flag("AGT_RESPECT_ROBOTS", &c.RespectRobots)

	str("AGT_SHEETS_CREDENTIALS", &c.Sheets.CredentialsFile)
	str("AGT_SHEETS_ID", &c.Sheets.SpreadsheetID)
	str("AGT_SHEETS_RANGE", &c.Sheets.Range)
	str("TAVILY_API_KEY", &c.Tavily.APIKey)

	return errors.Join(errs...)
}

// Validate rejects configurations no component can run with.
func (c Config) Validate() error {
	known := false
	for _, p := range Providers {
		if c.Provider == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: unknown provider %q (want one of %v)", c.Provider, Providers)
	}
	switch {
	case c.MaxTokens <= 0:
		return fmt.Errorf("config: max_tokens must be > 0, got %d", c.MaxTokens)
	case c.MaxCycles < 0:
		return fmt.Errorf("config: max_cycles must be >= 0, got %d", c.MaxCycles)
	case c.ToolConcurrency < 1:
		return fmt.Errorf("config: tool_concurrency must be >= 1, got %d", c.ToolConcurrency)
	case c.TokenBudget < 0:
		return fmt.Errorf("config: token_budget must be >= 0, got %d", c.TokenBudget)
	case c.InferenceTimeout < 0 || c.ToolTimeout < 0:
		return errors.New("config: timeouts must not be negative")
	}
	return nil
}
