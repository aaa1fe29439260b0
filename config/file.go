package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/pevans/moviescraper/access"
	"github.com/pevans/moviescraper/pageclient"
	"github.com/pevans/moviescraper/scraper"
)

// Fetch modes.
const (
	ModeBrowser = "browser"
	ModeHTTP    = "http"
)

// Config is the structure of the optional moviebox.yaml file. Fields left
// out of the file keep their defaults.
type Config struct {
	Site   scraper.SiteConfig `yaml:"site"`
	Fetch  FetchConfig        `yaml:"fetch"`
	Output OutputConfig       `yaml:"output"`
	Access AccessConfig       `yaml:"access"`
	Quota  QuotaConfig        `yaml:"quota"`
	Log    LogConfig          `yaml:"log"`
}

// FetchConfig selects and tunes the page client.
type FetchConfig struct {
	Mode           string        `yaml:"mode"` // "browser" or "http"
	Headful        bool          `yaml:"headful"`
	ChromePath     string        `yaml:"chrome_path"`
	UserAgent      string        `yaml:"user_agent"`
	WaitTimeout    time.Duration `yaml:"wait_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// OutputConfig names the JSON file written by each session variant.
type OutputConfig struct {
	Public string `yaml:"public"`
	Admin  string `yaml:"admin"`
	User   string `yaml:"user"`
}

// AccessConfig names the environment variable holding the admin key.
type AccessConfig struct {
	SecretEnv string `yaml:"secret_env"`
}

// QuotaConfig enables the durable quota counter when DB is set.
type QuotaConfig struct {
	DB   string `yaml:"db"`
	Name string `yaml:"name"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Site: scraper.NewSiteConfig(),
		Fetch: FetchConfig{
			Mode:           ModeBrowser,
			WaitTimeout:    pageclient.DefaultWaitTimeout,
			RequestTimeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Public: "movies.json",
			Admin:  "admin_movies.json",
			User:   "user_movies.json",
		},
		Access: AccessConfig{
			SecretEnv: access.DefaultSecretEnv,
		},
		Quota: QuotaConfig{
			Name: "user",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path and merges it over Default. A missing
// file is not an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
			if err := mergo.Merge(&cfg, file, mergo.WithOverride); err != nil {
				return Config{}, fmt.Errorf("failed to merge config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values from MOVIEBOX_* environment variables.
func applyEnv(cfg *Config) {
	cfg.Site.BaseURL = getEnv("MOVIEBOX_BASE_URL", cfg.Site.BaseURL)
	cfg.Fetch.Mode = getEnv("MOVIEBOX_FETCH_MODE", cfg.Fetch.Mode)
	cfg.Fetch.ChromePath = getEnv("MOVIEBOX_CHROME_PATH", cfg.Fetch.ChromePath)
	cfg.Quota.DB = getEnv("MOVIEBOX_QUOTA_DB", cfg.Quota.DB)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if c.Fetch.Mode != ModeBrowser && c.Fetch.Mode != ModeHTTP {
		return fmt.Errorf("fetch.mode must be %q or %q, got %q", ModeBrowser, ModeHTTP, c.Fetch.Mode)
	}
	if c.Fetch.WaitTimeout <= 0 {
		return fmt.Errorf("fetch.wait_timeout must be positive")
	}
	return nil
}

// Opener returns the page client factory selected by Fetch.Mode.
func (c Config) Opener() pageclient.Opener {
	if c.Fetch.Mode == ModeHTTP {
		return pageclient.HTTPOpener(pageclient.HTTPOptions{
			Timeout:   c.Fetch.RequestTimeout,
			UserAgent: c.Fetch.UserAgent,
		})
	}

	opts := pageclient.DefaultBrowserOptions()
	opts.Headless = !c.Fetch.Headful
	opts.UserAgent = c.Fetch.UserAgent
	opts.ExecPath = c.Fetch.ChromePath
	return pageclient.BrowserOpener(opts)
}
