package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"safetube/internal/models"
)

// Backend names for the video source and the scorer. The active backend
// is chosen once at startup from this config; nothing in the core ever
// re-detects its environment at call time.
const (
	SourceYouTube = "youtube"
	SourceSample  = "sample"

	ScorerGemini    = "gemini"
	ScorerHeuristic = "heuristic"
)

type Config struct {
	Source     SourceConfig     `yaml:"source"`
	AI         AIConfig         `yaml:"ai"`
	Search     SearchConfig     `yaml:"search"`
	Storage    StorageConfig    `yaml:"storage"`
	Watcher    WatcherConfig    `yaml:"watcher"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

type SourceConfig struct {
	Backend string        `yaml:"backend"`
	YouTube YouTubeConfig `yaml:"youtube"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
}

type AIConfig struct {
	Provider     string `yaml:"provider"`
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
	// ChildAge is the target age band, e.g. "3-6". It steers the
	// scoring prompt only; the filter thresholds do not depend on it.
	ChildAge     string `yaml:"child_age"`
	FilterPrompt string `yaml:"filter_prompt"`
}

type SearchConfig struct {
	DefaultFilterMode  models.FilterMode `yaml:"default_filter_mode"`
	DefaultPlatform    models.Platform   `yaml:"default_platform"`
	MaxResults         int               `yaml:"max_results"`
	MinDurationMinutes int               `yaml:"min_duration_minutes"`
	MaxDurationMinutes int               `yaml:"max_duration_minutes"`
	ScoringConcurrency int               `yaml:"scoring_concurrency"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type WatcherConfig struct {
	Schedule string   `yaml:"schedule"`
	Queries  []string `yaml:"queries"`
}

type EmailConfig struct {
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	Username     string `yaml:"username" env:"EMAIL_USERNAME"`
	Password     string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail    string `yaml:"from_email"`
	ToEmail      string `yaml:"to_email"`
	TemplateFile string `yaml:"template_file"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads the config file named by CONFIG_FILE (default
// "config.yaml"), fills gaps from the environment and applies defaults.
// A missing default config file is not an error so that the sample
// source and heuristic scorer work out of the box; a missing explicit
// CONFIG_FILE is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.Source.YouTube.APIKey == "" {
		c.Source.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.Source.YouTube.ClientID == "" {
		c.Source.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.Source.YouTube.ClientSecret == "" {
		c.Source.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
}

func (c *Config) applyDefaults() {
	if c.Source.Backend == "" {
		c.Source.Backend = SourceYouTube
	}
	if c.Source.YouTube.TokenFile == "" {
		c.Source.YouTube.TokenFile = "youtube_token.json"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ScorerGemini
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.ChildAge == "" {
		c.AI.ChildAge = "3-6"
	}
	if c.Search.DefaultFilterMode == "" {
		c.Search.DefaultFilterMode = models.FilterBalanced
	}
	if c.Search.DefaultPlatform == "" {
		c.Search.DefaultPlatform = models.PlatformYouTube
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 10
	}
	if c.Search.MaxDurationMinutes == 0 {
		c.Search.MaxDurationMinutes = 20
	}
	if c.Search.ScoringConcurrency == 0 {
		c.Search.ScoringConcurrency = 4
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/safetube.db"
	}
	if c.Watcher.Schedule == "" {
		c.Watcher.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Email.TemplateFile == "" {
		c.Email.TemplateFile = "templates/digest.html"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	switch c.Source.Backend {
	case SourceSample:
	case SourceYouTube:
		if c.Source.YouTube.APIKey == "" && c.Source.YouTube.ClientID == "" {
			return fmt.Errorf("YouTube source needs an API key (set YOUTUBE_API_KEY or source.youtube.api_key) or an OAuth client id")
		}
		if c.Source.YouTube.ClientID != "" && c.Source.YouTube.APIKey == "" && c.Source.YouTube.ClientSecret == "" {
			return fmt.Errorf("YouTube OAuth client secret is required (set GOOGLE_CLIENT_SECRET or source.youtube.client_secret)")
		}
	default:
		return fmt.Errorf("unknown source backend %q (expected %s or %s)", c.Source.Backend, SourceYouTube, SourceSample)
	}

	switch c.AI.Provider {
	case ScorerHeuristic:
	case ScorerGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
		}
	default:
		return fmt.Errorf("unknown AI provider %q (expected %s or %s)", c.AI.Provider, ScorerGemini, ScorerHeuristic)
	}

	if !c.Search.DefaultFilterMode.Valid() {
		return fmt.Errorf("invalid default filter mode %q", c.Search.DefaultFilterMode)
	}
	if !c.Search.DefaultPlatform.Valid() {
		return fmt.Errorf("invalid default platform %q", c.Search.DefaultPlatform)
	}
	if c.Search.MinDurationMinutes < 0 || c.Search.MaxDurationMinutes < 0 {
		return fmt.Errorf("duration bounds must be non-negative")
	}
	return nil
}

// ValidateEmail checks the fields the digest sender needs. Called only
// by the watcher; plain searches never touch SMTP.
func (c *Config) ValidateEmail() error {
	if c.Email.SMTPServer == "" || c.Email.SMTPPort == 0 {
		return fmt.Errorf("SMTP server and port are required for digest email")
	}
	if c.Email.Username == "" || c.Email.Password == "" {
		return fmt.Errorf("email credentials are required (set EMAIL_USERNAME and EMAIL_PASSWORD)")
	}
	if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
		return fmt.Errorf("from_email and to_email are required for digest email")
	}
	return nil
}
