package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/insurhub/underwriter/internal/domain/scoring"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	AIService  AIServiceConfig  `mapstructure:"ai_service"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// ScoringConfig selects which scoring backend adjudicates submissions.
// Supported providers: "ai_service" (HTTP scoring sidecar) and "openai".
type ScoringConfig struct {
	Provider string `mapstructure:"provider"`
}

// AIServiceConfig holds the HTTP scoring service configuration
type AIServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ThresholdsConfig holds the risk routing boundaries
type ThresholdsConfig struct {
	ClaimAutoApprove       float64 `mapstructure:"claim_auto_approve"`
	ClaimAdminReview       float64 `mapstructure:"claim_admin_review"`
	ApplicationAutoApprove float64 `mapstructure:"application_auto_approve"`
}

// Scoring converts the config section into domain thresholds.
func (t ThresholdsConfig) Scoring() scoring.Thresholds {
	return scoring.Thresholds{
		ClaimAutoApprove:       t.ClaimAutoApprove,
		ClaimAdminReview:       t.ClaimAdminReview,
		ApplicationAutoApprove: t.ApplicationAutoApprove,
	}
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Pull a local .env into the process environment if one exists
	_ = gotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/underwriter.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Scoring defaults
	viper.SetDefault("scoring.provider", "ai_service")
	viper.SetDefault("ai_service.base_url", "http://localhost:8000")
	viper.SetDefault("ai_service.timeout", 5*time.Second)

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4")
	viper.SetDefault("openai.temperature", 0.3)
	viper.SetDefault("openai.timeout", 60*time.Second)

	// Threshold defaults mirror scoring.DefaultThresholds
	defaults := scoring.DefaultThresholds()
	viper.SetDefault("thresholds.claim_auto_approve", defaults.ClaimAutoApprove)
	viper.SetDefault("thresholds.claim_admin_review", defaults.ClaimAdminReview)
	viper.SetDefault("thresholds.application_auto_approve", defaults.ApplicationAutoApprove)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("ai_service.base_url", "AI_SERVICE_URL")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Scoring.Provider {
	case "ai_service":
		if c.AIService.BaseURL == "" {
			return fmt.Errorf("ai_service.base_url is required")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required")
		}
	default:
		return fmt.Errorf("scoring.provider must be \"ai_service\" or \"openai\", got %q", c.Scoring.Provider)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if err := c.Thresholds.Scoring().Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	return nil
}
