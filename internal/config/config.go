package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo corresponds to the 'app' section with basic application metadata.
type AppInfo struct {
	Name        string `yaml:"name"`        // Application name
	Version     string `yaml:"version"`     // Application version
	Environment string `yaml:"environment"` // Runtime environment (e.g. "development", "production")
}

// LoggerConfig defines the logger settings.
type LoggerConfig struct {
	Level string `yaml:"level"` // Log level (e.g. "info", "debug", "warn", "error")
}

// OpenAIConfig holds the credentials and model names for the OpenAI API.
type OpenAIConfig struct {
	APIKey         string `yaml:"apiKey"`         // API key; falls back to OPENAI_API_KEY env var when empty
	ChatModel      string `yaml:"chatModel"`      // Chat completion model (e.g. "gpt-4o-mini")
	EmbeddingModel string `yaml:"embeddingModel"` // Embedding model (e.g. "text-embedding-3-small")
}

// MySQLConfig defines the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`         // Server address
	Username        string `yaml:"username"`        // User name
	Password        string `yaml:"password"`        // Password
	Database        string `yaml:"database"`        // Database name
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // Max open connections
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // Max idle connections
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // Connection max lifetime in seconds
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Address  string `yaml:"address"`  // Server address (e.g. "localhost:6379")
	Password string `yaml:"password"` // Password
	DB       int    `yaml:"db"`       // Database number
}

// DatabaseConfigs groups all database connection settings.
type DatabaseConfigs struct {
	MySQL MySQLConfig `yaml:"mysql"` // MySQL settings
	Redis RedisConfig `yaml:"redis"` // Redis settings
}

// SummaryConfig tunes the summarization pipeline. All pipeline entry points
// receive this object explicitly; nothing reads ambient global state.
type SummaryConfig struct {
	TargetTokens    int    `yaml:"targetTokens"`    // Chunk window budget in approximate tokens
	OverlapTokens   int    `yaml:"overlapTokens"`   // Window overlap in approximate tokens
	BlockTokens     int    `yaml:"blockTokens"`     // Per-block budget for LLM consumption
	MinChars        int    `yaml:"minChars"`        // Minimum final summary length before an expansion pass
	IngestBatchSize int    `yaml:"ingestBatchSize"` // Chunk rows per insert batch
	CacheTTLSeconds int    `yaml:"cacheTTLSeconds"` // Redis summary cache TTL
	BooksDir        string `yaml:"booksDir"`        // Root folder holding books/<subject>/<file>
}

// ServerConfig defines the HTTP surface settings.
type ServerConfig struct {
	HTTPPort string `yaml:"httpPort"` // Listen address (e.g. ":8080")
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Databases DatabaseConfigs `yaml:"databases"`
	Summary   SummaryConfig   `yaml:"summary"`
	Server    ServerConfig    `yaml:"server"`
}

// LoadConfig loads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills in zero-valued tuning knobs with the pipeline defaults.
func (c *AppConfig) applyDefaults() {
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Summary.TargetTokens <= 0 {
		c.Summary.TargetTokens = 900
	}
	if c.Summary.OverlapTokens <= 0 {
		c.Summary.OverlapTokens = 100
	}
	if c.Summary.BlockTokens <= 0 {
		c.Summary.BlockTokens = 2500
	}
	if c.Summary.MinChars <= 0 {
		c.Summary.MinChars = 1500
	}
	if c.Summary.IngestBatchSize <= 0 {
		c.Summary.IngestBatchSize = 50
	}
	if c.Summary.CacheTTLSeconds <= 0 {
		c.Summary.CacheTTLSeconds = 300
	}
	if c.Summary.BooksDir == "" {
		c.Summary.BooksDir = "books"
	}
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = ":8080"
	}
}
