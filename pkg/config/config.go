package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Groq     GroqConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"callscope"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// TTL for cached terminal artifacts; they are immutable so this is
	// purely a memory bound, not a consistency knob.
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"1h"`
}

// StorageConfig holds MinIO document store configuration
type StorageConfig struct {
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"callscope"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// GroqConfig holds the classification service configuration
type GroqConfig struct {
	APIKey  string        `envconfig:"GROQ_API_KEY" default:""`
	BaseURL string        `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model   string        `envconfig:"GROQ_MODEL" default:"llama-3.3-70b-versatile"`
	Timeout time.Duration `envconfig:"GROQ_TIMEOUT" default:"90s"`
}

// PipelineConfig holds analysis pipeline tuning
type PipelineConfig struct {
	// Persistence retry policy: the transactional write is attempted once
	// plus up to MaxRetries additional times, delay doubling from BaseDelay.
	MaxRetries int           `envconfig:"PIPELINE_MAX_RETRIES" default:"3"`
	BaseDelay  time.Duration `envconfig:"PIPELINE_RETRY_BASE_DELAY" default:"1s"`

	// Transaction slot budget shared across concurrent pipelines.
	TxSlots   int           `envconfig:"PIPELINE_TX_SLOTS" default:"8"`
	TxMaxWait time.Duration `envconfig:"PIPELINE_TX_MAX_WAIT" default:"10s"`
	TxTimeout time.Duration `envconfig:"PIPELINE_TX_TIMEOUT" default:"15s"`

	// Extraction chunking for oversized documents.
	ChunkSize    int `envconfig:"PIPELINE_CHUNK_SIZE" default:"32000"`
	ChunkOverlap int `envconfig:"PIPELINE_CHUNK_OVERLAP" default:"200"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("PIPELINE_MAX_RETRIES must not be negative")
	}
	if c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		return fmt.Errorf("PIPELINE_CHUNK_OVERLAP must be smaller than PIPELINE_CHUNK_SIZE")
	}
	if c.Server.Environment == "production" && c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required in production")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
