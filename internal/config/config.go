package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the API server configuration.
type Config struct {
	// Server settings
	Env            string        `envconfig:"APP_ENV" default:"development"`
	Port           string        `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding    string        `envconfig:"LOG_ENCODING" default:"json"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"0"` // 0 keeps SSE streams open
	IdleTimeout    time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, loaded from file
	DBPassword string

	// Redis settings
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Secret field, loaded from file (optional)
	RedisPassword string

	// RabbitMQ settings
	RabbitMQURL         string `envconfig:"RABBITMQ_URL" required:"true"`
	GenerationTaskQueue string `envconfig:"GENERATION_TASK_QUEUE" default:"fictures_generation_tasks"`

	// JWT settings
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	// Secret field, loaded from file
	JWTSecret string

	// Rate limiting
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// SSE settings
	SSEPingInterval time.Duration `envconfig:"SSE_PING_INTERVAL" default:"25s"`
	SSEClientBuffer int           `envconfig:"SSE_CLIENT_BUFFER" default:"16"`

	// Publish scheduler settings
	SchedulerInterval  time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"30s"`
	SchedulerBatchSize int           `envconfig:"SCHEDULER_BATCH_SIZE" default:"20"`

	// AI settings
	AIClientType        string        `envconfig:"AI_CLIENT_TYPE" default:"openai"` // openai or ollama
	AIBaseURL           string        `envconfig:"AI_BASE_URL" default:""`
	AIModel             string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	ImageClientType     string        `envconfig:"IMAGE_CLIENT_TYPE" default:"openai"` // openai or diffusion
	AIImageModel        string        `envconfig:"AI_IMAGE_MODEL" default:"dall-e-3"`
	ImageServerURL      string        `envconfig:"IMAGE_SERVER_URL" default:""`
	AIRequestTimeout    time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"120s"`
	PlaceholderImageURL string        `envconfig:"PLACEHOLDER_IMAGE_URL" default:"/assets/placeholders/scene.png"`
	// Secret field, loaded from file (optional for local providers)
	AIAPIKey string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.RedisPassword = ReadOptionalSecret("redis_password")
	cfg.AIAPIKey = ReadOptionalSecret("ai_api_key")

	log.Printf("Server configuration loaded (secrets from files):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Generation Task Queue: %s", cfg.GenerationTaskQueue)
	log.Printf("  Rate Limit: %d req / %v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	log.Printf("  Scheduler: every %v (batch %d)", cfg.SchedulerInterval, cfg.SchedulerBatchSize)
	log.Printf("  AI Client: %s (model %s)", cfg.AIClientType, cfg.AIModel)
	log.Printf("  Image Client: %s (model %s)", cfg.ImageClientType, cfg.AIImageModel)
	log.Println("  JWT Secret: [LOADED]")

	return &cfg, nil
}
