package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// WorkerConfig holds the generation worker configuration.
type WorkerConfig struct {
	AppEnv      string `env:"APP_ENV" env-default:"development"`
	MetricsPort string `env:"METRICS_PORT" env-default:"9091"`
	Logger      LoggerConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	RabbitMQ    RabbitMQConfig
	AI          AIWorkerConfig

	// Fallback asset served when an image provider fails.
	PlaceholderImageURL string `env:"PLACEHOLDER_IMAGE_URL" env-default:"/assets/placeholders/scene.png"`
}

// LoggerConfig is the worker's logging config.
type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

// PostgresConfig is the worker's database connection config.
type PostgresConfig struct {
	Host     string `env:"DB_HOST" env-required:"true"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-required:"true"`
	Name     string `env:"DB_NAME" env-required:"true"`
	SSLMode  string `env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns int    `env:"DB_MAX_CONNECTIONS" env-default:"5"`
	// Secret field, loaded from file
	Password string
}

// RedisConfig is the worker's Redis connection config, used for publishing
// generation events.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	DB   int    `env:"REDIS_DB" env-default:"0"`
	// Secret field, loaded from file (optional)
	Password string
}

// RabbitMQConfig is the worker's queue consumption config.
type RabbitMQConfig struct {
	URL          string `env:"RABBITMQ_URL" env-required:"true"`
	ConsumerName string `env:"RABBITMQ_CONSUMER_NAME" env-default:"fictures_generation_worker"`
	TaskQueue    string `env:"GENERATION_TASK_QUEUE" env-default:"fictures_generation_tasks"`
	Concurrency  int    `env:"WORKER_CONCURRENCY" env-default:"4"`
}

// AIWorkerConfig mirrors the server's AI provider settings for the worker.
type AIWorkerConfig struct {
	ClientType      string        `env:"AI_CLIENT_TYPE" env-default:"openai"`
	BaseURL         string        `env:"AI_BASE_URL" env-default:""`
	Model           string        `env:"AI_MODEL" env-default:"gpt-4o-mini"`
	ImageClientType string        `env:"IMAGE_CLIENT_TYPE" env-default:"openai"`
	ImageModel      string        `env:"AI_IMAGE_MODEL" env-default:"dall-e-3"`
	ImageServerURL  string        `env:"IMAGE_SERVER_URL" env-default:""`
	RequestTimeout  time.Duration `env:"AI_REQUEST_TIMEOUT" env-default:"120s"`
	MaxAttempts     int           `env:"AI_MAX_ATTEMPTS" env-default:"2"`
	RetryBaseDelay  time.Duration `env:"AI_RETRY_BASE_DELAY" env-default:"2s"`
	// Secret field, loaded from file (optional for local providers)
	APIKey string
}

// GetDSN returns the PostgreSQL connection string for the worker.
func (c *PostgresConfig) GetDSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

// LoadWorker loads the worker configuration from env and secret files.
func LoadWorker() *WorkerConfig {
	// .env is optional
	_ = godotenv.Load()

	var cfg WorkerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("Error loading worker configuration: %v", err)
	}

	dbPassword, err := ReadSecret("db_password")
	if err != nil {
		log.Fatalf("Error loading worker db password: %v", err)
	}
	cfg.Postgres.Password = dbPassword
	cfg.Redis.Password = ReadOptionalSecret("redis_password")
	cfg.AI.APIKey = ReadOptionalSecret("ai_api_key")

	return &cfg
}
