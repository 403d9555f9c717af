package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	LLM       LLMConfig
	Grammar   GrammarConfig
	Storage   StorageConfig
	S3        S3Config
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	InfluxDB  InfluxDBConfig
	Email     EmailConfig
	Auth      AuthConfig
	Retention RetentionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port          string
	Host          string
	MaxUploadSize int64
}

// LLMConfig holds settings for the remote model provider
type LLMConfig struct {
	Provider     string // "gemini", "openai" or "mock"
	GeminiAPIKey string
	OpenAIAPIKey string
	OpenAIBase   string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
}

// GrammarConfig holds LanguageTool connection details
type GrammarConfig struct {
	URL      string // empty disables grammar checks
	Language string
	Timeout  time.Duration
}

// StorageConfig selects where uploads and generated documents live
type StorageConfig struct {
	Backend     string // "local" or "s3"
	UploadDir   string
	ModifiedDir string
}

// S3Config holds S3 connection details
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for S3-compatible services like MinIO
}

// MongoDBConfig holds MongoDB connection details for the report cache
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
}

// RedisConfig holds Redis connection details for the task store
type RedisConfig struct {
	Addr     string // empty keeps tasks in process memory
	Password string
	DB       int
}

// InfluxDBConfig holds InfluxDB connection details for task metrics
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// EmailConfig holds SendGrid email configuration
type EmailConfig struct {
	APIKey    string
	FromEmail string
}

// AuthConfig holds API authentication settings
type AuthConfig struct {
	JWTSecret string // empty disables authentication
}

// RetentionConfig controls the stored-file sweeper
type RetentionConfig struct {
	MaxAge   time.Duration // 0 disables the sweeper
	Schedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "8000"),
			Host:          getEnv("HOST", "0.0.0.0"),
			MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_MB", 20)) << 20,
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIBase:   getEnv("OPENAI_API_BASE", ""),
			Model:        getEnv("LLM_MODEL", ""),
			Temperature:  getEnvFloat("LLM_TEMPERATURE", 0.2),
			MaxTokens:    getEnvInt("LLM_MAX_TOKENS", 8192),
			Timeout:      getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Grammar: GrammarConfig{
			URL:      getEnv("LANGUAGETOOL_URL", ""),
			Language: getEnv("LANGUAGETOOL_LANGUAGE", "en-US"),
			Timeout:  getEnvDuration("LANGUAGETOOL_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			UploadDir:   getEnv("UPLOAD_DIR", "temp_uploads"),
			ModifiedDir: getEnv("MODIFIED_DIR", "modified_docs"),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Database:   getEnv("MONGODB_DATABASE", "compliance"),
			Collection: getEnv("MONGODB_COLLECTION", "reports"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB2_URL", ""),
			Token:  getEnv("INFLUXDB2_TOKEN", ""),
			Org:    getEnv("INFLUXDB2_ORG", ""),
			Bucket: getEnv("INFLUXDB2_BUCKET", ""),
		},
		Email: EmailConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvDuration("FILE_RETENTION", 0),
			Schedule: getEnv("RETENTION_SCHEDULE", "0 0 * * * *"),
		},
	}

	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates that required configuration values are present
func ValidateConfig(config *Config) error {
	switch config.LLM.Provider {
	case "gemini":
		if config.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case "openai":
		if config.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "mock":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (expected gemini, openai or mock)", config.LLM.Provider)
	}

	switch config.Storage.Backend {
	case "local":
	case "s3":
		if config.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
		if config.S3.AccessKeyID == "" || config.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q (expected local or s3)", config.Storage.Backend)
	}

	if config.InfluxDB.URL != "" && (config.InfluxDB.Token == "" || config.InfluxDB.Org == "" || config.InfluxDB.Bucket == "") {
		return fmt.Errorf("INFLUXDB2_TOKEN, INFLUXDB2_ORG and INFLUXDB2_BUCKET are required when INFLUXDB2_URL is set")
	}
	if config.Email.APIKey != "" && config.Email.FromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL is required when SENDGRID_API_KEY is set")
	}
	if config.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// Helper functions for environment variable access
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
