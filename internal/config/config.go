package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Worker     WorkerConfig
	Logging    LoggingConfig
	EventBus   EventBusConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Archive    ArchiveConfig
	Matching   MatchingConfig
	Submission SubmissionConfig
	History    HistoryConfig
	Session    SessionConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
	BodyLimit       string
}

type WorkerConfig struct {
	PoolSize   int
	MaxRetries int
}

type LoggingConfig struct {
	Level string
}

type EventBusConfig struct {
	ChannelBufferSize int
	RetryBaseDelay    time.Duration
}

// DatabaseConfig selects the Postgres store when DSN is set; otherwise the
// in-memory store is used.
type DatabaseConfig struct {
	DSN         string
	AutoMigrate bool
}

type StorageConfig struct {
	Backend        string
	LocalDir       string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// RedisConfig with an empty Addr falls back to an in-process lock.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type ArchiveConfig struct {
	MaxEntries        int
	MaxEntryBytes     int64
	MaxTotalBytes     int64
	AllowedExtensions []string
	ValidatePDF       bool
}

type MatchingConfig struct {
	RulesFile string
}

type SubmissionConfig struct {
	CreditRate      decimal.Decimal
	CopyConcurrency int
	CopyAttempts    int
}

type HistoryConfig struct {
	Tolerance       time.Duration
	Retention       time.Duration
	BatchSize       int
	OutputPrefix    string
	OutputExtension string
	Interval        time.Duration
	LockTTL         time.Duration
}

type SessionConfig struct {
	MaxAge          time.Duration
	CleanupInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnv("SERVER_BODY_LIMIT", "600M"),
		},
		Worker: WorkerConfig{
			PoolSize:   getIntEnv("WORKER_POOL_SIZE", 1),
			MaxRetries: getIntEnv("MAX_RETRIES", 3),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		EventBus: EventBusConfig{
			ChannelBufferSize: getIntEnv("EVENT_CHANNEL_BUFFER_SIZE", 16),
			RetryBaseDelay:    getDurationEnv("EVENT_RETRY_BASE_DELAY", time.Second),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("DATABASE_DSN", ""),
			AutoMigrate: getBoolEnv("DATABASE_AUTO_MIGRATE", false),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			LocalDir:       getEnv("STORAGE_LOCAL_DIR", "./data"),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "rex-documents"),
			MinioUseSSL:    getBoolEnv("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "rex:lock"),
		},
		Archive: ArchiveConfig{
			MaxEntries:        getIntEnv("ARCHIVE_MAX_ENTRIES", 1000),
			MaxEntryBytes:     int64(getIntEnv("ARCHIVE_MAX_ENTRY_BYTES", 50<<20)),
			MaxTotalBytes:     int64(getIntEnv("ARCHIVE_MAX_TOTAL_BYTES", 500<<20)),
			AllowedExtensions: getListEnv("ARCHIVE_ALLOWED_EXTENSIONS", []string{".pdf"}),
			ValidatePDF:       getBoolEnv("ARCHIVE_VALIDATE_PDF", false),
		},
		Matching: MatchingConfig{
			RulesFile: getEnv("MATCH_RULES_FILE", ""),
		},
		Submission: SubmissionConfig{
			CreditRate:      getDecimalEnv("SUBMISSION_CREDIT_RATE", decimal.NewFromInt(2)),
			CopyConcurrency: getIntEnv("SUBMISSION_COPY_CONCURRENCY", 4),
			CopyAttempts:    getIntEnv("SUBMISSION_COPY_ATTEMPTS", 3),
		},
		History: HistoryConfig{
			Tolerance:       getDurationEnv("HISTORY_TOLERANCE", time.Minute),
			Retention:       getDurationEnv("HISTORY_RETENTION", 7*24*time.Hour),
			BatchSize:       getIntEnv("HISTORY_BATCH_SIZE", 100),
			OutputPrefix:    getEnv("HISTORY_OUTPUT_PREFIX", "pdfs/"),
			OutputExtension: getEnv("HISTORY_OUTPUT_EXTENSION", ".pdf"),
			Interval:        getDurationEnv("HISTORY_SYNC_INTERVAL", 0),
			LockTTL:         getDurationEnv("HISTORY_LOCK_TTL", 30*time.Minute),
		},
		Session: SessionConfig{
			MaxAge:          getDurationEnv("SESSION_MAX_AGE", 2*time.Hour),
			CleanupInterval: getDurationEnv("SESSION_CLEANUP_INTERVAL", time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid bool for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil || value.IsNegative() {
		log.Printf("Invalid decimal for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getListEnv splits a comma separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
