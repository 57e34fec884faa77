package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// HTTP server, Postgres (job progress), object storage, pipeline tuning and telemetry.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	STORAGE_BACKEND=minio
//	STORAGE_ENDPOINT=localhost:9000
//	STORAGE_BUCKET=idx-data
//	INPUT_PREFIX=raw/
//	TOP_BROKER_BATCH_SIZE=1
//	SEGMENT_BATCH_SIZE=5
//	MAX_CONCURRENCY=4
type Config struct {
	Server    ServerConfig    // HTTP server configuration
	Postgres  PostgresConfig  // PostgreSQL connection settings (job progress)
	Storage   StorageConfig   // Object store holding input dumps and output artifacts
	Pipeline  PipelineConfig  // Batch scheduler tuning
	Telemetry TelemetryConfig // Tracing
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Postgres is only used to persist job progress. When ProgressEnabled is false the
// aggregate mode runs without a database.
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	URL             string
	ProgressEnabled bool
}

// StorageConfig selects and configures the backing object store.
//
// Fields:
//   - Backend: "minio" (any S3 compatible endpoint) or "fs" (local directory).
//   - Endpoint, AccessKey, SecretKey, UseSSL, Bucket: MinIO/S3 connection.
//   - Root: base directory for the "fs" backend.
//   - InputPrefix: key prefix under which the daily DT*.csv dumps live.
type StorageConfig struct {
	Backend     string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Bucket      string
	Root        string
	InputPrefix string
}

// PipelineConfig carries the per-pipeline batch sizes and the shared resource budget.
type PipelineConfig struct {
	TopBrokerBatchSize int
	SegmentBatchSize   int
	MaxConcurrency     int
	ChunkSize          int
	BatchPause         time.Duration
}

// TelemetryConfig toggles the stdout trace exporter.
type TelemetryConfig struct {
	TracingEnabled bool
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "brokerflow")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("PROGRESS_ENABLED", false)

	viper.SetDefault("STORAGE_BACKEND", "fs")
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_ACCESS_KEY", "minioadmin")
	viper.SetDefault("STORAGE_SECRET_KEY", "minioadmin")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("STORAGE_BUCKET", "idx-data")
	viper.SetDefault("STORAGE_ROOT", "./data")
	viper.SetDefault("INPUT_PREFIX", "raw/")

	viper.SetDefault("TOP_BROKER_BATCH_SIZE", 1)
	viper.SetDefault("SEGMENT_BATCH_SIZE", 5)
	viper.SetDefault("MAX_CONCURRENCY", 4)
	viper.SetDefault("PARSE_CHUNK_SIZE", 10000)
	viper.SetDefault("BATCH_PAUSE", "500ms")

	viper.SetDefault("TRACING_ENABLED", false)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Postgres: PostgresConfig{
			Host:            viper.GetString("POSTGRES_HOST"),
			Port:            viper.GetInt("POSTGRES_PORT"),
			User:            viper.GetString("POSTGRES_USER"),
			Password:        viper.GetString("POSTGRES_PASSWORD"),
			DBName:          viper.GetString("POSTGRES_DB"),
			SSLMode:         viper.GetString("POSTGRES_SSLMODE"),
			ProgressEnabled: viper.GetBool("PROGRESS_ENABLED"),
		},
		Storage: StorageConfig{
			Backend:     viper.GetString("STORAGE_BACKEND"),
			Endpoint:    viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:   viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:   viper.GetString("STORAGE_SECRET_KEY"),
			UseSSL:      viper.GetBool("STORAGE_USE_SSL"),
			Bucket:      viper.GetString("STORAGE_BUCKET"),
			Root:        viper.GetString("STORAGE_ROOT"),
			InputPrefix: viper.GetString("INPUT_PREFIX"),
		},
		Pipeline: PipelineConfig{
			TopBrokerBatchSize: viper.GetInt("TOP_BROKER_BATCH_SIZE"),
			SegmentBatchSize:   viper.GetInt("SEGMENT_BATCH_SIZE"),
			MaxConcurrency:     viper.GetInt("MAX_CONCURRENCY"),
			ChunkSize:          viper.GetInt("PARSE_CHUNK_SIZE"),
			BatchPause:         viper.GetDuration("BATCH_PAUSE"),
		},
		Telemetry: TelemetryConfig{
			TracingEnabled: viper.GetBool("TRACING_ENABLED"),
		},
	}

	AppConfig.Postgres.URL = PostgresDSN(AppConfig.Postgres)

	validateConfig()
}

// PostgresDSN builds the database/sql connection string for the given settings.
func PostgresDSN(pg PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pg.User,
		pg.Password,
		pg.Host,
		pg.Port,
		pg.DBName,
		pg.SSLMode,
	)
}

// missingFields returns the names of required variables that are unset or invalid.
func missingFields(cfg Config) []string {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}

	switch cfg.Storage.Backend {
	case "minio":
		if cfg.Storage.Endpoint == "" {
			missing = append(missing, "STORAGE_ENDPOINT")
		}
		if cfg.Storage.Bucket == "" {
			missing = append(missing, "STORAGE_BUCKET")
		}
	case "fs":
		if cfg.Storage.Root == "" {
			missing = append(missing, "STORAGE_ROOT")
		}
	default:
		missing = append(missing, "STORAGE_BACKEND")
	}

	if cfg.Pipeline.TopBrokerBatchSize < 1 {
		missing = append(missing, "TOP_BROKER_BATCH_SIZE")
	}
	if cfg.Pipeline.SegmentBatchSize < 1 {
		missing = append(missing, "SEGMENT_BATCH_SIZE")
	}
	if cfg.Pipeline.MaxConcurrency < 1 {
		missing = append(missing, "MAX_CONCURRENCY")
	}
	if cfg.Pipeline.ChunkSize < 1 {
		missing = append(missing, "PARSE_CHUNK_SIZE")
	}

	if cfg.Postgres.ProgressEnabled {
		if cfg.Postgres.Host == "" {
			missing = append(missing, "POSTGRES_HOST")
		}
		if cfg.Postgres.Port == 0 {
			missing = append(missing, "POSTGRES_PORT")
		}
		if cfg.Postgres.User == "" {
			missing = append(missing, "POSTGRES_USER")
		}
		if cfg.Postgres.DBName == "" {
			missing = append(missing, "POSTGRES_DB")
		}
	}

	return missing
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
func validateConfig() {
	if missing := missingFields(AppConfig); len(missing) > 0 {
		log.Fatalf("missing or invalid environment variables: %v\n", missing)
	}
}
