// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds configuration for the servers and their backing stores.
type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	StoreDriver     string
	MySQLDSN        string
	SQLitePath      string
	RedisAddr       string
	RedisPassword   string
	ShutdownTimeout time.Duration
	LogLevel        string
	OTLPEndpoint    string
	ServiceName     string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load reads an optional .env file, then collects configuration from the
// environment with defaults. Variables already set win over .env values.
func Load() Config {
	_ = godotenv.Load()

	driver := getenv("STORE_DRIVER", DriverMySQL)
	if driver != DriverSQLite {
		driver = DriverMySQL
	}

	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		GRPCAddr:        getenv("GRPC_ADDR", ":50051"),
		StoreDriver:     driver,
		MySQLDSN:        getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockroom"),
		SQLitePath:      getenv("SQLITE_PATH", "stockroom.db"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASS", ""),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		OTLPEndpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:     getenv("SERVICE_NAME", "stockroom"),
	}
}
