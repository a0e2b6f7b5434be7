package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration
	DatabaseConnectRetryCount int
	DatabaseConnectRetryDelay time.Duration
	DatabaseDebug             bool
	DatabaseFilePath          string
	DatabaseMaxRetries        int
	Hostname                  string
	JWTSecret                 string
	ServerHost                string
	ServerPort                int
	UploadsDir                string
}

const environmentENV = "ENVIRONMENT"

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        3,
		Hostname:                  hostname,
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		ServerPort:                4117,
		UploadsDir:                "./uploads",
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	return cfg, nil
}

// NewForTest returns a config suitable for package tests without consulting
// the environment.
func NewForTest() *Config {
	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 1,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseMaxRetries:        3,
		Hostname:                  "test",
		JWTSecret:                 "test-secret",
		ServerPort:                0,
	}
	loadTestConfig(cfg)
	return cfg
}
