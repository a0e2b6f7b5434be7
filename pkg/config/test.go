package config

import "os"

func loadTestConfig(cfg *Config) {
	cfg.DatabaseDebug = false
	cfg.DatabaseFilePath = ":memory:"
	cfg.ServerHost = "127.0.0.1"
	cfg.UploadsDir = os.TempDir()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
}
