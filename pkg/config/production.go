package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DatabaseFilePath = envOrDefault("DATABASE_FILE_PATH", "/data/kashihon.sqlite")
	cfg.ServerHost = ""
	cfg.UploadsDir = envOrDefault("UPLOADS_DIRECTORY", "/data/uploads")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
