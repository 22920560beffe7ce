package config

import (
	"log"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DatabaseDSN        string
	UploadDir          string
	Port               string
	AutoMatchThreshold int
}

// Load reads configuration from the environment (a .env file is loaded by
// main before this runs). Missing values fall back to development defaults.
func Load() *Config {
	cfg := &Config{
		DatabaseDSN:        getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=reconciliation port=5432 sslmode=disable"),
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		Port:               getEnv("PORT", "8080"),
		AutoMatchThreshold: 85,
	}

	if v := os.Getenv("AUTO_MATCH_THRESHOLD"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid AUTO_MATCH_THRESHOLD %q, using default %d", v, cfg.AutoMatchThreshold)
		} else {
			cfg.AutoMatchThreshold = t
		}
	}

	return cfg
}

func InitDB(cfg *Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
