// Package config loads settings from configs/config.yaml with environment
// variable overrides on top. A .env file is honored when present.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
	Port           string `yaml:"port" env:"PORT"`
	//Scheduler
	ScrapeIntervalHours int `yaml:"scrape_interval_hours" env:"SCRAPE_INTERVAL_HOURS"`
	//Search criteria
	Keywords []string `yaml:"keywords"`
	Location string   `yaml:"location"`
	MaxPages int      `yaml:"max_pages"`
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Printf("Warning: Could not read config.yaml: %v", err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
	}

	//Override with env vars
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if hours := os.Getenv("SCRAPE_INTERVAL_HOURS"); hours != "" {
		h, err := strconv.Atoi(hours)
		if err != nil {
			log.Fatalf("Invalid SCRAPE_INTERVAL_HOURS: %v", err)
		}
		cfg.ScrapeIntervalHours = h
	}

	//Set default values if not set
	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	if cfg.ScrapeIntervalHours <= 0 {
		cfg.ScrapeIntervalHours = 6
	}

	if cfg.Location == "" {
		cfg.Location = "Vietnam"
	}

	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}

	return cfg
}

// Notifications reports whether a Telegram reporter can be configured.
func (c *Config) Notifications() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
