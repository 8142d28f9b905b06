package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	ListenAddr  string `mapstructure:"LISTEN_ADDR"`

	// Change-feed long-poll tuning.
	FeedPollIntervalMS int `mapstructure:"FEED_POLL_INTERVAL_MS"`
	FeedMaxWaitSeconds int `mapstructure:"FEED_MAX_WAIT_SECONDS"`
	FeedMaxWaiters     int `mapstructure:"FEED_MAX_WAITERS"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("FEED_POLL_INTERVAL_MS", 500)
	viper.SetDefault("FEED_MAX_WAIT_SECONDS", 20)
	viper.SetDefault("FEED_MAX_WAITERS", 512)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
