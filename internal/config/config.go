package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type DispatchConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	HorizonDays    int           `mapstructure:"horizon_days"`
	DefaultChannel string        `mapstructure:"default_channel"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type PushConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

type SMSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	GatewayURL string `mapstructure:"gateway_url"`
	SenderID   string `mapstructure:"sender_id"`
}

type Config struct {
	DatabaseURL string         `mapstructure:"database_url"`
	ServerPort  string         `mapstructure:"server_port"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	Dispatch    DispatchConfig `mapstructure:"dispatch"`
	Email       EmailConfig    `mapstructure:"email"`
	Push        PushConfig     `mapstructure:"push"`
	SMS         SMSConfig      `mapstructure:"sms"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	if config.Dispatch.PollInterval == 0 {
		config.Dispatch.PollInterval = 30 * time.Second
	}
	if config.Dispatch.HorizonDays == 0 {
		config.Dispatch.HorizonDays = 30
	}
	if config.Dispatch.DefaultChannel == "" {
		config.Dispatch.DefaultChannel = "in_app"
	}
	if config.Dispatch.AttemptTimeout == 0 {
		config.Dispatch.AttemptTimeout = 10 * time.Second
	}

	return &config
}
