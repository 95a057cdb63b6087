package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                 = "TRACKER"
	defaultHTTPAddress        = "0.0.0.0:8000"
	defaultDatabasePath       = "tracker.db"
	defaultLogLevel           = "info"
	defaultTokenTTLHours      = 24
	defaultRememberTTLHours   = 24 * 30
	aesKeyHexEncodedKeyLength = 64
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	DatabasePath  string
	LogLevel      string
	SigningSecret string
	AESKeyHex     string
	TokenTTL      time.Duration
	RememberMeTTL time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_hours", defaultTokenTTLHours)
	configViper.SetDefault("token.remember_me_ttl_hours", defaultRememberTTLHours)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		DatabasePath:  configViper.GetString("database.path"),
		LogLevel:      configViper.GetString("log.level"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		AESKeyHex:     configViper.GetString("auth.aes_key"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_hours")) * time.Hour,
		RememberMeTTL: time.Duration(configViper.GetInt("token.remember_me_ttl_hours")) * time.Hour,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if len(strings.TrimSpace(c.AESKeyHex)) != aesKeyHexEncodedKeyLength {
		return fmt.Errorf("auth.aes_key must be %d hex characters", aesKeyHexEncodedKeyLength)
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 || c.RememberMeTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	return nil
}
