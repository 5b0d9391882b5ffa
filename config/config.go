package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	APIKey         string
	PrivateKey     string
	RPCURL         string
	APIURL         string
	RouterAddress  string
	Slippage       float64
	RequestTimeout time.Duration
	PollInterval   time.Duration
	PollAttempts   int
	RateLimit      float64
	HistoryDir     string
	LogLevel       string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".ooga-booga")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("api_url", "https://mainnet.api.oogabooga.io")
	viper.SetDefault("rpc_url", "https://rpc.berachain.com")
	viper.SetDefault("slippage", 0.02)
	viper.SetDefault("request_timeout", "30s")
	viper.SetDefault("poll_interval", "2s")
	viper.SetDefault("poll_attempts", 60)
	viper.SetDefault("rate_limit", 5.0)
	viper.SetDefault("history_dir", "swap_history")
	viper.SetDefault("log_level", "info")

	// Read from environment variables
	viper.SetEnvPrefix("OOGA_BOOGA")
	viper.AutomaticEnv()

	// The original deployment exported these without the prefix
	_ = viper.BindEnv("private_key", "OOGA_BOOGA_PRIVATE_KEY", "PRIVATE_KEY")
	_ = viper.BindEnv("rpc_url", "OOGA_BOOGA_RPC_URL", "BERA_RPC_URL")

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		APIKey:         viper.GetString("api_key"),
		PrivateKey:     viper.GetString("private_key"),
		RPCURL:         viper.GetString("rpc_url"),
		APIURL:         viper.GetString("api_url"),
		RouterAddress:  viper.GetString("router_address"),
		Slippage:       viper.GetFloat64("slippage"),
		RequestTimeout: viper.GetDuration("request_timeout"),
		PollInterval:   viper.GetDuration("poll_interval"),
		PollAttempts:   viper.GetInt("poll_attempts"),
		RateLimit:      viper.GetFloat64("rate_limit"),
		HistoryDir:     viper.GetString("history_dir"),
		LogLevel:       viper.GetString("log_level"),
	}

	// Every API call is authenticated, so the key is always required
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not found. Please set OOGA_BOOGA_API_KEY environment variable or create a .ooga-booga.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// RequireSigner verifies the configuration can sign transactions.
// Read-only commands never call this.
func (c *Config) RequireSigner() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not found. Please set OOGA_BOOGA_PRIVATE_KEY (or PRIVATE_KEY) to sign transactions")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
