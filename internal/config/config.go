package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	// Wallet settings
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic" yaml:"mnemonic"`

	// The wallet whose incoming balances trigger sells, and the operator's
	// creator vault (constant across all of the operator's coins)
	WatchedWallet string `mapstructure:"watched_wallet" yaml:"watched_wallet"`
	CreatorVault  string `mapstructure:"creator_vault" yaml:"creator_vault"`

	// Trading settings
	Trading TradingConfig `mapstructure:"trading" yaml:"trading"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Advanced settings
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// TradingConfig contains trading-related settings
type TradingConfig struct {
	// Minimum lamports accepted for a sell. Zero disables the slippage
	// floor, which matches live behavior but accepts sandwich risk.
	MinSolOutput uint64 `mapstructure:"min_sol_output" yaml:"min_sol_output"`

	MaxRetries   int `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelayMs int `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`

	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price" yaml:"compute_unit_price"` // Micro-lamports per compute unit
	ComputeUnitLimit uint32 `mapstructure:"compute_unit_limit" yaml:"compute_unit_limit"` // Max compute units

	BlockhashRefreshSecs int `mapstructure:"blockhash_refresh_secs" yaml:"blockhash_refresh_secs"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
	TradeLogDir string `mapstructure:"trade_log_dir" yaml:"trade_log_dir"`
}

// AdvancedConfig contains advanced settings
type AdvancedConfig struct {
	EnableMetrics  bool `mapstructure:"enable_metrics" yaml:"enable_metrics"`
	MetricsPort    int  `mapstructure:"metrics_port" yaml:"metrics_port"`
	RPCTimeoutSecs int  `mapstructure:"rpc_timeout_secs" yaml:"rpc_timeout_secs"`
}

// RPCTimeout returns the configured RPC request timeout
func (c *Config) RPCTimeout() time.Duration {
	if c.Advanced.RPCTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Advanced.RPCTimeoutSecs) * time.Second
}

// RetryDelay returns the delay between retryable sell attempts
func (c *Config) RetryDelay() time.Duration {
	if c.Trading.RetryDelayMs <= 0 {
		return DefaultRetryDelayMs * time.Millisecond
	}
	return time.Duration(c.Trading.RetryDelayMs) * time.Millisecond
}

// BlockhashRefreshInterval returns the blockhash cache refresh interval
func (c *Config) BlockhashRefreshInterval() time.Duration {
	if c.Trading.BlockhashRefreshSecs <= 0 {
		return DefaultBlockhashRefreshSecs * time.Second
	}
	return time.Duration(c.Trading.BlockhashRefreshSecs) * time.Second
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string, envPath string) (*Config, error) {
	config := &Config{}

	// First, load .env file if specified or default locations
	if err := loadEnvFile(envPath); err != nil {
		fmt.Printf("Warning: Failed to load .env file: %v\n", err)
	}

	// Set default values
	setDefaults()

	// Set config file path
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and common config directories
		viper.SetConfigName("sweeper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.wallet-sweeper")
		viper.AddConfigPath("/etc/wallet-sweeper/")
	}

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SWEEPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Manually bind environment variables that viper might miss
	bindEnvVariables()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, continue with defaults and env vars
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	resolveEndpoints(config)

	// Validate and post-process config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("network", "mainnet")

	viper.SetDefault("trading.min_sol_output", 0)
	viper.SetDefault("trading.max_retries", DefaultMaxRetries)
	viper.SetDefault("trading.retry_delay_ms", DefaultRetryDelayMs)
	viper.SetDefault("trading.compute_unit_price", DefaultComputeUnitPrice)
	viper.SetDefault("trading.compute_unit_limit", DefaultComputeUnitLimit)
	viper.SetDefault("trading.blockhash_refresh_secs", DefaultBlockhashRefreshSecs)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.log_to_file", false)
	viper.SetDefault("logging.trade_log_dir", "logs/trades")

	viper.SetDefault("advanced.enable_metrics", false)
	viper.SetDefault("advanced.metrics_port", 9090)
	viper.SetDefault("advanced.rpc_timeout_secs", 30)
}

// bindEnvVariables manually binds environment variables that viper might miss
func bindEnvVariables() {
	viper.BindEnv("network", "SWEEPER_NETWORK")
	viper.BindEnv("rpc_url", "SWEEPER_RPC_URL")
	viper.BindEnv("ws_url", "SWEEPER_WS_URL")
	viper.BindEnv("rpc_api_key", "SWEEPER_RPC_API_KEY", "HELIUS_API_KEY")
	viper.BindEnv("private_key", "SWEEPER_PRIVATE_KEY", "PRIVATE_KEY")
	viper.BindEnv("mnemonic", "SWEEPER_MNEMONIC")
	viper.BindEnv("watched_wallet", "SWEEPER_WATCHED_WALLET")
	viper.BindEnv("creator_vault", "SWEEPER_CREATOR_VAULT")

	viper.BindEnv("trading.min_sol_output", "SWEEPER_TRADING_MIN_SOL_OUTPUT")
	viper.BindEnv("trading.max_retries", "SWEEPER_TRADING_MAX_RETRIES")
	viper.BindEnv("trading.retry_delay_ms", "SWEEPER_TRADING_RETRY_DELAY_MS")
	viper.BindEnv("trading.compute_unit_price", "SWEEPER_TRADING_COMPUTE_UNIT_PRICE")
	viper.BindEnv("trading.compute_unit_limit", "SWEEPER_TRADING_COMPUTE_UNIT_LIMIT")
	viper.BindEnv("trading.blockhash_refresh_secs", "SWEEPER_TRADING_BLOCKHASH_REFRESH_SECS")

	viper.BindEnv("logging.level", "SWEEPER_LOGGING_LEVEL")
	viper.BindEnv("logging.format", "SWEEPER_LOGGING_FORMAT")
	viper.BindEnv("logging.log_to_file", "SWEEPER_LOGGING_LOG_TO_FILE")

	viper.BindEnv("advanced.enable_metrics", "SWEEPER_ADVANCED_ENABLE_METRICS")
	viper.BindEnv("advanced.metrics_port", "SWEEPER_ADVANCED_METRICS_PORT")
	viper.BindEnv("advanced.rpc_timeout_secs", "SWEEPER_ADVANCED_RPC_TIMEOUT_SECS")
}

// resolveEndpoints fills in Helius endpoints from the API key when no
// explicit URLs are configured
func resolveEndpoints(config *Config) {
	if config.RPCUrl == "" {
		if config.RPCAPIKey != "" && config.Network == "mainnet" {
			config.RPCUrl = HeliusMainnetRPC + config.RPCAPIKey
		} else {
			config.RPCUrl = GetRPCEndpoint(config.Network)
		}
	}
	if config.WSUrl == "" {
		if config.RPCAPIKey != "" && config.Network == "mainnet" {
			config.WSUrl = HeliusMainnetWS + config.RPCAPIKey
		} else {
			config.WSUrl = GetWSEndpoint(config.Network)
		}
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.PrivateKey == "" && config.Mnemonic == "" {
		return fmt.Errorf("private_key or mnemonic is required (set PRIVATE_KEY in .env)")
	}

	if config.WatchedWallet == "" {
		return fmt.Errorf("watched_wallet is required")
	}

	if config.CreatorVault == "" {
		return fmt.Errorf("creator_vault is required")
	}

	if config.Trading.MaxRetries <= 0 {
		config.Trading.MaxRetries = DefaultMaxRetries
	}

	if config.Trading.ComputeUnitLimit == 0 {
		config.Trading.ComputeUnitLimit = DefaultComputeUnitLimit
	}

	return nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile(envPath string) error {
	var envFiles []string

	// If specific path provided, use it first
	if envPath != "" {
		envFiles = append(envFiles, envPath)
	}

	// Add default .env file locations
	envFiles = append(envFiles, []string{
		".env",
		"./.env",
		"configs/.env",
	}...)

	var envFile string
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			envFile = file
			break
		}
	}

	if envFile == "" {
		if envPath != "" {
			return fmt.Errorf("specified .env file not found: %s", envPath)
		}
		return fmt.Errorf(".env file not found in any of the expected locations: %v", envFiles)
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE format
		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				// Remove quotes if present
				if len(value) >= 2 {
					if (strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"")) ||
						(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
						value = value[1 : len(value)-1]
					}
				}

				os.Setenv(key, value)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}
