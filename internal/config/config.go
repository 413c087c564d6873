package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Entropy  EntropyConfig
	Treasury TreasuryConfig
	Lottery  LotteryConfig
	Admin    AdminConfig
	LogLevel string
}

// AdminConfig holds the bootstrap admin credentials for fresh deployments
type AdminConfig struct {
	Email    string
	Password string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration for the admin surface
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// EntropyConfig holds randomness-oracle configuration. CallbackToken is the
// shared secret the oracle presents on its delivery callback.
type EntropyConfig struct {
	BaseURL       string
	APIKey        string
	Provider      string
	CallbackToken string
	MockAPI       bool
}

// TreasuryConfig holds value-transfer gateway configuration
type TreasuryConfig struct {
	BaseURL     string
	APIKey      string
	MockGateway bool
}

// TierConfig holds one tier's pool parameters. EntryFee is a decimal
// integer string in the ledger's smallest unit.
type TierConfig struct {
	EntryFee        string
	MaxParticipants int
	MinParticipants int
	Active          bool
}

// LotteryConfig holds the core lottery parameters
type LotteryConfig struct {
	FeeBps      int64
	ReferralBps int64
	Owner       string
	Bronze      TierConfig
	Silver      TierConfig
	Gold        TierConfig
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "entropy-lottery")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")

	viper.SetDefault("Entropy.MockAPI", true)
	viper.SetDefault("Entropy.Provider", "0x52DeaA1c84233F7bb8C8A45baeDE41091c616506")
	viper.SetDefault("Treasury.MockGateway", true)

	viper.SetDefault("Lottery.FeeBps", 250)     // 2.5% protocol fee
	viper.SetDefault("Lottery.ReferralBps", 100) // 1% referral bonus
	viper.SetDefault("Lottery.Owner", "0x0000000000000000000000000000000000000000")

	viper.SetDefault("Lottery.Bronze.EntryFee", "10000000000000000") // 0.01 ether
	viper.SetDefault("Lottery.Bronze.MaxParticipants", 10)
	viper.SetDefault("Lottery.Bronze.MinParticipants", 3)
	viper.SetDefault("Lottery.Bronze.Active", true)

	viper.SetDefault("Lottery.Silver.EntryFee", "50000000000000000") // 0.05 ether
	viper.SetDefault("Lottery.Silver.MaxParticipants", 10)
	viper.SetDefault("Lottery.Silver.MinParticipants", 3)
	viper.SetDefault("Lottery.Silver.Active", true)

	viper.SetDefault("Lottery.Gold.EntryFee", "100000000000000000") // 0.1 ether
	viper.SetDefault("Lottery.Gold.MaxParticipants", 10)
	viper.SetDefault("Lottery.Gold.MinParticipants", 3)
	viper.SetDefault("Lottery.Gold.Active", true)
}

// TierFor returns the configuration block for a tier name.
func (c *LotteryConfig) TierFor(name string) TierConfig {
	switch name {
	case "silver":
		return c.Silver
	case "gold":
		return c.Gold
	default:
		return c.Bronze
	}
}
