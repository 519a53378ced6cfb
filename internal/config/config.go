package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Redis   RedisConfig   `mapstructure:"redis"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Game    GameConfig    `mapstructure:"game"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI       string `mapstructure:"uri"`
	Database  string `mapstructure:"database"`
	SavesColl string `mapstructure:"saves_collection"`
	UsersColl string `mapstructure:"users_collection"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URI      string `mapstructure:"uri"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration int    `mapstructure:"expiration"` // in hours
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StorageConfig selects where save slots are kept
type StorageConfig struct {
	Backend  string `mapstructure:"backend"` // mongodb or redis
	Autosave bool   `mapstructure:"autosave"`
}

// GameConfig holds game-specific configuration
type GameConfig struct {
	InitialMoney           int    `mapstructure:"initial_money"`
	TotalYears             int    `mapstructure:"total_years"`
	Seed                   int64  `mapstructure:"seed"`         // 0 picks a random seed per game
	ContentDir             string `mapstructure:"content_dir"`  // empty uses the embedded catalog
	TurnTimeout            int    `mapstructure:"turn_timeout"` // in seconds
	ShopOfferSize          int    `mapstructure:"shop_offer_size"`
	MaxPlayers             int    `mapstructure:"max_players"`
	IdleGameExpiryDuration int    `mapstructure:"idle_game_expiry"` // in hours
}

// Storage backends
const (
	BackendMongoDB = "mongodb"
	BackendRedis   = "redis"
)

// Load reads configuration from a file or environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/dentetsu")

	// Environment variables, GAME_TOTAL_YEARS overrides game.total_years
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; we'll just use environment and defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", 15)
	viper.SetDefault("server.write_timeout", 15)

	// MongoDB defaults
	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb.database", "dentetsu")
	viper.SetDefault("mongodb.saves_collection", "saves")
	viper.SetDefault("mongodb.users_collection", "users")

	// Redis defaults
	viper.SetDefault("redis.uri", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// JWT defaults
	viper.SetDefault("jwt.secret", "replace-with-secure-secret")
	viper.SetDefault("jwt.expiration", 24)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", true)

	// Storage defaults
	viper.SetDefault("storage.backend", BackendMongoDB)
	viper.SetDefault("storage.autosave", true)

	// Game defaults
	viper.SetDefault("game.initial_money", 10000)
	viper.SetDefault("game.total_years", 10)
	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.content_dir", "")
	viper.SetDefault("game.turn_timeout", 120)
	viper.SetDefault("game.shop_offer_size", 4)
	viper.SetDefault("game.max_players", 4)
	viper.SetDefault("game.idle_game_expiry", 24)
}
