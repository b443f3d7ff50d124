package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the service settings read from the environment.
type Config struct {
	AppPort             string
	DBDriver            string
	DatabaseDSN         string
	RabbitMQURL         string
	RedisAddr           string
	CacheTTL            time.Duration
	ShutdownTimeout     time.Duration
	SeedExampleProducts bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "giftlist.db")
	// Empty URLs switch the event publisher and the cache off.
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("SEED_EXAMPLE_PRODUCTS", true)
}

// Load reads the configuration from v after applying defaults and
// binding environment variables.
func Load(v *viper.Viper) Config {
	SetDefaults(v)
	v.AutomaticEnv()

	return Config{
		AppPort:             v.GetString("APP_PORT"),
		DBDriver:            v.GetString("DB_DRIVER"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		CacheTTL:            v.GetDuration("CACHE_TTL"),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
		SeedExampleProducts: v.GetBool("SEED_EXAMPLE_PRODUCTS"),
	}
}
