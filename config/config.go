package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	// Ledger store.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLeaseDB  int    `mapstructure:"REDIS_LEASE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`
	RedisChatDB   int    `mapstructure:"REDIS_CHAT_DB"`

	// Listing reservation hold.
	LeaseBackend string        `mapstructure:"LEASE_BACKEND"`
	LeaseTTL     time.Duration `mapstructure:"LEASE_TTL"`
	LeaseWait    time.Duration `mapstructure:"LEASE_WAIT"`

	// Payment gateway.
	GatewayBackend string        `mapstructure:"GATEWAY_BACKEND"`
	StripeKey      string        `mapstructure:"STRIPE_KEY"`
	GatewayTimeout time.Duration `mapstructure:"GATEWAY_TIMEOUT"`

	// Ledger event fan-out.
	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	// Lifecycle sweeps.
	SchedulerTimezone     string `mapstructure:"SCHEDULER_TIMEZONE"`
	PhaseSweepCron        string `mapstructure:"PHASE_SWEEP_CRON"`
	ReminderSweepCron     string `mapstructure:"REMINDER_SWEEP_CRON"`
	CheckoutLookaheadDays int    `mapstructure:"CHECKOUT_LOOKAHEAD_DAYS"`
}

var AppConfig Config

func LoadConfig() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	v.SetDefault("STORE_BACKEND", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "Lockbox")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LEASE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("REDIS_CHAT_DB", 2)

	v.SetDefault("LEASE_BACKEND", "redis")
	v.SetDefault("LEASE_TTL", 30*time.Second)
	v.SetDefault("LEASE_WAIT", 3*time.Second)

	v.SetDefault("GATEWAY_BACKEND", "stripe")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("GATEWAY_TIMEOUT", 20*time.Second)

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "lockbox.events")

	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	v.SetDefault("PHASE_SWEEP_CRON", "0 0 * * *")
	v.SetDefault("REMINDER_SWEEP_CRON", "0 1 * * *")
	v.SetDefault("CHECKOUT_LOOKAHEAD_DAYS", 4)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the time zone sweeps compute calendar days in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Origins splits CORS_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
