package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config настройки процесса; читаются из окружения, .env и необязательного файла
type Config struct {
	Port          string        `mapstructure:"PORT"`
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	LogFormat     string        `mapstructure:"LOG_FORMAT"`
	DeliveryFee   string        `mapstructure:"DELIVERY_FEE"`
	StoreDriver   string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisPrefix   string        `mapstructure:"REDIS_PREFIX"`
	KafkaBrokers  string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic    string        `mapstructure:"KAFKA_TOPIC"`
	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	SessionSecure bool          `mapstructure:"SESSION_SECURE"`
	SeedCatalog   bool          `mapstructure:"SEED_CATALOG"`
}

var keys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "DELIVERY_FEE", "STORE_DRIVER", "DATABASE_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_PREFIX", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"SESSION_SECRET", "SESSION_TTL", "SESSION_SECURE", "SEED_CATALOG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "9091")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DELIVERY_FEE", "5.00")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("REDIS_PREFIX", "storefront")
	v.SetDefault("KAFKA_TOPIC", "orders.placed")
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("SEED_CATALOG", true)
}

// Loader читает конфигурацию и следит за файлом, если он задан
type Loader struct {
	v *viper.Viper
}

// NewLoader loads .env from the working directory when present and reads
// file when it is not empty. Environment variables override both.
func NewLoader(file string) (*Loader, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return &Loader{v: v}, nil
}

func (l *Loader) Load() (*Config, error) {
	cf := &Config{}
	if err := l.v.Unmarshal(cf); err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// Watch calls fn with the reloaded config every time the config file changes.
// Only meaningful when a file was given to NewLoader.
func (l *Loader) Watch(fn func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cf, err := l.Load()
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		fn(cf)
	})
	l.v.WatchConfig()
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return fmt.Errorf("DELIVERY_FEE: %w", err)
	}
	if fee.IsNegative() {
		return errors.New("DELIVERY_FEE must not be negative")
	}
	return nil
}

// Fee returns the delivery fee; Validate has already checked it parses.
func (c *Config) Fee() decimal.Decimal {
	return decimal.RequireFromString(c.DeliveryFee)
}

func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
