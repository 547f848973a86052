package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram        Telegram      `mapstructure:"telegram"`
	HotelsAPI       HotelsAPI     `mapstructure:"hotels_api"`
	Search          Search        `mapstructure:"search"`
	History         History       `mapstructure:"history"`
	DB              DBConfig      `mapstructure:"db"`
	Redis           Redis         `mapstructure:"redis"`
	Kafka           Kafka         `mapstructure:"kafka"`
	Log             Log           `mapstructure:"log"`
	Server          Server        `mapstructure:"server"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type Telegram struct {
	Token string `mapstructure:"token" validate:"required"`
	Debug bool   `mapstructure:"debug"`
}

// HotelsAPI configures the upstream hotel data provider.
type HotelsAPI struct {
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Key             string        `mapstructure:"key" validate:"required"`
	Host            string        `mapstructure:"host" validate:"required"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxTries        int           `mapstructure:"max_tries" validate:"min=1,max=10"`
	MaxElapsed      time.Duration `mapstructure:"max_elapsed" validate:"gt=0"`
	ResultsSize     int           `mapstructure:"results_size" validate:"min=1,max=200"`
	Parallelism     int           `mapstructure:"parallelism" validate:"min=1,max=32"`
	SiteURLTemplate string        `mapstructure:"site_url_template"`
	DumpDir         string        `mapstructure:"dump_dir"`
}

type Search struct {
	MaxHotels  int `mapstructure:"max_hotels" validate:"min=1,max=25"`
	MaxPhotos  int `mapstructure:"max_photos" validate:"min=1,max=10"`
	MaxHistory int `mapstructure:"max_history" validate:"min=1,max=10"`

	// Location is the IANA zone used for "today" and history timestamps.
	Location string `mapstructure:"location"`
}

// History selects the search history backend.
type History struct {
	Driver     string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
}

type DBConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"name"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// Redis holds sessions and the city cache when Addr is set. Without it
// sessions live in process memory.
type Redis struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Log struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type Server struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
}

var defaults = map[string]any{
	"telegram.token": "",
	"telegram.debug": false,

	"hotels_api.base_url":          "https://hotels4.p.rapidapi.com",
	"hotels_api.key":               "",
	"hotels_api.host":              "hotels4.p.rapidapi.com",
	"hotels_api.timeout":           10 * time.Second,
	"hotels_api.max_tries":         2,
	"hotels_api.max_elapsed":       20 * time.Second,
	"hotels_api.results_size":      200,
	"hotels_api.parallelism":       4,
	"hotels_api.site_url_template": "https://www.hotels.com/h%s.Hotel-Information",
	"hotels_api.dump_dir":          "",

	"search.max_hotels":  10,
	"search.max_photos":  5,
	"search.max_history": 10,
	"search.location":    "Local",

	"history.driver":      "sqlite",
	"history.sqlite_path": "hotel-bot.db",

	"db.host":           "localhost",
	"db.port":           "5432",
	"db.user":           "postgres",
	"db.password":       "postgres",
	"db.name":           "hotel_bot",
	"db.ssl_mode":       "disable",
	"db.max_open_conns": 20,
	"db.max_idle_conns": 10,
	"db.conn_lifetime":  5 * time.Minute,

	"redis.addr":        "",
	"redis.password":    "",
	"redis.db":          0,
	"redis.session_ttl": 24 * time.Hour,
	"redis.cache_ttl":   24 * time.Hour,

	"kafka.brokers": []string{},
	"kafka.topic":   "hotelbot.search.completed",

	"log.level":       "info",
	"log.development": false,

	"server.port":      "8080",
	"shutdown_timeout": 10 * time.Second,
}

// Load reads config.yaml (or config.json) when present and lets environment
// variables override every key: telegram.token is read from TELEGRAM_TOKEN.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("$HOME/.hotel-bot")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			if envValue := os.Getenv(envVar); envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	return &cfg, nil
}

// Validate checks the values the bot cannot start without.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Search.TimeLocation(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (s Search) TimeLocation() (*time.Location, error) {
	if s.Location == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Location)
}

// splitList flattens comma separated entries coming from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
