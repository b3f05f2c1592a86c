package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DriverAMQP      = "amqp"
	DriverJetStream = "jetstream"
)

// ErrInvalidConfig is returned when loaded settings cannot start the service
var ErrInvalidConfig = errors.New("invalid configuration")

// APIConfig describes the HTTP surface
type APIConfig struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
}

// Addr returns host:port for the HTTP listener
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RabbitConfig holds broker connection and addressing settings
type RabbitConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	VHost        string `yaml:"vhost"`
	Queue        string `yaml:"queue"`
	Exchange     string `yaml:"exchange"`
	ExchangeType string `yaml:"exchange_type"`
	RoutingKey   string `yaml:"routing_key"`
}

// Config is the full runtime configuration of the relay
type Config struct {
	API            APIConfig     `yaml:"api"`
	Rabbit         RabbitConfig  `yaml:"rabbit"`
	BrokerDriver   string        `yaml:"broker_driver"`
	NATSURL        string        `yaml:"nats_url"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	StrictDates    bool          `yaml:"strict_dates"`
}

// Default returns the settings used when nothing overrides them
func Default() Config {
	return Config{
		API: APIConfig{
			Title:       "Event Relay",
			Version:     "1.0.0",
			Description: "Receives webhook events and relays them to the message broker",
			Host:        "0.0.0.0",
			Port:        8000,
		},
		Rabbit: RabbitConfig{
			Host:         "localhost",
			Port:         5672,
			Username:     "guest",
			Password:     "guest",
			VHost:        "/",
			ExchangeType: "direct",
		},
		BrokerDriver:   DriverAMQP,
		NATSURL:        "nats://localhost:4222",
		PublishTimeout: 5 * time.Second,
		DialTimeout:    10 * time.Second,
		LogLevel:       "info",
		LogFormat:      "console",
		MetricsEnabled: true,
	}
}

// Load reads the configuration and validates it for the relay.
func Load() (Config, error) {
	cfg, err := Read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read reads .env, an optional YAML file named by CONFIG_FILE and the process
// environment, in increasing order of precedence. Values are not validated.
func Read() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var errs []error

	cfg.API.Title = getEnv("API_TITLE", cfg.API.Title)
	cfg.API.Version = getEnv("API_VERSION", cfg.API.Version)
	cfg.API.Description = getEnv("API_DESCRIPTION", cfg.API.Description)
	cfg.API.Host = getEnv("API_HOST", cfg.API.Host)
	cfg.API.Port = getEnvAsInt("API_PORT", cfg.API.Port, &errs)

	cfg.Rabbit.Host = getEnv("RABBIT_HOST", cfg.Rabbit.Host)
	cfg.Rabbit.Port = getEnvAsInt("RABBIT_PORT", cfg.Rabbit.Port, &errs)
	cfg.Rabbit.Username = getEnv("RABBIT_USERNAME", cfg.Rabbit.Username)
	cfg.Rabbit.Password = getEnv("RABBIT_PASSWORD", cfg.Rabbit.Password)
	cfg.Rabbit.VHost = getEnv("RABBIT_VHOST", cfg.Rabbit.VHost)
	cfg.Rabbit.Queue = getEnv("RABBIT_QUEUE", cfg.Rabbit.Queue)
	cfg.Rabbit.Exchange = getEnv("RABBIT_EXCHANGE", cfg.Rabbit.Exchange)
	cfg.Rabbit.ExchangeType = getEnv("RABBIT_EXCHANGE_TYPE", cfg.Rabbit.ExchangeType)
	cfg.Rabbit.RoutingKey = getEnv("RABBIT_ROUTING_KEY", cfg.Rabbit.RoutingKey)

	cfg.BrokerDriver = strings.ToLower(getEnv("BROKER_DRIVER", cfg.BrokerDriver))
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.PublishTimeout = getEnvAsDuration("PUBLISH_TIMEOUT", cfg.PublishTimeout, &errs)
	cfg.DialTimeout = getEnvAsDuration("DIAL_TIMEOUT", cfg.DialTimeout, &errs)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.MetricsEnabled = getEnvAsBool("METRICS_ENABLED", cfg.MetricsEnabled, &errs)
	cfg.StrictDates = getEnvAsBool("STRICT_DATES", cfg.StrictDates, &errs)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate reports every setting that would keep the relay from starting
func (c Config) Validate() error {
	var errs []error

	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT %d out of range", c.API.Port))
	}
	if c.PublishTimeout <= 0 {
		errs = append(errs, errors.New("PUBLISH_TIMEOUT must be positive"))
	}
	if c.Rabbit.Exchange == "" {
		errs = append(errs, errors.New("RABBIT_EXCHANGE is required"))
	}
	if c.Rabbit.RoutingKey == "" {
		errs = append(errs, errors.New("RABBIT_ROUTING_KEY is required"))
	}

	switch c.BrokerDriver {
	case DriverAMQP:
		if c.Rabbit.Host == "" {
			errs = append(errs, errors.New("RABBIT_HOST is required"))
		}
		if c.Rabbit.Port <= 0 || c.Rabbit.Port > 65535 {
			errs = append(errs, fmt.Errorf("RABBIT_PORT %d out of range", c.Rabbit.Port))
		}
	case DriverJetStream:
		if c.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BROKER_DRIVER %q", c.BrokerDriver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return intValue
}

func getEnvAsDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func getEnvAsBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return b
}
