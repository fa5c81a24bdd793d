package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server Server
	Store  Store
	Redis  Redis
	Postgres Postgres
	Cors   Cors
	Logger LoggerConfig
	Jaeger Jaeger
}

type Server struct {
	Port    string
	RunMode string
	Domain  string
}

// Store selects the backing implementations for the two collaborator
// collections. Drivers: "redis" (default), "memory"; userDriver may
// additionally be "postgres".
type Store struct {
	Driver     string
	UserDriver string
}

type LoggerConfig struct {
	Level string
}

type Postgres struct {
	Host            string
	Port            string
	User            string
	Password        string
	DbName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type Redis struct {
	Host         string
	Port         string
	Password     string
	Db           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	PoolTimeout  time.Duration
}

type Cors struct {
	AllowOrigins string
}

type Jaeger struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.Port = envPort
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")

	if wd, err := os.Getwd(); err == nil {
		v.AddConfigPath(filepath.Join(wd, "config"))
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())
	return v, nil
}

func getConfigPath(env string) string {
	switch env {
	case "docker":
		return "config-docker"
	case "production":
		return "config-production"
	default:
		return "config-development"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}

	switch c.Store.Driver {
	case "", "redis", "memory":
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}

	switch c.Store.UserDriver {
	case "", "redis", "memory", "postgres":
	default:
		return fmt.Errorf("store.userDriver %q is not supported", c.Store.UserDriver)
	}

	if c.RoomDriver() == "redis" || c.UserDriver() == "redis" {
		if c.Redis.Host == "" {
			return errors.New("redis.host is required")
		}
		if c.Redis.Port == "" {
			return errors.New("redis.port is required")
		}
	}

	if c.UserDriver() == "postgres" {
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
		if c.Postgres.DbName == "" {
			return errors.New("postgres.dbName is required")
		}
	}

	return nil
}

// RoomDriver resolves the effective room store driver.
func (c *Config) RoomDriver() string {
	if c.Store.Driver == "" {
		return "redis"
	}
	return c.Store.Driver
}

// UserDriver resolves the effective user store driver, defaulting to the
// room store driver.
func (c *Config) UserDriver() string {
	if c.Store.UserDriver == "" {
		return c.RoomDriver()
	}
	return c.Store.UserDriver
}

func (c *Config) IsDevelopment() bool {
	return c.Server.RunMode == "debug" || c.Server.RunMode == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.RunMode == "release" || c.Server.RunMode == "production"
}

func (c *Config) GetPostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.DbName,
		c.Postgres.SSLMode,
	)
}

func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}
