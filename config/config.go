package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the service reads at startup.
// Values come from an optional YAML file, then .env, then the
// process environment, the last one winning.
type Config struct {
	Port          string `yaml:"port"`
	GrpcPort      string `yaml:"grpc_port"`
	AllowedOrigin string `yaml:"allowed_origin"`

	GraphURL      string `yaml:"graph_url"`
	GraphUsername string `yaml:"graph_username"`
	GraphPassword string `yaml:"graph_password"`

	MemURL   string        `yaml:"mem_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	NatsURL       string `yaml:"nats_url"`
	ZipkinAddress string `yaml:"zipkin_address"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTIssuer string        `yaml:"jwt_issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	PaymentAPI    string `yaml:"payment_api"`
	PaymentSecret string `yaml:"payment_secret"`

	ReportRetention time.Duration `yaml:"report_retention"`
}

// ErrMissingSecret is returned by Validate when no JWT secret is set
var ErrMissingSecret = errors.New("missing JWT_SECRET")

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:            "8888",
		GrpcPort:        "8889",
		AllowedOrigin:   "*",
		GraphURL:        "bolt://localhost:7687",
		MemURL:          "localhost:11211",
		CacheTTL:        5 * time.Minute,
		JWTIssuer:       "https://forum.gravitalia.com",
		TokenTTL:        7 * 24 * time.Hour,
		ReportRetention: 30 * 24 * time.Hour,
	}
}

// Load reads the YAML file at path (if any) and applies
// environment overrides on top of it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Get key-value in .env file
	_ = godotenv.Load()

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the settings needed to sign or verify tokens.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Port, "PORT")
	setString(&c.GrpcPort, "GRPC_PORT")
	setString(&c.AllowedOrigin, "ALLOWED_ORIGIN")
	setString(&c.GraphURL, "GRAPH_URL")
	setString(&c.GraphUsername, "GRAPH_USERNAME")
	setString(&c.GraphPassword, "GRAPH_PASSWORD")
	setString(&c.MemURL, "MEM_URL")
	setString(&c.NatsURL, "NATS_URL")
	setString(&c.ZipkinAddress, "ZIPKIN_ADDRESS")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.JWTIssuer, "JWT_ISSUER")
	setString(&c.PaymentAPI, "PAYMENT_API")
	setString(&c.PaymentSecret, "PAYMENT_SECRET")

	if err := setSeconds(&c.CacheTTL, "CACHE_TTL"); err != nil {
		return err
	}
	if err := setSeconds(&c.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}

	if v := os.Getenv("REPORT_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return fmt.Errorf("invalid REPORT_RETENTION_DAYS %q", v)
		}
		c.ReportRetention = time.Duration(days) * 24 * time.Hour
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setSeconds reads an integer number of seconds.
func setSeconds(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return fmt.Errorf("invalid %s %q", key, v)
	}
	*dst = time.Duration(seconds) * time.Second

	return nil
}
