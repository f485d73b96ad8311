package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PREPBOARD_"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Kitchen  KitchenConfig  `yaml:"kitchen"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type KitchenConfig struct {
	// ReferenceDate is the event day every delivery time belongs to.
	ReferenceDate   string         `yaml:"reference_date"`
	Timezone        string         `yaml:"timezone"`
	RefreshInterval time.Duration  `yaml:"refresh_interval"`
	DeviceName      string         `yaml:"device_name"`
	LeadTimes       map[string]int `yaml:"lead_times"`
}

// Load reads the YAML file at path, then applies an optional .env file next
// to the process and PREPBOARD_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		RabbitMQ: RabbitMQConfig{
			Host: "localhost",
			Port: 5672,
		},
		HTTP: HTTPConfig{Port: 3000},
		Kitchen: KitchenConfig{
			Timezone:        "UTC",
			RefreshInterval: 60 * time.Second,
			DeviceName:      "kitchen-board",
		},
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.RabbitMQ.Host, "RABBITMQ_HOST")
	setString(&c.RabbitMQ.User, "RABBITMQ_USER")
	setString(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setString(&c.Kitchen.ReferenceDate, "REFERENCE_DATE")
	setString(&c.Kitchen.Timezone, "TIMEZONE")
	setString(&c.Kitchen.DeviceName, "DEVICE_NAME")

	if err := setInt(&c.Database.Port, "DB_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.RabbitMQ.Port, "RABBITMQ_PORT"); err != nil {
		return err
	}
	if err := setInt(&c.HTTP.Port, "HTTP_PORT"); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(envPrefix + "REFRESH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREFRESH_INTERVAL: %w", envPrefix, err)
		}
		c.Kitchen.RefreshInterval = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

// Validate fails fast on settings the board cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Kitchen.Date(); err != nil {
		return err
	}
	if _, err := c.Kitchen.Location(); err != nil {
		return err
	}
	if c.Kitchen.RefreshInterval <= 0 {
		return fmt.Errorf("kitchen.refresh_interval must be positive, got %s", c.Kitchen.RefreshInterval)
	}
	if _, err := c.Kitchen.LeadTimeTable(); err != nil {
		return err
	}
	return nil
}

func (k KitchenConfig) Date() (domain.Date, error) {
	if k.ReferenceDate == "" {
		return domain.Date{}, errors.New("kitchen.reference_date is required")
	}
	return domain.ParseDate(k.ReferenceDate)
}

func (k KitchenConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(k.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid kitchen.timezone %q: %w", k.Timezone, err)
	}
	return loc, nil
}

// LeadTimeTable falls back to the default schedule when none is configured.
func (k KitchenConfig) LeadTimeTable() (domain.LeadTimeTable, error) {
	if len(k.LeadTimes) == 0 {
		return domain.DefaultLeadTimes(), nil
	}

	hours := make(map[domain.MenuCategory]int, len(k.LeadTimes))
	for name, h := range k.LeadTimes {
		c, err := domain.ParseMenuCategory(name)
		if err != nil {
			return domain.LeadTimeTable{}, fmt.Errorf("invalid kitchen.lead_times key: %w", err)
		}
		hours[c] = h
	}
	table, err := domain.NewLeadTimeTable(hours)
	if err != nil {
		return domain.LeadTimeTable{}, fmt.Errorf("invalid kitchen.lead_times: %w", err)
	}
	return table, nil
}

// Calculator builds the prep calculator for the configured zone and lead
// times.
func (k KitchenConfig) Calculator() (*domain.PrepCalculator, error) {
	loc, err := k.Location()
	if err != nil {
		return nil, err
	}
	table, err := k.LeadTimeTable()
	if err != nil {
		return nil, err
	}
	return domain.NewPrepCalculator(table, loc), nil
}
