package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/nextbus/pkg/util"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "NEXTBUS_"

type Config struct {
	ArrivalsBaseURL    string        `yaml:"arrivals_base_url"`
	ArrivalsAccountKey string        `yaml:"arrivals_account_key"`
	ArrivalsTimeout    time.Duration `yaml:"arrivals_timeout"`

	PollInterval     time.Duration `yaml:"poll_interval"`
	MaxActivePollers int           `yaml:"max_active_pollers"`

	// Empty means the dataset bundled into the binary
	CatalogPath        string  `yaml:"catalog_path"`
	NearbyRadiusMeters float64 `yaml:"nearby_radius_meters"`
	PageSize           int     `yaml:"page_size"`

	RedisAddress  string `yaml:"redis_address"`
	RedisPassword string `yaml:"redis_password"`
	RedisDatabase int    `yaml:"redis_database"`

	Listen string `yaml:"listen"`
}

func Default() *Config {
	return &Config{
		ArrivalsBaseURL: "http://datamall2.mytransport.sg/ltaodataservice",
		ArrivalsTimeout: 10 * time.Second,

		PollInterval:     3 * time.Second,
		MaxActivePollers: 20,

		NearbyRadiusMeters: 2000,
		PageSize:           10,

		RedisAddress: "localhost:6379",

		Listen: ":8080",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// NEXTBUS_CONFIG and finally NEXTBUS_* environment variables. A .env file in the
// working directory is loaded into the environment first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	env := util.GetEnvironmentVariables()
	config := Default()

	if path := env[EnvironmentPrefix+"CONFIG"]; path != "" {
		if err := config.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.overlayEnvironment(env); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) overlayFile(path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fileConfig Config
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fileConfig); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	// Only values actually set in the file replace the defaults
	return copier.CopyWithOption(c, &fileConfig, copier.Option{IgnoreEmpty: true})
}

func (c *Config) overlayEnvironment(env map[string]string) error {
	strs := map[string]*string{
		"ARRIVALS_URL":         &c.ArrivalsBaseURL,
		"ARRIVALS_ACCOUNT_KEY": &c.ArrivalsAccountKey,
		"CATALOG_PATH":         &c.CatalogPath,
		"REDIS_ADDRESS":        &c.RedisAddress,
		"REDIS_PASSWORD":       &c.RedisPassword,
		"LISTEN":               &c.Listen,
	}
	for key, target := range strs {
		if value := env[EnvironmentPrefix+key]; value != "" {
			*target = value
		}
	}

	durations := map[string]*time.Duration{
		"ARRIVALS_TIMEOUT": &c.ArrivalsTimeout,
		"POLL_INTERVAL":    &c.PollInterval,
	}
	for key, target := range durations {
		if value := env[EnvironmentPrefix+key]; value != "" {
			parsed, err := ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvironmentPrefix, key, err)
			}
			*target = parsed
		}
	}

	ints := map[string]*int{
		"MAX_ACTIVE_POLLERS": &c.MaxActivePollers,
		"PAGE_SIZE":          &c.PageSize,
		"REDIS_DATABASE":     &c.RedisDatabase,
	}
	for key, target := range ints {
		if value := env[EnvironmentPrefix+key]; value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvironmentPrefix, key, err)
			}
			*target = parsed
		}
	}

	if value := env[EnvironmentPrefix+"NEARBY_RADIUS"]; value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid %sNEARBY_RADIUS: %w", EnvironmentPrefix, err)
		}
		c.NearbyRadiusMeters = parsed
	}

	return nil
}

func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.ArrivalsTimeout <= 0 {
		return fmt.Errorf("arrivals timeout must be positive, got %s", c.ArrivalsTimeout)
	}
	if c.MaxActivePollers <= 0 {
		return fmt.Errorf("max active pollers must be positive, got %d", c.MaxActivePollers)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.NearbyRadiusMeters < 0 {
		return fmt.Errorf("nearby radius must not be negative, got %f", c.NearbyRadiusMeters)
	}

	return nil
}

// ParseDuration accepts Go durations ("3s", "1m30s") and ISO8601 durations ("PT3S").
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	if strings.HasPrefix(strings.ToUpper(value), "P") {
		isoDuration, err := iso8601.ParseISO8601(strings.ToUpper(value))
		if err != nil {
			return 0, err
		}

		reference := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		return isoDuration.Shift(reference).Sub(reference), nil
	}

	return time.ParseDuration(value)
}
