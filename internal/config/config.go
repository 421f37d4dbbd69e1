package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint  = "https://opendata.cwa.gov.tw/fileapi/v1/opendataapi/F-A0010-001"
	DefaultUserAgent = "Mozilla/5.0"
	DefaultKeyName   = "CWA_API_KEY"
	CatalogFile      = "catalog.db"
)

var validate = validator.New()

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	DataDir     string
	DBPath      string
	ConfigPath  string // Path to the YAML settings file
	SecretsPath string // dotenv-format file consulted before the environment
	Port        string
}

// Settings holds the crawler and dashboard tunables (from YAML).
type Settings struct {
	Endpoint    string        `yaml:"endpoint" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries     int           `yaml:"retries" validate:"gte=1,lte=10"`
	BackoffUnit time.Duration `yaml:"backoff_unit" validate:"gte=0"`
	UserAgent   string        `yaml:"user_agent" validate:"required"`
	// InsecureSkipVerify disables TLS certificate checks against the endpoint.
	// Some hosts ship a broken CA bundle for the CWA chain; leave this off
	// unless you know you need it.
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	DefaultCrop        string `yaml:"default_crop" validate:"max=32"`
	ListenAddr         string `yaml:"listen_addr"`
}

// GetAppConfig reads basic infrastructure settings from environment variables.
func GetAppConfig() (AppConfig, error) {
	dataDir := getenvDefault("DATA_DIR", "weather_data")

	return AppConfig{
		DataDir:     dataDir,
		DBPath:      getenvDefault("DB_PATH", filepath.Join(dataDir, CatalogFile)),
		ConfigPath:  getenvDefault("CONFIG_PATH", "config.yaml"),
		SecretsPath: getenvDefault("SECRETS_PATH", ".secrets.env"),
		Port:        getenvDefault("PORT", "8080"),
	}, nil
}

// DefaultSettings returns the values used when no YAML file is present.
func DefaultSettings() Settings {
	return Settings{
		Endpoint:    DefaultEndpoint,
		Timeout:     20 * time.Second,
		Retries:     3,
		BackoffUnit: time.Second,
		UserAgent:   DefaultUserAgent,
		DefaultCrop: "水稻",
	}
}

// LoadSettings reads the YAML file on top of DefaultSettings.
// A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.InsecureSkipVerify {
		log.Printf("WARNING: insecure_skip_verify is enabled in %s; TLS certificates will NOT be verified", path)
	}
	return &cfg, nil
}

// Validate checks the settings against their struct tags.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
