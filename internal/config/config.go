package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	SQLitePath   string `yaml:"sqlitePath"`
	DatabasePath string `yaml:"databasePath"`
	LogLevel     string `yaml:"logLevel"`

	Pairing   PairingConfig   `yaml:"pairing"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Send      SendConfig      `yaml:"send"`
	HTTP      HTTPConfig      `yaml:"http"`

	MediaCacheSize int `yaml:"mediaCacheSize"`
	JobCacheSize   int `yaml:"jobCacheSize"`
}

type PairingConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Wait time.Duration `yaml:"wait"`
}

type ReconnectConfig struct {
	Base             time.Duration `yaml:"base"`
	Growth           float64       `yaml:"growth"`
	Cap              time.Duration `yaml:"cap"`
	RetryAfterLogout bool          `yaml:"retryAfterLogout"`
}

type SendConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Burst       int           `yaml:"burst"`
	BatchDelay  time.Duration `yaml:"batchDelay"`
	FanoutDelay time.Duration `yaml:"fanoutDelay"`
}

type HTTPConfig struct {
	AuthEnabled bool     `yaml:"authEnabled"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

func Default() Config {
	return Config{
		Port:         "8080",
		SQLitePath:   "./data/sessions",
		DatabasePath: "./data/gateway.db",
		LogLevel:     "info",
		Pairing: PairingConfig{
			TTL:  45 * time.Second,
			Wait: 30 * time.Second,
		},
		Reconnect: ReconnectConfig{
			Base:             2 * time.Second,
			Growth:           1.5,
			Cap:              30 * time.Second,
			RetryAfterLogout: true,
		},
		Send: SendConfig{
			Burst:       1,
			BatchDelay:  2 * time.Second,
			FanoutDelay: 2 * time.Minute,
		},
		HTTP: HTTPConfig{
			CORSOrigins: []string{"*"},
		},
		MediaCacheSize: 64,
		JobCacheSize:   256,
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.Pairing.TTL <= 0 || c.Pairing.Wait <= 0 {
		errs = append(errs, errors.New("pairing ttl and wait must be positive"))
	}
	if c.Reconnect.Base <= 0 || c.Reconnect.Cap < c.Reconnect.Base {
		errs = append(errs, errors.New("reconnect base must be positive and not above cap"))
	}
	if c.Reconnect.Growth < 1 {
		errs = append(errs, errors.New("reconnect growth must be at least 1"))
	}
	if c.Send.Interval < 0 || c.Send.BatchDelay < 0 || c.Send.FanoutDelay < 0 {
		errs = append(errs, errors.New("send delays must not be negative"))
	}
	return errors.Join(errs...)
}
