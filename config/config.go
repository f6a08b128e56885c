package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHost is the public API endpoint
	DefaultHost = "api.tempo-db.com"
	// DefaultPort is the port the API listens on
	DefaultPort = 80
	// DefaultTimeout bounds a single API request
	DefaultTimeout = 30 * time.Second
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Logging LogConfig     `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Publish PublishConfig `yaml:"publish"`
}

type APIConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Secure     *bool         `yaml:"secure"` // nil means true
	Key        string        `yaml:"key"`
	Secret     string        `yaml:"secret"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retryCount"`
	RetryWait  time.Duration `yaml:"retryWait"`
}

type LogConfig struct {
	Level      string `yaml:"level"`      // debug, info, warn, error
	OutputPath string `yaml:"outputPath"` // file path, "stdout" or "stderr"
	Encoding   string `yaml:"encoding"`   // json or console

	// Rotation of file outputs
	MaxSizeMB  int `yaml:"maxSizeMB"`
	MaxBackups int `yaml:"maxBackups"`
	MaxAgeDays int `yaml:"maxAgeDays"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PushGateway string `yaml:"pushGateway"`
	Job         string `yaml:"job"`
}

type PublishConfig struct {
	// Driver selects the broker used by --publish: "mqtt" or "nats"
	Driver string     `yaml:"driver"`
	Topic  string     `yaml:"topic"` // template, {key} is replaced by the series key
	MQTT   MQTTConfig `yaml:"mqtt"`
	NATS   NATSConfig `yaml:"nats"`
}

type MQTTConfig struct {
	Broker   string    `yaml:"broker"`
	ClientID string    `yaml:"clientId"`
	Username string    `yaml:"username"`
	Password string    `yaml:"password"`
	QoS      byte      `yaml:"qos"`
	TLS      TLSConfig `yaml:"tls"`
}

type NATSConfig struct {
	URLs     []string  `yaml:"urls"`
	ClientID string    `yaml:"clientId"`
	Username string    `yaml:"username"`
	Password string    `yaml:"password"`
	TLS      TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enable   bool   `yaml:"enable"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
	CAFile   string `yaml:"caFile"`
}

// IsSecure reports whether requests go over https
func (c APIConfig) IsSecure() bool {
	return c.Secure == nil || *c.Secure
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	// API
	if config.API.Host == "" {
		config.API.Host = DefaultHost
	}
	if config.API.Port == 0 {
		config.API.Port = DefaultPort
	}
	if config.API.Timeout <= 0 {
		config.API.Timeout = DefaultTimeout
	}
	if config.API.RetryWait <= 0 {
		config.API.RetryWait = time.Second
	}

	// Logging goes to stderr so command output stays parseable
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.OutputPath == "" {
		config.Logging.OutputPath = "stderr"
	}
	if config.Logging.Encoding == "" {
		config.Logging.Encoding = "console"
	}
	if config.Logging.MaxSizeMB <= 0 {
		config.Logging.MaxSizeMB = 10
	}
	if config.Logging.MaxBackups <= 0 {
		config.Logging.MaxBackups = 3
	}

	if config.Metrics.Job == "" {
		config.Metrics.Job = "tempoiq"
	}

	if config.Publish.Topic == "" {
		config.Publish.Topic = "tempoiq/{key}"
	}
	if config.Publish.MQTT.ClientID == "" {
		config.Publish.MQTT.ClientID = "tempoiq-cli"
	}
	if config.Publish.NATS.ClientID == "" {
		config.Publish.NATS.ClientID = "tempoiq-cli"
	}
}

// validateConfig performs validation of all configuration values
func validateConfig(cfg *Config) error {
	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", cfg.API.Port)
	}
	if cfg.API.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}

	switch cfg.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding: %s", cfg.Logging.Encoding)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.PushGateway != "" {
		if _, err := url.ParseRequestURI(cfg.Metrics.PushGateway); err != nil {
			return fmt.Errorf("invalid metrics push gateway: %w", err)
		}
	}

	switch cfg.Publish.Driver {
	case "":
	case "mqtt":
		if cfg.Publish.MQTT.Broker == "" {
			return fmt.Errorf("mqtt broker address is required")
		}
		if cfg.Publish.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt qos must be 0, 1, or 2")
		}
		if err := validateTLS(cfg.Publish.MQTT.TLS); err != nil {
			return err
		}
	case "nats":
		if len(cfg.Publish.NATS.URLs) == 0 {
			return fmt.Errorf("at least one nats url is required")
		}
		if err := validateTLS(cfg.Publish.NATS.TLS); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid publish driver: %s", cfg.Publish.Driver)
	}

	return nil
}

func validateTLS(tls TLSConfig) error {
	if !tls.Enable {
		return nil
	}
	if tls.CertFile == "" && tls.KeyFile != "" {
		return fmt.Errorf("tls cert file is required when a key file is set")
	}
	if tls.KeyFile == "" && tls.CertFile != "" {
		return fmt.Errorf("tls key file is required when a cert file is set")
	}
	return nil
}

// ApplyEnv fills credentials from TEMPOIQ_KEY and TEMPOIQ_SECRET when set
func (c *Config) ApplyEnv() {
	if key := os.Getenv("TEMPOIQ_KEY"); key != "" {
		c.API.Key = key
	}
	if secret := os.Getenv("TEMPOIQ_SECRET"); secret != "" {
		c.API.Secret = secret
	}
}

// ApplyOverrides applies command line flag overrides to the configuration
func (c *Config) ApplyOverrides(host string, port int, logLevel string, timeout time.Duration) {
	if host != "" {
		c.API.Host = host
	}
	if port > 0 {
		c.API.Port = port
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if timeout > 0 {
		c.API.Timeout = timeout
	}
}

// Validate re-checks the configuration after overrides were applied
func (c *Config) Validate() error {
	return validateConfig(c)
}
