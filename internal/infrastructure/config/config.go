package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Daisy Bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Daisy   DaisyConfig   `yaml:"daisy"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Logging LoggingConfig `yaml:"logging"`
}

// DaisyConfig contains Teleco Daisy cloud account and transport settings.
type DaisyConfig struct {
	// Email and Password are the Daisy account credentials. Both are
	// required; set them via DAISYBRIDGE_DAISY_EMAIL and
	// DAISYBRIDGE_DAISY_PASSWORD rather than committing them to the file.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// BaseURL overrides the production service endpoint. Leave empty for
	// the default.
	BaseURL string `yaml:"base_url"`

	// HTTPTimeout is the per-request timeout in seconds.
	HTTPTimeout int `yaml:"http_timeout"`

	// Ack tunes the command acknowledgment poller.
	Ack AckConfig `yaml:"ack"`
}

// AckConfig contains command acknowledgment polling settings.
type AckConfig struct {
	// IntervalMillis is the delay between acknowledgment queries.
	IntervalMillis int `yaml:"interval_millis"`

	// MaxAttempts bounds the poll loop. 0 uses the default budget;
	// a negative value polls without bound.
	MaxAttempts int `yaml:"max_attempts"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// BridgeConfig contains cloud-to-MQTT bridge settings.
type BridgeConfig struct {
	// PollInterval is the state refresh period in seconds.
	PollInterval int `yaml:"poll_interval"`

	// CommandTimeout bounds a single command dispatch, including its
	// acknowledgment wait, in seconds.
	CommandTimeout int `yaml:"command_timeout"`

	// Installations restricts the bridge to the named installation codes.
	// Empty means every installation on the account.
	Installations []string `yaml:"installations"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: DAISYBRIDGE_SECTION_KEY
// For example: DAISYBRIDGE_DAISY_EMAIL, DAISYBRIDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Daisy: DaisyConfig{
			HTTPTimeout: 15,
			Ack: AckConfig{
				IntervalMillis: 500,
				MaxAttempts:    0,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "daisybridge",
			},
			QoS:         1,
			TopicPrefix: "daisy",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Bridge: BridgeConfig{
			PollInterval:   30,
			CommandTimeout: 150,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: DAISYBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Daisy account (IMPORTANT: prefer env vars over file for credentials)
	if v := os.Getenv("DAISYBRIDGE_DAISY_EMAIL"); v != "" {
		cfg.Daisy.Email = v
	}
	if v := os.Getenv("DAISYBRIDGE_DAISY_PASSWORD"); v != "" {
		cfg.Daisy.Password = v
	}
	if v := os.Getenv("DAISYBRIDGE_DAISY_BASE_URL"); v != "" {
		cfg.Daisy.BaseURL = v
	}

	// MQTT
	if v := os.Getenv("DAISYBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("DAISYBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("DAISYBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Bridge
	if v := os.Getenv("DAISYBRIDGE_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.PollInterval = n
		}
	}

	// Logging
	if v := os.Getenv("DAISYBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Daisy validation - credentials are REQUIRED
	if c.Daisy.Email == "" {
		errs = append(errs, "daisy.email is required (set DAISYBRIDGE_DAISY_EMAIL environment variable)")
	}
	if c.Daisy.Password == "" {
		errs = append(errs, "daisy.password is required (set DAISYBRIDGE_DAISY_PASSWORD environment variable)")
	}
	if c.Daisy.HTTPTimeout < 1 {
		errs = append(errs, "daisy.http_timeout must be at least 1 second")
	}
	if c.Daisy.Ack.IntervalMillis < 1 {
		errs = append(errs, "daisy.ack.interval_millis must be at least 1")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	// Bridge validation
	if c.Bridge.PollInterval < 1 {
		errs = append(errs, "bridge.poll_interval must be at least 1 second")
	}
	if c.Bridge.CommandTimeout < 1 {
		errs = append(errs, "bridge.command_timeout must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHTTPTimeout returns the Daisy per-request timeout as a Duration.
func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.Daisy.HTTPTimeout) * time.Second
}

// GetAckInterval returns the acknowledgment poll interval as a Duration.
func (c *Config) GetAckInterval() time.Duration {
	return time.Duration(c.Daisy.Ack.IntervalMillis) * time.Millisecond
}

// GetPollInterval returns the bridge state refresh period as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Bridge.PollInterval) * time.Second
}

// GetCommandTimeout returns the per-command dispatch budget as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Bridge.CommandTimeout) * time.Second
}
