package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultCheckInterval = 5 * time.Second
	DefaultFailCount     = 2
	DefaultHTTPTimeout   = 20 * time.Second
	DefaultURLPath       = "/"

	DefaultStatusHost = "localhost"
	DefaultStatusPort = 19850

	DefaultSinkSocket = "/var/run/command-api.sock"
)

// DefaultConfig returns a configuration with sensible defaults. The mandatory
// monitor options (ipv4, protocol, tcp_port, regex, conf_fail, conf_recover)
// have no defaults and must come from the operator.
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			CheckInterval: DefaultCheckInterval,
			FailCount:     DefaultFailCount,
			HTTPTimeout:   DefaultHTTPTimeout,
			URLPath:       DefaultURLPath,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            DefaultStatusHost,
			Port:            DefaultStatusPort,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Sink: SinkConfig{
			Socket: DefaultSinkSocket,
		},
	}
}

// Load loads configuration from file and environment variables. When
// onConfigChange is non-nil the config file is watched and the callback runs
// on every change; the callback re-reads and validates itself so a broken
// edit never replaces a working configuration.
func Load(onConfigChange func()) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/vigil")

	viper.SetEnvPrefix("VIGIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env vars.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if configFile := os.Getenv("VIGIL_CONFIG_FILE"); configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if onConfigChange != nil {
		viper.OnConfigChange(func(e fsnotify.Event) {
			onConfigChange()
		})
		viper.WatchConfig()
	}

	return config, nil
}

// Reload re-reads the watched config file into a fresh, validated snapshot.
// Used by the hot-reload callback; the caller decides what to do with it.
func Reload() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error re-reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate enforces the mandatory options and rejects values the monitor
// cannot run with. A validation failure is fatal at startup and causes a
// reload to be rejected, keeping the previous configuration active.
func (c *Config) Validate() error {
	m := &c.Monitor

	for _, check := range []struct {
		value string
		key   string
	}{
		{m.IPv4, "monitor.ipv4"},
		{m.Protocol, "monitor.protocol"},
		{m.Regex, "monitor.regex"},
		{m.ConfFail, "monitor.conf_fail"},
		{m.ConfRecover, "monitor.conf_recover"},
	} {
		if check.value == "" {
			return fmt.Errorf("%s is mandatory", check.key)
		}
	}

	if m.Protocol != "http" && m.Protocol != "https" {
		return fmt.Errorf("monitor.protocol must be http or https, got %q", m.Protocol)
	}

	if m.TCPPort < 1 || m.TCPPort > 65535 {
		return fmt.Errorf("monitor.tcp_port must be in 1..65535, got %d", m.TCPPort)
	}

	if _, err := m.CompilePattern(); err != nil {
		return err
	}

	if m.CheckInterval <= 0 {
		return fmt.Errorf("monitor.check_interval must be positive, got %s", m.CheckInterval)
	}

	if m.FailCount < 1 {
		return fmt.Errorf("monitor.fail_count must be at least 1, got %d", m.FailCount)
	}

	if m.HTTPTimeout <= 0 {
		return fmt.Errorf("monitor.http_timeout must be positive, got %s", m.HTTPTimeout)
	}

	return nil
}
