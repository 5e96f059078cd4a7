package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/vigil-sh/vigil/internal/core/domain"
)

// Config holds all configuration for the application
type Config struct {
	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Sink    SinkConfig    `yaml:"sink" mapstructure:"sink"`
}

// MonitorConfig describes the single monitored target and the transition
// behaviour. Option names follow the original daemon options
// (CHECKINTERVAL, FAILCOUNT, ...), lower-cased for yaml/env use.
type MonitorConfig struct {
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`
	FailCount     int           `yaml:"fail_count" mapstructure:"fail_count"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" mapstructure:"http_timeout"`
	IPv4          string        `yaml:"ipv4" mapstructure:"ipv4"`
	Protocol      string        `yaml:"protocol" mapstructure:"protocol"`
	TCPPort       int           `yaml:"tcp_port" mapstructure:"tcp_port"`
	Username      string        `yaml:"username" mapstructure:"username"`
	Password      string        `yaml:"password" mapstructure:"password"`
	ConfFail      string        `yaml:"conf_fail" mapstructure:"conf_fail"`
	ConfRecover   string        `yaml:"conf_recover" mapstructure:"conf_recover"`
	Regex         string        `yaml:"regex" mapstructure:"regex"`
	URLPath       string        `yaml:"url_path" mapstructure:"url_path"`
	VRF           string        `yaml:"vrf" mapstructure:"vrf"`
}

// ServerConfig holds the read-only status endpoint configuration
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SinkConfig holds the config-apply channel settings
type SinkConfig struct {
	Socket string `yaml:"socket" mapstructure:"socket"`
}

// Target snapshots the probe target from the monitor section.
func (m *MonitorConfig) Target() domain.Target {
	return domain.Target{
		Protocol: m.Protocol,
		Address:  m.IPv4,
		Port:     m.TCPPort,
		Path:     m.URLPath,
		Username: m.Username,
		Password: m.Password,
		VRF:      m.VRF,
		Timeout:  m.HTTPTimeout,
	}
}

// CompilePattern compiles the content-match regex. Unanchored, matches
// anywhere in the response body.
func (m *MonitorConfig) CompilePattern() (*regexp.Regexp, error) {
	pattern, err := regexp.Compile(m.Regex)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", m.Regex, err)
	}
	return pattern, nil
}

// Options returns the externally visible option snapshot, passwords masked,
// mirroring what the host platform shows for daemon options.
func (m *MonitorConfig) Options() map[string]string {
	options := map[string]string{
		"CHECKINTERVAL": m.CheckInterval.String(),
		"FAILCOUNT":     fmt.Sprintf("%d", m.FailCount),
		"HTTPTIMEOUT":   m.HTTPTimeout.String(),
		"IPv4":          m.IPv4,
		"PROTOCOL":      m.Protocol,
		"TCPPORT":       fmt.Sprintf("%d", m.TCPPort),
		"CONF_FAIL":     m.ConfFail,
		"CONF_RECOVER":  m.ConfRecover,
		"REGEX":         m.Regex,
		"URLPATH":       m.URLPath,
	}
	if m.Username != "" {
		options["USERNAME"] = m.Username
		options["PASSWORD"] = "********"
	}
	if m.VRF != "" {
		options["VRF"] = m.VRF
	}
	return options
}
