// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level h2scope configuration.
type Config struct {
	ServiceName    string           `yaml:"service_name" env:"H2SCOPE_SERVICE_NAME"`
	ServiceVersion string           `yaml:"service_version"`
	DeploymentEnv  string           `yaml:"deployment_env"`
	LogLevel       string           `yaml:"log_level" env:"H2SCOPE_LOG_LEVEL"`
	Capture        CaptureConfig    `yaml:"capture"`
	HTTP2          HTTP2Config      `yaml:"http2"`
	Conntrack      ConntrackConfig  `yaml:"conntrack"`
	Exporters      ExportersConfig  `yaml:"exporters"`
	Redaction      RedactionConfig  `yaml:"redaction"`
	ServiceMap     ServiceMapConfig `yaml:"service_map"`
	Health         HealthConfig     `yaml:"health"`
}

// CaptureConfig selects the packet source. A non-empty PcapFile wins over
// Interfaces.
type CaptureConfig struct {
	Interfaces  []string `yaml:"interfaces"`
	PcapFile    string   `yaml:"pcap_file"`
	BPFFilter   string   `yaml:"bpf_filter"`
	SnapLen     int      `yaml:"snaplen"`
	Promiscuous bool     `yaml:"promiscuous"`
}

// HTTP2Config controls HTTP/2 detection and header block limits.
type HTTP2Config struct {
	Ports          []int `yaml:"ports"`            // always treated as HTTP/2
	MaxHeaderBlock int   `yaml:"max_header_block"` // bytes, per assembled block
}

// PortList returns the configured ports as uint16 values.
func (h *HTTP2Config) PortList() []uint16 {
	out := make([]uint16, 0, len(h.Ports))
	for _, p := range h.Ports {
		out = append(out, uint16(p))
	}
	return out
}

// ConntrackConfig bounds the connection table.
type ConntrackConfig struct {
	MaxConns       int           `yaml:"max_conns"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	ExpireInterval time.Duration `yaml:"expire_interval"`
}

// ExportersConfig holds event exporter settings.
type ExportersConfig struct {
	OTLP          OTLPConfig    `yaml:"otlp"`
	Stdout        StdoutConfig  `yaml:"stdout"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// OTLPConfig configures the OTLP logs exporter.
type OTLPConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	Protocol    string            `yaml:"protocol"` // "grpc" or "http"
	Insecure    bool              `yaml:"insecure"`
	Compression string            `yaml:"compression"` // "gzip" or "none"
	Headers     map[string]string `yaml:"headers"`
}

// StdoutConfig configures the stdout exporter.
type StdoutConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "text" or "json"
}

// RedactionConfig masks sensitive header values before export.
type RedactionConfig struct {
	Enabled bool     `yaml:"enabled"`
	Headers []string `yaml:"headers"` // added to the built-in list
}

// ServiceMapConfig controls the client to server call graph.
type ServiceMapConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// HealthConfig configures the health/metrics HTTP server.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port" env:"H2SCOPE_HEALTH_PORT"` // e.g. ":8686"
}

// Load reads a YAML config file, applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServiceName: "h2scope",
		LogLevel:    "info",
		Capture: CaptureConfig{
			Interfaces: []string{"any"},
			BPFFilter:  "tcp",
			SnapLen:    65535,
		},
		HTTP2: HTTP2Config{
			Ports:          []int{50051, 8443},
			MaxHeaderBlock: 64 * 1024,
		},
		Conntrack: ConntrackConfig{
			MaxConns:       10000,
			IdleTimeout:    5 * time.Minute,
			ExpireInterval: 30 * time.Second,
		},
		Exporters: ExportersConfig{
			OTLP: OTLPConfig{
				Enabled:     false,
				Endpoint:    "localhost:4317",
				Protocol:    "grpc",
				Insecure:    true,
				Compression: "gzip",
			},
			Stdout: StdoutConfig{
				Enabled: true,
				Format:  "text",
			},
			BatchSize:     512,
			FlushInterval: time.Second,
		},
		Redaction: RedactionConfig{
			Enabled: true,
		},
		ServiceMap: ServiceMapConfig{
			Enabled: true,
			MaxAge:  10 * time.Minute,
		},
		Health: HealthConfig{
			Enabled: true,
			Port:    ":8686",
		},
	}
}

// LoadDir reads base.yaml and then overlays capture.yaml and export.yaml
// from dir. Missing files are skipped.
func LoadDir(dir string) (*Config, error) {
	cfg := DefaultConfig()

	for _, f := range []string{"base.yaml", "capture.yaml", "export.yaml"} {
		if err := loadFileInto(filepath.Join(dir, f), cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func loadFileInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ApplyEnvOverrides overrides config values from H2SCOPE_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	envOverrides := map[string]func(string){
		"H2SCOPE_SERVICE_NAME":            func(v string) { c.ServiceName = v },
		"H2SCOPE_LOG_LEVEL":               func(v string) { c.LogLevel = v },
		"H2SCOPE_HEALTH_PORT":             func(v string) { c.Health.Port = v },
		"H2SCOPE_CAPTURE_PCAP_FILE":       func(v string) { c.Capture.PcapFile = v },
		"H2SCOPE_CAPTURE_BPF_FILTER":      func(v string) { c.Capture.BPFFilter = v },
		"H2SCOPE_CAPTURE_INTERFACES":      func(v string) { c.Capture.Interfaces = splitList(v) },
		"H2SCOPE_HTTP2_PORTS":             func(v string) { c.HTTP2.Ports = parsePorts(v, c.HTTP2.Ports) },
		"H2SCOPE_EXPORTERS_OTLP_ENDPOINT": func(v string) { c.Exporters.OTLP.Endpoint = v },
		"H2SCOPE_EXPORTERS_OTLP_PROTOCOL": func(v string) { c.Exporters.OTLP.Protocol = v },
		"H2SCOPE_EXPORTERS_STDOUT_FORMAT": func(v string) { c.Exporters.Stdout.Format = v },
	}

	boolOverrides := map[string]*bool{
		"H2SCOPE_CAPTURE_PROMISCUOUS":      &c.Capture.Promiscuous,
		"H2SCOPE_EXPORTERS_OTLP_ENABLED":   &c.Exporters.OTLP.Enabled,
		"H2SCOPE_EXPORTERS_STDOUT_ENABLED": &c.Exporters.Stdout.Enabled,
		"H2SCOPE_REDACTION_ENABLED":        &c.Redaction.Enabled,
		"H2SCOPE_SERVICE_MAP_ENABLED":      &c.ServiceMap.Enabled,
		"H2SCOPE_HEALTH_ENABLED":           &c.Health.Enabled,
	}

	intOverrides := map[string]*int{
		"H2SCOPE_HTTP2_MAX_HEADER_BLOCK": &c.HTTP2.MaxHeaderBlock,
		"H2SCOPE_CONNTRACK_MAX_CONNS":    &c.Conntrack.MaxConns,
	}

	for envKey, setter := range envOverrides {
		if val := os.Getenv(envKey); val != "" {
			setter(val)
		}
	}

	for envKey, target := range boolOverrides {
		if val := os.Getenv(envKey); val != "" {
			*target = parseBool(val)
		}
	}

	for envKey, target := range intOverrides {
		if val := os.Getenv(envKey); val != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
				*target = n
			}
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePorts parses a comma separated port list, keeping fallback if any
// entry is not a number.
func parsePorts(s string, fallback []int) []int {
	var ports []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return fallback
		}
		ports = append(ports, n)
	}
	return ports
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	if c.Capture.PcapFile == "" && len(c.Capture.Interfaces) == 0 {
		return fmt.Errorf("capture.interfaces or capture.pcap_file is required")
	}
	if c.Capture.SnapLen <= 0 || c.Capture.SnapLen > 262144 {
		return fmt.Errorf("capture.snaplen must be in 1..262144")
	}

	for _, p := range c.HTTP2.Ports {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("http2.ports: invalid port %d", p)
		}
	}
	if c.HTTP2.MaxHeaderBlock <= 0 {
		return fmt.Errorf("http2.max_header_block must be positive")
	}

	if c.Conntrack.MaxConns <= 0 {
		return fmt.Errorf("conntrack.max_conns must be positive")
	}
	if c.Conntrack.IdleTimeout < time.Second {
		return fmt.Errorf("conntrack.idle_timeout must be at least 1s")
	}
	if c.Conntrack.ExpireInterval < 100*time.Millisecond {
		return fmt.Errorf("conntrack.expire_interval must be at least 100ms")
	}

	if c.Exporters.OTLP.Enabled {
		if c.Exporters.OTLP.Endpoint == "" {
			return fmt.Errorf("exporters.otlp.endpoint is required when OTLP is enabled")
		}
		if c.Exporters.OTLP.Protocol != "grpc" && c.Exporters.OTLP.Protocol != "http" {
			return fmt.Errorf("exporters.otlp.protocol must be 'grpc' or 'http'")
		}
	}
	switch c.Exporters.OTLP.Compression {
	case "", "gzip", "none":
	default:
		return fmt.Errorf("exporters.otlp.compression must be 'gzip' or 'none'")
	}
	if c.Exporters.Stdout.Enabled && c.Exporters.Stdout.Format != "text" && c.Exporters.Stdout.Format != "json" {
		return fmt.Errorf("exporters.stdout.format must be 'text' or 'json'")
	}
	if c.Exporters.BatchSize <= 0 {
		return fmt.Errorf("exporters.batch_size must be positive")
	}
	if c.Exporters.FlushInterval < 10*time.Millisecond {
		return fmt.Errorf("exporters.flush_interval must be at least 10ms")
	}

	if c.ServiceMap.Enabled && c.ServiceMap.MaxAge < time.Second {
		return fmt.Errorf("service_map.max_age must be at least 1s")
	}

	if c.Health.Enabled && c.Health.Port == "" {
		return fmt.Errorf("health.port is required when health is enabled")
	}

	return nil
}
