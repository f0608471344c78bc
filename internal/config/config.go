// Package config loads the top-level YAML process configuration: input
// source, telemetry sinks, control listener, tunables file, metrics, and
// logging.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration, loaded once at startup.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Control   ControlConfig   `yaml:"control"`
	Tunables  TunablesConfig  `yaml:"tunables"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InputConfig describes the SDR transport the core reads from.
type InputConfig struct {
	SampleRateHz float64 `yaml:"sample_rate_hz"`
	CaptureFile  string  `yaml:"capture_file"` // empty = synthetic generator
}

// TelemetryConfig configures the UDP/CSV telemetry sinks.
type TelemetryConfig struct {
	UDPHost string `yaml:"udp_host"`
	UDPPort int    `yaml:"udp_port"`
	CSVPath string `yaml:"csv_path"`
}

// ControlConfig configures the control-command UDP listener.
type ControlConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	MaxCmdsPerSec   int    `yaml:"max_cmds_per_sec"`
}

// TunablesConfig configures the INI persistence for runtime-tunable
// detector parameters.
type TunablesConfig struct {
	INIPath    string `yaml:"ini_path"`
	LoadOnStart bool  `yaml:"load_on_start"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig configures the process-wide standard logger.
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// Default returns a Config with reasonable defaults for local/dev use.
func Default() Config {
	return Config{
		// 2.4 MHz divides evenly into both the 50 kHz detector-path rate
		// and the 12 kHz display-path rate (decimate.NewChain requires an
		// integer ratio).
		Input: InputConfig{SampleRateHz: 2_400_000},
		Telemetry: TelemetryConfig{
			UDPHost: "127.0.0.1",
			UDPPort: 9100,
			CSVPath: "wwvsync_telemetry.csv",
		},
		Control: ControlConfig{
			ListenAddr:    "127.0.0.1:9101",
			MaxCmdsPerSec: 10,
		},
		Tunables: TunablesConfig{
			INIPath:     "wwvsync_tunables.ini",
			LoadOnStart: true,
		},
		Metrics: MetricsConfig{ListenAddr: ":9102"},
	}
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
