// Package config loads echoflare's runtime configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration root.
type Config struct {
	GroundStation GroundStationConfig `yaml:"groundstation"`
	Modem         ModemConfig         `yaml:"modem"`
	Telecommand   TelecommandConfig   `yaml:"telecommand"`
	Mission       MissionConfig       `yaml:"mission"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// GroundStationConfig points at the remote GroundTrack HTTP service.
type GroundStationConfig struct {
	BaseURL          string `yaml:"base_url"`           // e.g. "https://groundtrack.example.org"
	DefaultSatellite string `yaml:"default_satellite"`  // parsed but not read by either CLI; echoflare-mission uses mission.satellite
	RequestTimeoutS  int    `yaml:"request_timeout_s"`  // per-request HTTP timeout in seconds (default: 30)
}

// ModemConfig mirrors the G3RUH/HDLC modem's recognized configuration.
type ModemConfig struct {
	Baud            int    `yaml:"baud"`             // default: 9600
	SampleRate      int    `yaml:"sample_rate"`      // default: 48000
	Amplitude       int    `yaml:"amplitude"`        // default: 20000
	PreFlags        int    `yaml:"pre_flags"`        // default: 32
	PostFlags       int    `yaml:"post_flags"`       // default: 8
	ScrambleVariant int    `yaml:"scramble_variant"` // default: 0
	InitialLevel    int    `yaml:"initial_level"`    // default: 1
}

// TelecommandConfig carries the HMAC shared secret. Empty means "use
// the build-time default" (telecommand.defaultKeyHex).
type TelecommandConfig struct {
	HMACKeyHex string `yaml:"hmac_key_hex,omitempty"`
}

// MissionConfig mirrors mission_cli.py's flags.
type MissionConfig struct {
	Satellite               string  `yaml:"satellite"`                  // default: "Echoflare"
	MinElevationDeg          float64 `yaml:"min_elevation_deg"`          // default: 10.0
	MotD                     string  `yaml:"motd"`                       // default: "j_m0 was here"
	RXTelemetrySeconds       float64 `yaml:"rx_telemetry_seconds"`       // default: 45.0
	RXSSTVSeconds            float64 `yaml:"rx_sstv_seconds"`            // default: 75.0
	PostcheckSeconds         float64 `yaml:"postcheck_seconds"`          // default: 45.0
	AllowSSTVWithoutMotD     bool    `yaml:"allow_sstv_without_motd"`    // default: false
	WorkDir                  string  `yaml:"workdir"`                    // default: "echoflare_runs"
}

// MetricsConfig controls the optional Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // default: ":9110"
}

// LoggingConfig holds a logging level. It is parsed and defaulted, but
// neither binary applies it to the stdlib logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info" (default), "warn", "error"
}

// Default returns the documented defaults for every field a zero-value
// YAML document would otherwise leave unset.
func Default() Config {
	return Config{
		GroundStation: GroundStationConfig{RequestTimeoutS: 30},
		Modem: ModemConfig{
			Baud:            9600,
			SampleRate:      48000,
			Amplitude:       20000,
			PreFlags:        32,
			PostFlags:       8,
			ScrambleVariant: 0,
			InitialLevel:    1,
		},
		Mission: MissionConfig{
			Satellite:          "Echoflare",
			MinElevationDeg:    10.0,
			MotD:               "j_m0 was here",
			RXTelemetrySeconds: 45.0,
			RXSSTVSeconds:      75.0,
			PostcheckSeconds:   45.0,
			WorkDir:            "echoflare_runs",
		},
		Metrics: MetricsConfig{Addr: ":9110"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses a YAML config file. Fields the document omits
// keep Default()'s value; applyDefaults then re-fills the fields it
// lists when the document sets them to zero.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filename, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults re-fills fields the YAML document left at their zero
// value, the same "zero means unset" convention as the teacher's own
// LoadConfig: a field the operator genuinely wants at zero (e.g. no
// post-frame flags) has no representation here, so it is documented instead
// of silently overridden.
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.GroundStation.RequestTimeoutS == 0 {
		cfg.GroundStation.RequestTimeoutS = d.GroundStation.RequestTimeoutS
	}
	if cfg.Modem.Baud == 0 {
		cfg.Modem.Baud = d.Modem.Baud
	}
	if cfg.Modem.SampleRate == 0 {
		cfg.Modem.SampleRate = d.Modem.SampleRate
	}
	if cfg.Modem.Amplitude == 0 {
		cfg.Modem.Amplitude = d.Modem.Amplitude
	}
	if cfg.Modem.PreFlags == 0 {
		cfg.Modem.PreFlags = d.Modem.PreFlags
	}
	if cfg.Modem.PostFlags == 0 {
		cfg.Modem.PostFlags = d.Modem.PostFlags
	}
	if cfg.Mission.Satellite == "" {
		cfg.Mission.Satellite = d.Mission.Satellite
	}
	if cfg.Mission.MinElevationDeg == 0 {
		cfg.Mission.MinElevationDeg = d.Mission.MinElevationDeg
	}
	if cfg.Mission.RXTelemetrySeconds == 0 {
		cfg.Mission.RXTelemetrySeconds = d.Mission.RXTelemetrySeconds
	}
	if cfg.Mission.RXSSTVSeconds == 0 {
		cfg.Mission.RXSSTVSeconds = d.Mission.RXSSTVSeconds
	}
	if cfg.Mission.PostcheckSeconds == 0 {
		cfg.Mission.PostcheckSeconds = d.Mission.PostcheckSeconds
	}
	if cfg.Mission.WorkDir == "" {
		cfg.Mission.WorkDir = d.Mission.WorkDir
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = d.Metrics.Addr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
}
