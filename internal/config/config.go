package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// CurrentVersion is the only configuration version this build accepts.
const CurrentVersion = "1.0"

// Config is the updater configuration shared by the CLI and the daemon.
type Config struct {
	Version    string           `yaml:"version"`
	Server     ServerConfig     `yaml:"server"`
	Feed       FeedConfig       `yaml:"feed"`
	Installed  InstalledConfig  `yaml:"installed"`
	State      StateConfig      `yaml:"state"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig locates the update server.
type ServerConfig struct {
	BaseURL      string `yaml:"base_url"`       // Prefix for the query and for relative download URLs
	FileListPath string `yaml:"file_list_path"` // Appended to base_url for the query
	UserAgent    string `yaml:"user_agent"`     // Overrides the derived user agent
}

// FeedConfig controls the query and how responses are interpreted.
type FeedConfig struct {
	Dialect         string `yaml:"dialect"` // eos|legacy
	Owner           string `yaml:"owner"`
	Device          string `yaml:"device"`
	Size            int    `yaml:"size"`
	Debug           bool   `yaml:"debug"`   // Request the verbose field list
	Channel         string `yaml:"channel"` // nightly|release
	DefaultAPILevel int    `yaml:"default_api_level"`
	Timeout         string `yaml:"timeout"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// InstalledConfig identifies the build currently running on the device.
type InstalledConfig struct {
	Timestamp int64  `yaml:"timestamp"`  // Epoch seconds; overrides build_prop
	BuildProp string `yaml:"build_prop"` // Path to a build.prop style file
}

// StateConfig selects the snapshot backend.
type StateConfig struct {
	Backend        string `yaml:"backend"` // json|sqlite
	Path           string `yaml:"path"`
	ResetOnCorrupt bool   `yaml:"reset_on_corrupt"`
}

// ScheduleConfig controls when the daemon checks.
type ScheduleConfig struct {
	Frequency         string `yaml:"frequency"` // never|boot|hourly|daily|weekly|<duration>
	ConnectivityProbe bool   `yaml:"connectivity_probe"`
	ProbeInterval     string `yaml:"probe_interval"`
	RetryBackoff      string `yaml:"retry_backoff"` // fixed|linear|exponential
	RetryInitialDelay string `yaml:"retry_initial_delay"`
	RetryMaxDelay     string `yaml:"retry_max_delay"`
	MaxRetries        *int   `yaml:"max_retries"` // 0 disables retries
}

// DaemonConfig represents daemon-specific configuration.
type DaemonConfig struct {
	AdminAddr         string `yaml:"admin_addr"`
	DataDir           string `yaml:"data_dir"`
	ManualMinInterval string `yaml:"manual_min_interval"` // Minimum spacing of manual checks via the admin API
	ManualBurst       int    `yaml:"manual_burst"`
}

// NotifyConfig configures where check summaries are published.
type NotifyConfig struct {
	NATSURL  string `yaml:"nats_url"`
	Subject  string `yaml:"subject"`
	MaxLines int    `yaml:"max_lines"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates the configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse builds a configuration from YAML content. ${VAR} references are
// expanded from the environment before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.ConfigError("failed to decode configuration").WithCause(err).Build()
	}
	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	res := NormalizeConfig(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Config normalization", slog.String("warning", w))
	}
	applyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.InternalError("failed to encode example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.ConfigError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() Config {
	return Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			BaseURL:      "http://updates.teameos.org",
			FileListPath: "/api/file_list",
		},
		Feed: FeedConfig{
			Dialect: "eos",
			Owner:   "eos",
			Device:  "${EOS_DEVICE}",
			Size:    5,
			Channel: "nightly",
			Timeout: "30s",
		},
		Installed: InstalledConfig{BuildProp: "/system/build.prop"},
		State:     StateConfig{Backend: "json"},
		Schedule: ScheduleConfig{
			Frequency:         "daily",
			ConnectivityProbe: true,
			ProbeInterval:     "1m",
			RetryBackoff:      "exponential",
			RetryInitialDelay: "30s",
			RetryMaxDelay:     "15m",
			MaxRetries:        intPtr(3),
		},
		Daemon: DaemonConfig{
			AdminAddr:         "127.0.0.1:8097",
			DataDir:           "./eosupdater-data",
			ManualMinInterval: "30s",
			ManualBurst:       1,
		},
		Notify: NotifyConfig{
			NATSURL:  "${EOSUPDATER_NATS_URL}",
			Subject:  "eosupdater.updates",
			MaxLines: 4,
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}
}
