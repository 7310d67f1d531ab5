package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type feedDefaults struct{}

func (feedDefaults) Domain() string { return "feed" }

func (feedDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Feed.Dialect == "" {
		cfg.Feed.Dialect = "eos"
	}
	if cfg.Feed.Owner == "" {
		cfg.Feed.Owner = "eos"
	}
	if cfg.Feed.Size <= 0 {
		cfg.Feed.Size = 5
	}
	if cfg.Feed.Channel == "" {
		cfg.Feed.Channel = "nightly"
	}
	if cfg.Feed.DefaultAPILevel <= 0 {
		cfg.Feed.DefaultAPILevel = 19
	}
	if cfg.Feed.Timeout == "" {
		cfg.Feed.Timeout = "30s"
	}
	if cfg.Feed.MaxBodyBytes <= 0 {
		cfg.Feed.MaxBodyBytes = 4 << 20
	}
}

type stateDefaults struct{}

func (stateDefaults) Domain() string { return "state" }

func (stateDefaults) ApplyDefaults(cfg *Config) {
	if cfg.State.Backend == "" {
		cfg.State.Backend = "json"
	}
}

type scheduleDefaults struct{}

func (scheduleDefaults) Domain() string { return "schedule" }

func (scheduleDefaults) ApplyDefaults(cfg *Config) {
	s := &cfg.Schedule
	if s.Frequency == "" {
		s.Frequency = "daily"
	}
	if s.ProbeInterval == "" {
		s.ProbeInterval = "1m"
	}
	if s.RetryBackoff == "" {
		s.RetryBackoff = "exponential"
	}
	if s.RetryInitialDelay == "" {
		s.RetryInitialDelay = "30s"
	}
	if s.RetryMaxDelay == "" {
		s.RetryMaxDelay = "15m"
	}
	if s.MaxRetries == nil {
		s.MaxRetries = intPtr(3)
	} else if *s.MaxRetries < 0 {
		s.MaxRetries = intPtr(0)
	}
}

type daemonDefaults struct{}

func (daemonDefaults) Domain() string { return "daemon" }

func (daemonDefaults) ApplyDefaults(cfg *Config) {
	d := &cfg.Daemon
	if d.AdminAddr == "" {
		d.AdminAddr = "127.0.0.1:8097"
	}
	if d.DataDir == "" {
		d.DataDir = "./eosupdater-data"
	}
	if d.ManualMinInterval == "" {
		d.ManualMinInterval = "30s"
	}
	if d.ManualBurst <= 0 {
		d.ManualBurst = 1
	}
}

type notifyDefaults struct{}

func (notifyDefaults) Domain() string { return "notify" }

func (notifyDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "eosupdater.updates"
	}
	if cfg.Notify.MaxLines <= 0 {
		cfg.Notify.MaxLines = 4
	}
}

type monitoringDefaults struct{}

func (monitoringDefaults) Domain() string { return "monitoring" }

func (monitoringDefaults) ApplyDefaults(cfg *Config) {
	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = "/metrics"
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		feedDefaults{},
		stateDefaults{},
		scheduleDefaults{},
		daemonDefaults{},
		notifyDefaults{},
		monitoringDefaults{},
	}
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers() {
		a.ApplyDefaults(cfg)
	}
}

func intPtr(v int) *int { return &v }
