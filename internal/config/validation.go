package config

import (
	"net/url"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/retry"
)

// ValidateConfig checks a normalized, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateServer,
		cv.validateFeed,
		cv.validateState,
		cv.validateSchedule,
		cv.validateDaemon,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	raw := cv.config.Server.BaseURL
	if raw == "" {
		return invalid("server.base_url", raw, "base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("server.base_url", raw, "must be an absolute http(s) URL")
	}
	return nil
}

func (cv *configurationValidator) validateFeed() error {
	f := cv.config.Feed
	switch f.Dialect {
	case "eos", "legacy":
	default:
		return invalid("feed.dialect", f.Dialect, "must be eos or legacy")
	}
	switch f.Channel {
	case "nightly", "release":
	default:
		return invalid("feed.channel", f.Channel, "must be nightly or release")
	}
	if err := positiveDuration("feed.timeout", f.Timeout); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateState() error {
	switch b := cv.config.State.Backend; b {
	case "json", "sqlite":
		return nil
	default:
		return invalid("state.backend", b, "must be json or sqlite")
	}
}

func (cv *configurationValidator) validateSchedule() error {
	s := cv.config.Schedule
	if _, err := ParseFrequency(s.Frequency); err != nil {
		return err
	}
	if retry.ParseMode(s.RetryBackoff) == "" {
		return invalid("schedule.retry_backoff", s.RetryBackoff, "must be fixed, linear or exponential")
	}
	for field, value := range map[string]string{
		"schedule.probe_interval":      s.ProbeInterval,
		"schedule.retry_initial_delay": s.RetryInitialDelay,
		"schedule.retry_max_delay":     s.RetryMaxDelay,
	} {
		if err := positiveDuration(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateDaemon() error {
	return positiveDuration("daemon.manual_min_interval", cv.config.Daemon.ManualMinInterval)
}

func positiveDuration(field, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return invalid(field, value, "must be a positive duration")
	}
	return nil
}

func invalid(field, value, reason string) error {
	return errors.ConfigError("invalid configuration: " + field + " " + reason).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
