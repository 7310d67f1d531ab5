package config

import (
	"strings"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// FrequencyMode says which automatic triggers may start a check.
type FrequencyMode string

const (
	// FrequencyNever allows manual checks only.
	FrequencyNever FrequencyMode = "never"
	// FrequencyBoot checks once per boot.
	FrequencyBoot FrequencyMode = "boot"
	// FrequencyInterval checks periodically.
	FrequencyInterval FrequencyMode = "interval"
)

// Frequency is the parsed schedule.frequency value.
type Frequency struct {
	Mode     FrequencyMode
	Interval time.Duration
}

func (f Frequency) String() string {
	if f.Mode == FrequencyInterval {
		return f.Interval.String()
	}
	return string(f.Mode)
}

var namedIntervals = map[string]time.Duration{
	"hourly": time.Hour,
	"daily":  24 * time.Hour,
	"weekly": 7 * 24 * time.Hour,
}

// ParseFrequency accepts never, boot, hourly, daily, weekly or a Go duration.
func ParseFrequency(raw string) (Frequency, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "never", "none", "off":
		return Frequency{Mode: FrequencyNever}, nil
	case "boot", "at_boot":
		return Frequency{Mode: FrequencyBoot}, nil
	}
	if d, ok := namedIntervals[s]; ok {
		return Frequency{Mode: FrequencyInterval, Interval: d}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Minute {
		return Frequency{}, errors.ConfigError("invalid schedule frequency").
			WithCause(err).
			WithContext("frequency", raw).
			WithContext("hint", "never, boot, hourly, daily, weekly or a duration >= 1m").
			Build()
	}
	return Frequency{Mode: FrequencyInterval, Interval: d}, nil
}

// Frequency returns the parsed schedule frequency. Load has already validated it.
func (c *Config) Frequency() Frequency {
	f, err := ParseFrequency(c.Schedule.Frequency)
	if err != nil {
		return Frequency{Mode: FrequencyNever}
	}
	return f
}

// FeedTimeout returns feed.timeout as a duration.
func (c *Config) FeedTimeout() time.Duration { return mustDuration(c.Feed.Timeout) }

// ProbeInterval returns schedule.probe_interval as a duration.
func (c *Config) ProbeInterval() time.Duration { return mustDuration(c.Schedule.ProbeInterval) }

// RetryInitialDelay returns schedule.retry_initial_delay as a duration.
func (c *Config) RetryInitialDelay() time.Duration { return mustDuration(c.Schedule.RetryInitialDelay) }

// RetryMaxDelay returns schedule.retry_max_delay as a duration.
func (c *Config) RetryMaxDelay() time.Duration { return mustDuration(c.Schedule.RetryMaxDelay) }

// MaxRetries returns the retry limit for failed background checks.
func (c *Config) MaxRetries() int {
	if c.Schedule.MaxRetries == nil {
		return 0
	}
	return *c.Schedule.MaxRetries
}

// ManualMinInterval returns daemon.manual_min_interval as a duration.
func (c *Config) ManualMinInterval() time.Duration { return mustDuration(c.Daemon.ManualMinInterval) }

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
