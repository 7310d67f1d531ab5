package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields prior to default application.
// Unknown enumeration values are left for validation to reject, except logging
// settings which fall back to their defaults with a warning.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	c.Server.BaseURL = strings.TrimSpace(c.Server.BaseURL)
	c.Feed.Dialect = strings.ToLower(strings.TrimSpace(c.Feed.Dialect))
	c.Feed.Channel = strings.ToLower(strings.TrimSpace(c.Feed.Channel))
	c.State.Backend = strings.ToLower(strings.TrimSpace(c.State.Backend))
	c.Schedule.Frequency = strings.TrimSpace(c.Schedule.Frequency)
	c.Schedule.RetryBackoff = strings.ToLower(strings.TrimSpace(c.Schedule.RetryBackoff))
	normalizeMonitoring(&c.Monitoring, res)
	if c.Feed.Size < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("feed.size %d is negative; using default", c.Feed.Size))
		c.Feed.Size = 0
	}
	return res
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if raw := string(m.Logging.Level); raw != "" {
		if lvl := NormalizeLogLevel(raw); lvl != "" {
			m.Logging.Level = lvl
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", raw, string(LogLevelInfo)))
			m.Logging.Level = LogLevelInfo
		}
	}
	if raw := string(m.Logging.Format); raw != "" {
		if f := NormalizeLogFormat(raw); f != "" {
			m.Logging.Format = f
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", raw, string(LogFormatText)))
			m.Logging.Format = LogFormatText
		}
	}
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("%s: unknown value %q, using %q", field, value, def)
}
