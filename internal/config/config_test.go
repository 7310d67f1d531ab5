package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

const minimalYAML = `
version: "1.0"
server:
  base_url: http://updates.example.com
  file_list_path: /api/file_list
feed:
  device: mako
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "eos", cfg.Feed.Dialect)
	require.Equal(t, "eos", cfg.Feed.Owner)
	require.Equal(t, 5, cfg.Feed.Size)
	require.Equal(t, "nightly", cfg.Feed.Channel)
	require.Equal(t, 19, cfg.Feed.DefaultAPILevel)
	require.Equal(t, 30*time.Second, cfg.FeedTimeout())
	require.Equal(t, int64(4<<20), cfg.Feed.MaxBodyBytes)
	require.Equal(t, "json", cfg.State.Backend)
	require.Equal(t, Frequency{Mode: FrequencyInterval, Interval: 24 * time.Hour}, cfg.Frequency())
	require.Equal(t, 30*time.Second, cfg.ManualMinInterval())
	require.Equal(t, 4, cfg.Notify.MaxLines)
	require.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("EOS_TEST_DEVICE", "grouper")
	cfg, err := Parse([]byte(`
version: "1.0"
server:
  base_url: https://updates.example.com
feed:
  device: ${EOS_TEST_DEVICE}
  dialect: LEGACY
monitoring:
  logging:
    level: WARNING
    format: yaml
`))
	require.NoError(t, err)
	require.Equal(t, "grouper", cfg.Feed.Device)
	require.Equal(t, "legacy", cfg.Feed.Dialect)
	require.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"version":   "version: \"2.0\"\nserver: {base_url: http://x}\n",
		"base_url":  "version: \"1.0\"\nserver: {base_url: ftp://x}\n",
		"missing":   "version: \"1.0\"\n",
		"dialect":   "version: \"1.0\"\nserver: {base_url: http://x}\nfeed: {dialect: rss}\n",
		"channel":   "version: \"1.0\"\nserver: {base_url: http://x}\nfeed: {channel: beta}\n",
		"backend":   "version: \"1.0\"\nserver: {base_url: http://x}\nstate: {backend: redis}\n",
		"frequency": "version: \"1.0\"\nserver: {base_url: http://x}\nschedule: {frequency: sometimes}\n",
		"timeout":   "version: \"1.0\"\nserver: {base_url: http://x}\nfeed: {timeout: fast}\n",
		"yaml":      "version: [\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
		require.True(t, errors.HasCategory(err, errors.CategoryConfig), name)
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("never")
	require.NoError(t, err)
	require.Equal(t, FrequencyNever, f.Mode)

	f, err = ParseFrequency("BOOT")
	require.NoError(t, err)
	require.Equal(t, FrequencyBoot, f.Mode)

	f, err = ParseFrequency("weekly")
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, f.Interval)

	f, err = ParseFrequency("90m")
	require.NoError(t, err)
	require.Equal(t, "1h30m0s", f.String())

	_, err = ParseFrequency("5s")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eosupdater.yaml")

	_, err := Load(path)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mako", cfg.Feed.Device)
}

func TestInit(t *testing.T) {
	t.Setenv("EOS_DEVICE", "mako")
	path := filepath.Join(t.TempDir(), "eosupdater.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "mako", cfg.Feed.Device)
	require.True(t, cfg.Monitoring.Metrics.Enabled)
}

func TestParse_MaxRetries(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxRetries())

	cfg, err = Parse([]byte(minimalYAML + "schedule:\n  max_retries: 0\n"))
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxRetries())

	cfg, err = Parse([]byte(minimalYAML + "schedule:\n  max_retries: -4\n"))
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MaxRetries())
}
