// Package device determines which build is installed on the device.
package device

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/version"
)

const (
	propBuildDate = "ro.build.date.utc"
	propDevice    = "ro.product.device"
	propModDevice = "ro.eos.device"
)

// Info describes the running build.
type Info struct {
	// Timestamp is the build time in epoch seconds.
	Timestamp int64
	Device    string
}

// UserAgent returns the client identifier sent with update queries.
func (i Info) UserAgent() string {
	return version.UserAgent(i.Device)
}

// Probe resolves Info from explicit values first and a build.prop style file
// second. Either override may be zero.
type Probe struct {
	BuildPropPath string
	Timestamp     int64
	Device        string
}

// Detect returns the installed build. A missing timestamp is a config error.
func (p Probe) Detect() (Info, error) {
	info := Info{Timestamp: p.Timestamp, Device: p.Device}
	if info.Timestamp > 0 && info.Device != "" {
		return info, nil
	}

	if p.BuildPropPath != "" {
		props, err := ReadProps(p.BuildPropPath)
		if err != nil {
			return Info{}, err
		}
		if info.Device == "" {
			info.Device = firstNonEmpty(props[propModDevice], props[propDevice])
		}
		if info.Timestamp <= 0 {
			if raw, ok := props[propBuildDate]; ok {
				ts, perr := strconv.ParseInt(raw, 10, 64)
				if perr != nil {
					return Info{}, errors.ConfigError("build date is not a number").
						WithCause(perr).
						WithContext("path", p.BuildPropPath).
						WithContext("value", raw).
						Build()
				}
				info.Timestamp = ts
			}
		}
	}

	if info.Timestamp <= 0 {
		return Info{}, errors.ConfigError("installed build timestamp is unknown").
			WithContext("hint", "set installed.timestamp or installed.build_prop").
			Build()
	}
	return info, nil
}

// ReadProps parses a key=value properties file. Comment and blank lines are
// ignored; later keys win.
func ReadProps(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ConfigError("failed to open build properties").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	props := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.ConfigError("failed to read build properties").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return props, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
