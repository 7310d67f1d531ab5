package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
)

// flexInt accepts a JSON number or a numeric string. Floats must be whole
// numbers that fit in an int64.
type flexInt struct {
	value int64
	set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		if fv != math.Trunc(fv) || fv < math.MinInt64 || fv >= math.MaxInt64 {
			return fmt.Errorf("%q is not a whole number in int64 range", s)
		}
		v = int64(fv)
	}
	f.value, f.set = v, true
	return nil
}

// rawEntry is one file_list element. Fields are decoded leniently so a single
// malformed entry does not reject the whole response.
type rawEntry struct {
	Name     *string `json:"name"`
	Epoch    flexInt `json:"epoch"`
	URL      *string `json:"url"`
	MD5Sum   *string `json:"md5sum"`
	APILevel flexInt `json:"api_level"`
	SDK      flexInt `json:"sdk"`
}

// normalize converts raw file_list elements into descriptors, counting the
// ones it has to drop.
func normalize(cfg Config, entries []json.RawMessage) ([]artifact.Descriptor, int) {
	builds := make([]artifact.Descriptor, 0, len(entries))
	skipped := 0
	for _, raw := range entries {
		d, ok := normalizeEntry(cfg, raw)
		if !ok {
			skipped++
			continue
		}
		builds = append(builds, d)
	}
	return builds, skipped
}

func normalizeEntry(cfg Config, raw json.RawMessage) (artifact.Descriptor, bool) {
	var e rawEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return artifact.Descriptor{}, false
	}
	if e.URL == nil || strings.TrimSpace(*e.URL) == "" || e.MD5Sum == nil || !e.Epoch.set {
		return artifact.Descriptor{}, false
	}

	// The compact info list omits name; fall back to the file name in url.
	name := ""
	if e.Name != nil {
		name = strings.TrimSpace(*e.Name)
	}
	if name == "" {
		name = path.Base(strings.TrimSpace(*e.URL))
		if name == "." || name == "/" {
			name = ""
		}
	}

	apiLevel := cfg.DefaultAPILevel
	switch {
	case e.APILevel.set:
		apiLevel = int(e.APILevel.value)
	case e.SDK.set:
		apiLevel = int(e.SDK.value)
	}

	d, err := artifact.New(name, e.Epoch.value, apiLevel, cfg.downloadURL(strings.TrimSpace(*e.URL)), *e.MD5Sum, cfg.Channel)
	if err != nil {
		return artifact.Descriptor{}, false
	}
	return d, true
}
