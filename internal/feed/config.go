package feed

import (
	"net/url"
	"strings"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
)

// Dialect names.
const (
	DialectEOS    = "eos"
	DialectLegacy = "legacy"
)

const (
	DefaultSize     = 5
	DefaultAPILevel = 19
	DefaultOwner    = "eos"
)

// Field lists requested from the server via the info parameter.
const (
	InfoFieldsCompact = "epoch,url,md5sum"
	InfoFieldsVerbose = "device,id,date,epoch,owner,name,version,url,size,download_count,md5sum,old_version"
)

// Config carries everything a dialect needs to build its query and
// normalize entries.
type Config struct {
	Dialect         string
	BaseURL         string
	FileListPath    string
	Owner           string
	Device          string
	Size            int
	Debug           bool
	Channel         artifact.Kind
	DefaultAPILevel int
}

func (c Config) withDefaults() Config {
	if c.Dialect == "" {
		c.Dialect = DialectEOS
	}
	if c.Owner == "" {
		c.Owner = DefaultOwner
	}
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.DefaultAPILevel <= 0 {
		c.DefaultAPILevel = DefaultAPILevel
	}
	return c
}

func (c Config) infoFields() string {
	if c.Debug {
		return InfoFieldsVerbose
	}
	return InfoFieldsCompact
}

// endpoint joins the base URL and the file list path.
func (c Config) endpoint() string {
	return c.BaseURL + c.FileListPath
}

// downloadURL resolves a feed-relative path against the base URL. Absolute
// URLs are returned unchanged.
func (c Config) downloadURL(rel string) string {
	if u, err := url.Parse(rel); err == nil && u.IsAbs() {
		return rel
	}
	if strings.HasSuffix(c.BaseURL, "/") && strings.HasPrefix(rel, "/") {
		return c.BaseURL + strings.TrimPrefix(rel, "/")
	}
	return c.BaseURL + rel
}
