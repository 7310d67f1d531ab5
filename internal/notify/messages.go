package notify

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	msgUpdatesTitle  = "New updates available"
	msgUpdatesBody   = "%d new updates found"
	msgAdditional    = "and %d more"
	msgNoUpdates     = "No updates found"
	msgNoUpdatesBody = "You are running the latest build"
	msgCheckFailed   = "Could not check for updates"
	msgDownload      = "Download"
)

func newCatalog() *catalog.Builder {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(key string, msg ...catalog.Message) {
		// Keys and messages are constants; Set only fails on malformed input.
		if err := cat.Set(language.English, key, msg...); err != nil {
			panic(err)
		}
	}
	set(msgUpdatesBody, plural.Selectf(1, "%d",
		"=1", "%d new update found",
		"other", "%d new updates found"))
	set(msgAdditional, plural.Selectf(1, "%d",
		"=1", "and %d more update",
		"other", "and %d more updates"))
	for _, key := range []string{msgUpdatesTitle, msgNoUpdates, msgNoUpdatesBody, msgCheckFailed, msgDownload} {
		set(key, catalog.String(key))
	}
	return cat
}

// NewPrinter returns a printer for tag backed by the updater's message catalog.
func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(newCatalog()))
}
