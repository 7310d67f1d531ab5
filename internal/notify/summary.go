package notify

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/discovery"
)

// DefaultMaxLines is the number of builds listed before the remainder is
// summarized as a count.
const DefaultMaxLines = 4

// Kind classifies a summary.
type Kind string

const (
	KindUpdates   Kind = "updates"
	KindNoUpdates Kind = "no_updates"
	KindFailed    Kind = "failed"
)

// Summary is what a publisher presents to the user.
type Summary struct {
	Kind      Kind      `json:"kind"`
	CheckID   string    `json:"check_id"`
	Trigger   string    `json:"trigger"`
	CheckedAt time.Time `json:"checked_at"`

	Title string   `json:"title"`
	Body  string   `json:"body"`
	Lines []string `json:"lines,omitempty"`
	// More is the pluralized count of real updates not listed in Lines.
	More string `json:"more,omitempty"`
	// Number is the count of all candidates, real or not.
	Number int `json:"number"`
	Real   int `json:"real"`

	// Download is set when exactly one real update exists.
	Download *artifact.Record `json:"download,omitempty"`
}

// Builder renders summaries.
type Builder struct {
	maxLines int
	printer  *message.Printer
}

// NewBuilder returns a Builder listing at most maxLines builds. Non-positive
// values use DefaultMaxLines.
func NewBuilder(maxLines int, printer *message.Printer) *Builder {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if printer == nil {
		printer = NewPrinter(language.English)
	}
	return &Builder{maxLines: maxLines, printer: printer}
}

// FromResult renders a determined check result. The second return value is
// false when nothing should be shown: background checks without real updates
// stay silent, manual ones report that no updates were found.
func (b *Builder) FromResult(res discovery.CheckResult, trigger string, manual bool) (Summary, bool) {
	s := Summary{
		CheckID:   res.CheckID,
		Trigger:   trigger,
		CheckedAt: res.CheckedAt,
		Number:    res.Total,
		Real:      res.Real,
	}

	updates := res.RealUpdates()
	if len(updates) == 0 {
		if !manual {
			return Summary{}, false
		}
		s.Kind = KindNoUpdates
		s.Title = b.printer.Sprintf(msgNoUpdates)
		s.Body = b.printer.Sprintf(msgNoUpdatesBody)
		return s, true
	}

	s.Kind = KindUpdates
	s.Title = b.printer.Sprintf(msgUpdatesTitle)
	s.Body = b.printer.Sprintf(msgUpdatesBody, len(updates))
	for i, d := range updates {
		if i == b.maxLines {
			break
		}
		s.Lines = append(s.Lines, d.Name())
	}
	if rest := len(updates) - len(s.Lines); rest > 0 {
		s.More = b.printer.Sprintf(msgAdditional, rest)
	}
	if len(updates) == 1 {
		rec := updates[0].Record()
		s.Download = &rec
	}
	return s, true
}

// Failure renders a failed check. Only manual checks report failures.
func (b *Builder) Failure(res discovery.CheckResult, trigger string, err error) Summary {
	return Summary{
		Kind:      KindFailed,
		CheckID:   res.CheckID,
		Trigger:   trigger,
		CheckedAt: res.CheckedAt,
		Title:     b.printer.Sprintf(msgCheckFailed),
		Body:      err.Error(),
	}
}

// DownloadLabel is the label of the download offer.
func (b *Builder) DownloadLabel() string {
	return b.printer.Sprintf(msgDownload)
}
