package notify

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
)

// Publisher delivers a summary somewhere.
type Publisher interface {
	Publish(ctx context.Context, s Summary) error
	Close() error
}

// LogPublisher writes summaries to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher logging to logger, or slog.Default when nil.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, s Summary) error {
	attrs := []any{
		logfields.CheckID(s.CheckID),
		logfields.Trigger(s.Trigger),
		slog.String("kind", string(s.Kind)),
		slog.String("body", s.Body),
	}
	if len(s.Lines) > 0 {
		attrs = append(attrs, slog.Any("builds", s.Lines))
	}
	if s.More != "" {
		attrs = append(attrs, slog.String("more", s.More))
	}
	if s.Download != nil {
		attrs = append(attrs, slog.String("download_url", s.Download.DownloadURL))
	}
	level := slog.LevelInfo
	if s.Kind == KindFailed {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, s.Title, attrs...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, s Summary) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
