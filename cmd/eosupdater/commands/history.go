package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of checks to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	return RunHistory(context.Background(), g.out(), root.Config, root.Verbose, h.Limit)
}

// RunHistory prints the most recent checks, newest first.
func RunHistory(ctx context.Context, out io.Writer, configPath string, verbose bool, limit int) error {
	cfg, err := loadConfig(configPath, verbose)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	history, ok := store.(state.HistoryStore)
	if !ok {
		return errors.ConfigError("check history requires the sqlite state backend").
			WithContext("backend", cfg.State.Backend).
			Build()
	}
	records, err := history.RecentChecks(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No checks recorded")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s  %-12s %-14s total=%d new=%d real=%d skipped=%d",
			r.CheckedAt.Format("2006-01-02 15:04:05"), r.Trigger, r.Outcome, r.Total, r.New, r.Real, r.Skipped)
		if r.Error != "" {
			fmt.Fprintf(out, "  %s", r.Error)
		}
		fmt.Fprintln(out)
	}
	return nil
}
