package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/discovery"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/notify"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Installed int64 `help:"Installed build timestamp in epoch seconds (overrides configuration)"`
	JSON      bool  `name:"json" help:"Print the result as JSON"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunCheck(ctx, g.out(), root.Config, root.Verbose, c.Installed, c.JSON)
}

// RunCheck performs one update check and prints the outcome to out.
func RunCheck(ctx context.Context, out io.Writer, configPath string, verbose bool, installed int64, asJSON bool) error {
	cfg, err := loadConfig(configPath, verbose)
	if err != nil {
		return err
	}
	info, err := detectInstalled(cfg, installed)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	engine, err := newEngine(cfg, store, info, nil)
	if err != nil {
		return err
	}

	res, err := engine.Check(ctx, info.Timestamp)
	if err != nil {
		return err
	}
	if asJSON {
		return writeCheckJSON(out, res)
	}

	builder := notify.NewBuilder(cfg.Notify.MaxLines, nil)
	summary, _ := builder.FromResult(res, "manual", true)
	writeCheckText(out, res, summary, builder.DownloadLabel())
	return nil
}

type checkJSON struct {
	CheckID       string            `json:"check_id"`
	CheckedAt     time.Time         `json:"checked_at"`
	Installed     int64             `json:"installed"`
	Total         int               `json:"total"`
	New           int               `json:"new"`
	Real          int               `json:"real"`
	Skipped       int               `json:"skipped"`
	ServerMessage string            `json:"server_message,omitempty"`
	Builds        []artifact.Record `json:"builds"`
}

func writeCheckJSON(out io.Writer, res discovery.CheckResult) error {
	builds := artifact.Records(res.LatestFirst())
	if builds == nil {
		builds = []artifact.Record{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(checkJSON{
		CheckID:       res.CheckID,
		CheckedAt:     res.CheckedAt,
		Installed:     res.Installed,
		Total:         res.Total,
		New:           res.New,
		Real:          res.Real,
		Skipped:       res.Skipped,
		ServerMessage: res.ServerMessage,
		Builds:        builds,
	})
}

func writeCheckText(out io.Writer, res discovery.CheckResult, s notify.Summary, downloadLabel string) {
	fmt.Fprintln(out, s.Title)
	fmt.Fprintln(out, s.Body)
	for _, line := range s.Lines {
		fmt.Fprintf(out, "  %s\n", line)
	}
	if s.More != "" {
		fmt.Fprintf(out, "  %s\n", s.More)
	}
	if s.Download != nil {
		fmt.Fprintf(out, "%s: %s\n", downloadLabel, s.Download.DownloadURL)
	}
	if res.ServerMessage != "" {
		fmt.Fprintf(out, "Server: %s\n", res.ServerMessage)
	}
	fmt.Fprintf(out, "Builds: %d listed, %d new, %d newer than installed", res.Total, res.New, res.Real)
	if res.Skipped > 0 {
		fmt.Fprintf(out, ", %d invalid entries skipped", res.Skipped)
	}
	fmt.Fprintln(out)
}

func formatBuildTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04 MST")
}
