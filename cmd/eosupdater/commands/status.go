package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Installed int64 `help:"Installed build timestamp used to mark newer builds"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	return RunStatus(context.Background(), g.out(), root.Config, root.Verbose, s.Installed)
}

// RunStatus prints the stored snapshot latest first. Builds newer than the
// installed one are marked with '*'; an unknown installed build marks none.
func RunStatus(ctx context.Context, out io.Writer, configPath string, verbose bool, installed int64) error {
	cfg, err := loadConfig(configPath, verbose)
	if err != nil {
		return err
	}
	if info, derr := detectInstalled(cfg, installed); derr == nil {
		installed = info.Timestamp
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	builds, err := store.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Snapshot: %s\n", store.Path())
	prefs, err := state.NewPreferencesFile(preferencesPath(cfg)).Load()
	if err == nil && !prefs.LastCheck.IsZero() {
		fmt.Fprintf(out, "Last check: %s\n", prefs.LastCheck.Format("2006-01-02 15:04:05 MST"))
	}
	if len(builds) == 0 {
		fmt.Fprintln(out, "No builds stored")
		return nil
	}
	fmt.Fprintf(out, "%d builds stored:\n", len(builds))
	for _, d := range artifact.SortLatestFirst(builds) {
		mark := " "
		if installed > 0 && d.IsNewerThan(installed) {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-40s %s  api %d  %s\n", mark, d.Name(), formatBuildTime(d.Timestamp()), d.APILevel(), d.Kind())
	}
	return nil
}
