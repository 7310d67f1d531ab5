package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/config"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
)

// ResetCmd implements the 'reset' command.
type ResetCmd struct {
	All bool `help:"Also forget the last check time and boot-check flag"`
}

func (r *ResetCmd) Run(g *Global, root *CLI) error {
	return RunReset(context.Background(), g.out(), root.Config, root.Verbose, r.All)
}

// RunReset empties the stored snapshot. The next check then only counts
// builds newer than the installed one.
func RunReset(ctx context.Context, out io.Writer, configPath string, verbose, all bool) error {
	cfg, err := loadConfig(configPath, verbose)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Save(ctx, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "Stored snapshot cleared")

	if all {
		path := preferencesPath(cfg)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.StorageError("failed to remove daemon state").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		slog.Debug("Removed daemon state", logfields.Path(path))
		fmt.Fprintln(out, "Daemon state cleared")
	}
	return nil
}

func preferencesPath(cfg *config.Config) string {
	return filepath.Join(cfg.Daemon.DataDir, "daemon-state.json")
}
