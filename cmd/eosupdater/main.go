package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/TeamEOS/packages-apps-EOSUpdater/cmd/eosupdater/commands"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("eosupdater"),
		kong.Description("Discover EOS ROM updates and report what changed since the last check."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version + " (" + version.GitCommit + ")"},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, cli)
	if err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		adapter.HandleError(err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}
