package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/anchorbuilder/cmd/anchorbuilder/commands"
	"git.home.luguber.info/inful/anchorbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/anchorbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("anchorbuilder"),
		kong.Description("Remote build service for Anchor programs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
