package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sandboxer/cmd/sandboxer/commands"
	"git.home.luguber.info/inful/sandboxer/internal/foundation/errors"
	"git.home.luguber.info/inful/sandboxer/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("sandboxer"),
		kong.Description("Recover assistant-written UI code and publish it to a browser sandbox."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	err := ctx.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
