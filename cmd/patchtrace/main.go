package main

import (
	"github.com/alecthomas/kong"

	"github.com/pescuma/patchtrace/lib/workspace"
)

var cli struct {
	Workspace string `short:"w" help:"Workspace to store results. Default is ./.patchtrace or ~/.patchtrace if that does not exist." type:"path"`
	Debug     bool   `help:"Turn on debugging output."`

	Check CheckCmd `cmd:"" help:"Check each version of a codebase for the presence of a patch."`
	Show  ShowCmd  `cmd:"" help:"Show the results of previous runs."`
}

type cmdContext struct {
	ws *workspace.Workspace
}

func main() {
	ctx := kong.Parse(&cli, kong.ShortUsageOnError())

	ws, err := workspace.NewWorkspace(cli.Workspace, cli.Debug)
	ctx.FatalIfErrorf(err)
	defer ws.Close()

	err = ctx.Run(&cmdContext{
		ws: ws,
	})
	ctx.FatalIfErrorf(err)
}
