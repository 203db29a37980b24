package main

import (
	"github.com/dustin/go-humanize"
	"github.com/gertd/go-pluralize"

	"github.com/pescuma/patchtrace/lib/model"
)

type ShowCmd struct {
	Project string `help:"Only show runs for this project."`
}

func (c *ShowCmd) Run(ctx *cmdContext) error {
	runs, err := ctx.ws.LoadRuns()
	if err != nil {
		return err
	}

	console := ctx.ws.Console()
	pc := pluralize.NewClient()

	shown := 0
	for _, run := range runs {
		if c.Project != "" && run.Project != c.Project {
			continue
		}
		shown++

		console.Printf("%v: %v @ %.7v, %v (%v): %v patched, %v vulnerable, %v indeterminate\n",
			run.Project,
			run.PatchFile,
			run.Baseline,
			humanize.Time(run.CreatedAt),
			pc.Pluralize("version", len(run.Versions), true),
			run.CountVerdicts(model.VerdictPatched),
			run.CountVerdicts(model.VerdictVulnerable),
			run.CountVerdicts(model.VerdictIndeterminate))
	}

	if shown == 0 {
		console.Printf("No runs stored\n")
	}

	return nil
}
