package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gertd/go-pluralize"

	"github.com/pescuma/patchtrace/lib/detectors"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/patches"
	"github.com/pescuma/patchtrace/lib/runner"
	"github.com/pescuma/patchtrace/lib/utils"
	"github.com/pescuma/patchtrace/lib/vcs"
)

type CheckCmd struct {
	Patch   string `arg:"" help:"Path to the patch to be tested." type:"existingfile"`
	Project string `arg:"" help:"Path to the root of the project repository." type:"existingdir"`

	Commit             string   `help:"Baseline commit the patch was authored at. Default is the sha in the patch header."`
	Versions           string   `help:"Comma separated list of versions against which to execute."`
	StartVersion       string   `help:"Version at which to start. Ignored if using --versions." name:"start-version"`
	AdditionsThreshold float64  `default:"0.5" help:"Minimum additions ratio for a version to count as patched."`
	DeletionsThreshold float64  `default:"0.25" help:"Minimum deletions ratio for a version to count as patched."`
	Ignore             []string `help:"Path patterns to exclude from detection."`
	Routines           int      `default:"4" help:"How many files to inspect in parallel per version."`
	Results            string   `help:"Path to store the results. Default is stdout." type:"path"`
}

func (c *CheckCmd) Run(ctx *cmdContext) error {
	console := ctx.ws.Console()

	text, err := os.ReadFile(c.Patch)
	if err != nil {
		return err
	}

	patch, err := patches.Parse(string(text))
	if err != nil {
		return err
	}

	projectDir, err := utils.PathAbs(c.Project)
	if err != nil {
		return err
	}

	provider, err := vcs.OpenGit(projectDir)
	if err != nil {
		return err
	}

	catalog, err := detectors.NewCatalog(c.Ignore)
	if err != nil {
		return err
	}

	console.Printf("Project: %v\n", filepath.Base(projectDir))
	console.Printf("  Patch: %v\n", filepath.Base(c.Patch))

	var versions []string
	if c.Versions != "" {
		versions = strings.Split(strings.TrimSpace(c.Versions), ",")
	}

	r := runner.New(console, provider, catalog, &runner.Options{
		Baseline:           c.Commit,
		Versions:           versions,
		StartVersion:       c.StartVersion,
		AdditionsThreshold: c.AdditionsThreshold,
		DeletionsThreshold: c.DeletionsThreshold,
		DetectRoutines:     c.Routines,
		PatchFile:          filepath.Base(c.Patch),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := r.Run(runCtx, patch)
	if err != nil {
		return err
	}

	err = writeReport(run, c.Results)
	if err != nil {
		return err
	}

	err = ctx.ws.WriteRun(run)
	if err != nil {
		return err
	}

	pc := pluralize.NewClient()
	console.Printf("Checked %v: %v patched, %v vulnerable, %v indeterminate\n",
		pc.Pluralize("version", len(run.Versions), true),
		run.CountVerdicts(model.VerdictPatched),
		run.CountVerdicts(model.VerdictVulnerable),
		run.CountVerdicts(model.VerdictIndeterminate))

	return nil
}
