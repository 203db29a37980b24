package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/mod/semver"

	"github.com/pescuma/patchtrace/lib/consoles"
	"github.com/pescuma/patchtrace/lib/detectors"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/utils"
	"github.com/pescuma/patchtrace/lib/vcs"
)

type Options struct {
	// Baseline overrides the commit sha extracted from the patch header.
	Baseline string

	// Versions is the explicit list of tags to evaluate. When empty, all
	// tags at or above StartVersion are used.
	Versions     []string
	StartVersion string

	AdditionsThreshold float64
	DeletionsThreshold float64

	// DetectRoutines bounds the per-file detection workers inside one
	// checked-out version. <= 0 means a sensible default.
	DetectRoutines int

	// PatchFile is recorded in the stored run, for bookkeeping only.
	PatchFile string
}

type Runner struct {
	console  consoles.Console
	provider vcs.Provider
	catalog  *detectors.Catalog
	opts     *Options
}

func New(console consoles.Console, provider vcs.Provider, catalog *detectors.Catalog, opts *Options) *Runner {
	return &Runner{
		console:  console,
		provider: provider,
		catalog:  catalog,
		opts:     opts,
	}
}

// Run evaluates the patch against every target version. The shared working
// tree is checked out once per version and restored to the original branch on
// the way out, no matter how the loop ends. Cancellation stops between
// versions and keeps the results computed so far.
func (r *Runner) Run(ctx context.Context, patch *model.Patch) (*model.Run, error) {
	baselineRef := utils.IIf(r.opts.Baseline != "", r.opts.Baseline, patch.Baseline)
	if baselineRef == "" {
		return nil, errors.New("no baseline commit: none in the patch header and none configured")
	}

	baseline, err := r.provider.Commit(baselineRef)
	if err != nil {
		return nil, err
	}

	activeBranch, err := r.findActiveBranch()
	if err != nil {
		return nil, err
	}

	versions, err := r.listVersions()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(r.console.Verbose(), "Starting from commit sha %v\n", baseline)

	run := model.NewRun(filepath.Base(r.provider.RootDir()), r.opts.PatchFile, string(baseline))

	defer r.restore(activeBranch)

	bar := utils.NewProgressBar(len(versions))
	for _, version := range versions {
		if ctx.Err() != nil {
			// Clean stop: keep what was already computed
			break
		}

		bar.Describe(version)

		run.Versions = append(run.Versions, r.evaluateVersion(ctx, baseline, version, patch))

		_ = bar.Add(1)
	}
	_ = bar.Clear()

	return run, nil
}

// findActiveBranch determines which branch to restore at the end. A detached
// HEAD is only acceptable when there is exactly one local branch to adopt.
func (r *Runner) findActiveBranch() (string, error) {
	branch, err := r.provider.ActiveBranch()
	if err == nil {
		return branch, nil
	}
	if !errors.Is(err, vcs.ErrDetachedHead) {
		return "", err
	}

	branches, err := r.provider.Branches()
	if err != nil {
		return "", err
	}

	if len(branches) != 1 {
		return "", errors.Wrap(vcs.ErrDetachedHead, "could not determine default branch")
	}

	err = r.provider.Checkout(branches[0])
	if err != nil {
		return "", err
	}

	return branches[0], nil
}

func (r *Runner) listVersions() ([]string, error) {
	if len(r.opts.Versions) > 0 {
		return lo.Map(r.opts.Versions, func(v string, _ int) string { return strings.TrimSpace(v) }), nil
	}

	tags, err := r.provider.Tags()
	if err != nil {
		return nil, err
	}

	floor := canonicalVersion(r.opts.StartVersion)

	result := lo.Filter(tags, func(tag string, _ int) bool {
		v := canonicalVersion(tag)
		if !semver.IsValid(v) {
			fmt.Fprintf(r.console.Verbose(), "Skipping tag %v: not a version\n", tag)
			return false
		}

		return floor == "" || semver.Compare(v, floor) >= 0
	})

	sort.SliceStable(result, func(i, j int) bool {
		return semver.Compare(canonicalVersion(result[i]), canonicalVersion(result[j])) < 0
	})

	return result, nil
}

func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// restore puts the shared working tree back on the original branch. It runs
// unconditionally when Run exits, including on error and cancellation.
func (r *Runner) restore(activeBranch string) {
	if err := r.provider.ResetHard(); err != nil {
		r.console.Printf("ERROR: resetting working tree: %v\n", err)
	}
	if err := r.provider.Clean(); err != nil {
		r.console.Printf("ERROR: cleaning working tree: %v\n", err)
	}
	if err := r.provider.Checkout(activeBranch); err != nil {
		r.console.Printf("ERROR: restoring branch %v: %v\n", activeBranch, err)
	}
}
