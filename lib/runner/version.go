package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aquilax/truncate"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/pescuma/patchtrace/lib/detectors"
	"github.com/pescuma/patchtrace/lib/encodings"
	"github.com/pescuma/patchtrace/lib/linediff"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/resolvers"
	"github.com/pescuma/patchtrace/lib/utils"
	"github.com/pescuma/patchtrace/lib/vcs"
)

// evaluateVersion checks out one version and runs resolution + detection for
// every file of the patch. All failures are confined to this version: the
// caller records the error and moves on.
func (r *Runner) evaluateVersion(ctx context.Context, baseline vcs.Commit, version string, patch *model.Patch) *model.VersionResult {
	result := &model.VersionResult{Version: version}

	r.console.PushPrefix("%v: ", version)
	defer r.console.PopPrefix()

	err := r.checkoutVersion(version)
	if err != nil {
		r.console.Printf("ERROR: %v\n", err)
		result.Error = err.Error()
		return result
	}

	target, err := r.provider.Commit(version)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	type fileOutcome struct {
		path      string
		detection *model.DetectionResult
		found     bool
	}

	outcomes := make([]fileOutcome, len(patch.Files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(utils.IIf(r.opts.DetectRoutines > 0, r.opts.DetectRoutines, 4))

	for i, file := range patch.Files {
		i, file := i, file.ForVersion()
		group.Go(func() error {
			detection, found, err := r.evaluateFile(groupCtx, baseline, target, file)
			if err != nil {
				return err
			}

			outcomes[i] = fileOutcome{path: file.NewPath, detection: detection, found: found}
			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		r.console.Printf("ERROR: %v\n", err)
		result.Error = err.Error()
		return result
	}

	overall := model.NewOverallResult()
	for _, outcome := range outcomes {
		overall.Add(outcome.path, outcome.detection)
		overall.Confident = overall.Confident || outcome.found
	}

	overall.Verdict = computeVerdict(overall, r.opts.AdditionsThreshold, r.opts.DeletionsThreshold)

	result.Overall = overall
	return result
}

func (r *Runner) checkoutVersion(version string) error {
	fmt.Fprintf(r.console.Verbose(), "Checking out working tree\n")

	branches, err := r.provider.Branches()
	if err != nil {
		return err
	}

	// A local branch with the tag's name would shadow it
	if lo.Contains(branches, version) {
		err = r.provider.DeleteBranch(version)
		if err != nil {
			return err
		}
	}

	err = r.provider.ResetHard()
	if err != nil {
		return err
	}

	err = r.provider.Clean()
	if err != nil {
		return err
	}

	return r.provider.Checkout(version)
}

// evaluateFile resolves one file of the patch and, when the file is found on
// disk at this version, runs detection against its content. Resolution
// precondition failures annotate the file; ambiguous topologies and detector
// invariant violations are returned as errors and abort the version.
func (r *Runner) evaluateFile(ctx context.Context, baseline, target vcs.Commit, file *model.FileDiff) (*model.DetectionResult, bool, error) {
	resolved, status, err := resolvers.Resolve(ctx, r.provider, baseline, target, file.NewPath)
	if err != nil {
		if errors.Is(err, resolvers.ErrAmbiguousRename) {
			return nil, false, err
		}

		detection := model.NewDetectionResult(model.StatusUnknown)
		detection.Note = err.Error()
		return detection, false, nil
	}

	file.TrackedPath = resolved
	file.Status = status

	if !r.catalog.Eligible(resolved) {
		detection := model.NewDetectionResult(status)
		detection.Note = "skipped: low-signal path"
		return detection, false, nil
	}

	switch status {
	case model.StatusDeleted, model.StatusMissing, model.StatusUnknown:
		// Nothing to inspect at this version
		return model.NewDetectionResult(status), false, nil

	case model.StatusUnchanged, model.StatusUpdated:
		// Continue below

	default:
		panic("unhandled default case")
	}

	detection := model.NewDetectionResult(status)

	diskPath, err := r.findOnDisk(file)
	if err != nil {
		return nil, false, err
	}
	if diskPath == "" {
		fmt.Fprintf(r.console.Verbose(), "WARNING: File %v does not exist\n", file.TrackedPath)
		detection.Note = "file absent"
		return detection, false, nil
	}

	source, err := r.readLines(diskPath)
	if err != nil {
		detection.Note = err.Error()
		return detection, false, nil
	}

	detection, err = detectors.Detect(file, source)
	if err != nil {
		return nil, false, err
	}
	if detection.Note == "" {
		detection.Note = noteOf(diskPath, file, r.provider.RootDir())
	}

	r.computeDrift(baseline, file, source, detection)

	return detection, true, nil
}

// findOnDisk locates the file content to inspect: the resolved path, or the
// patch's old path as a fallback (detection then carries a note).
func (r *Runner) findOnDisk(file *model.FileDiff) (string, error) {
	full := filepath.Join(r.provider.RootDir(), file.TrackedPath)

	exists, err := utils.FileExists(full)
	if err != nil {
		return "", err
	}
	if exists {
		fmt.Fprintf(r.console.Verbose(), "Found %v\n", full)
		return full, nil
	}

	if file.OldPath != file.TrackedPath {
		full = filepath.Join(r.provider.RootDir(), file.OldPath)

		exists, err = utils.FileExists(full)
		if err != nil {
			return "", err
		}
		if exists {
			fmt.Fprintf(r.console.Verbose(), "WARNING: Found file at old path: %v\n", full)
			return full, nil
		}
	}

	return "", nil
}

func (r *Runner) readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines, encoding, confidence, err := encodings.DecodeLines(data)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(r.console.Verbose(), "%v: encoding is %v with %v confidence\n",
		truncate.Truncate(path, 80, "...", truncate.PositionStart), encoding, confidence)

	return lines, nil
}

// computeDrift diffs the baseline blob against the inspected content, as a
// diagnostic of how far this version has diverged from the patched file.
// Best effort: failures leave the drift counters at -1.
func (r *Runner) computeDrift(baseline vcs.Commit, file *model.FileDiff, source []string, detection *model.DetectionResult) {
	baselineContent, err := r.provider.FileContents(baseline, file.NewPath)
	if err != nil {
		return
	}

	var sb strings.Builder
	for _, line := range source {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	detection.DriftAdded, detection.DriftDeleted = linediff.Counts(linediff.Do(baselineContent, sb.String()))
}

func noteOf(diskPath string, file *model.FileDiff, rootDir string) string {
	if diskPath == filepath.Join(rootDir, file.TrackedPath) {
		return ""
	}
	return "found at old path"
}

func computeVerdict(o *model.OverallResult, additionsThreshold, deletionsThreshold float64) model.Verdict {
	if !o.Confident {
		return model.VerdictIndeterminate
	}

	// An undefined ratio is no evidence either way
	if a := o.AdditionsRatio(); a != nil && *a < additionsThreshold {
		return model.VerdictVulnerable
	}
	if d := o.DeletionsRatio(); d != nil && *d < deletionsThreshold {
		return model.VerdictVulnerable
	}

	return model.VerdictPatched
}
