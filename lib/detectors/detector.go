package detectors

import (
	"strings"

	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/pescuma/patchtrace/lib/model"
)

// ErrInvariant means a detected count exceeded its total. That is a defect in
// the detector or its input, never a property of the project under test.
var ErrInvariant = errors.New("detected count exceeds total")

// Detect decides, line by line, how much of the file diff is already present
// in source (the target file's lines). Additions count as detected when a
// matching line exists; deletions count as detected when the removed line is
// confirmed absent.
func Detect(diff *model.FileDiff, source []string) (*model.DetectionResult, error) {
	changes := preprocess(diff)

	result := model.NewDetectionResult(diff.Status)
	result.AdditionsTotal = len(changes.additions)
	result.DeletionsTotal = len(changes.deletions)

	if changes.oneLine && changes.before != "" && changes.after != "" {
		detectAnchored(changes, source, result)
	} else {
		detectScanning(changes, source, result)
	}

	if result.AdditionsDetected > result.AdditionsTotal || result.DeletionsDetected > result.DeletionsTotal {
		return nil, errors.Wrapf(ErrInvariant, "%v: %v/%v additions, %v/%v deletions",
			diff.TrackedPath,
			result.AdditionsDetected, result.AdditionsTotal,
			result.DeletionsDetected, result.DeletionsTotal)
	}

	return result, nil
}

func detectScanning(changes *fileChanges, source []string, result *model.DetectionResult) {
	for _, addition := range changes.additions {
		for _, line := range source {
			if Match(addition, line) {
				result.AdditionsDetected++
				break
			}
		}
	}

	for _, deletion := range changes.deletions {
		found := false
		for _, line := range source {
			if Match(deletion, line) {
				found = true
				break
			}
		}

		if !found {
			result.DeletionsDetected++
		}
	}
}

// detectAnchored handles a single semantic change: instead of scanning the
// whole file for one (possibly very common) line, it looks for the hunk's
// surrounding context and inspects only the line between the anchors.
func detectAnchored(changes *fileChanges, source []string, result *model.DetectionResult) {
	for i, line := range source {
		if !Match(changes.before, line) {
			continue
		}
		if i+2 >= len(source) || !Match(changes.after, source[i+2]) {
			continue
		}

		if len(changes.additions) == 1 {
			if Match(changes.additions[0], source[i+1]) {
				result.AdditionsDetected++
				return
			}
		} else if !Match(changes.deletions[0], source[i+1]) {
			result.DeletionsDetected++
			return
		}
	}
}

type fileChanges struct {
	additions []string
	deletions []string

	// oneLine anchors: the hunk lines adjacent to the changed line.
	oneLine bool
	before  string
	after   string
}

func preprocess(diff *model.FileDiff) *fileChanges {
	result := &fileChanges{}

	var rawAdditions, rawDeletions []string

	for i, change := range diff.Changes {
		if change.Type == model.LineContext {
			continue
		}
		if strings.TrimSpace(change.Text) == "" {
			continue
		}

		if change.Type == model.LineAdded {
			rawAdditions = append(rawAdditions, change.Text)
		} else {
			rawDeletions = append(rawDeletions, change.Text)
		}

		if i > 0 {
			result.before = diff.Changes[i-1].Text
		}
		if i < len(diff.Changes)-1 {
			result.after = diff.Changes[i+1].Text
		}
	}

	// A line that is both added and removed moved or was reformatted; it says
	// nothing about the fix and counts toward neither total.
	additionSet := set.From(rawAdditions)
	deletionSet := set.From(rawDeletions)

	result.additions = lo.Filter(rawAdditions, func(line string, _ int) bool {
		return !deletionSet.Contains(line)
	})
	result.deletions = lo.Filter(rawDeletions, func(line string, _ int) bool {
		return !additionSet.Contains(line)
	})

	result.oneLine = (len(result.additions) == 1) != (len(result.deletions) == 1)

	return result
}
