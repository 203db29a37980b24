package model

import (
	"time"
)

// DetectionResult holds the per-file detection counts for one version.
// A ratio is undefined (nil) when the corresponding total is 0: a file with
// no relevant lines on an axis contributes no signal on that axis.
type DetectionResult struct {
	AdditionsDetected int
	AdditionsTotal    int
	DeletionsDetected int
	DeletionsTotal    int

	Status PathStatus

	// DriftAdded/DriftDeleted count lines that changed between the baseline
	// blob and the content inspected at this version. -1 when not computed.
	DriftAdded   int
	DriftDeleted int

	// Note carries diagnostics like the old-path fallback. Empty most times.
	Note string
}

func NewDetectionResult(status PathStatus) *DetectionResult {
	return &DetectionResult{
		Status:       status,
		DriftAdded:   -1,
		DriftDeleted: -1,
	}
}

func (r *DetectionResult) AdditionsRatio() *float64 {
	return ratio(r.AdditionsDetected, r.AdditionsTotal)
}

func (r *DetectionResult) DeletionsRatio() *float64 {
	return ratio(r.DeletionsDetected, r.DeletionsTotal)
}

// OverallResult aggregates one version's detection over the whole patch.
type OverallResult struct {
	AdditionsDetected int
	AdditionsTotal    int
	DeletionsDetected int
	DeletionsTotal    int

	// Confident is true iff at least one in-scope file of the patch was
	// actually found on disk at this version.
	Confident bool

	Verdict Verdict

	Breakdown map[string]*DetectionResult
}

func NewOverallResult() *OverallResult {
	return &OverallResult{
		Breakdown: map[string]*DetectionResult{},
	}
}

func (r *OverallResult) Add(file string, d *DetectionResult) {
	r.Breakdown[file] = d
	r.AdditionsDetected += d.AdditionsDetected
	r.AdditionsTotal += d.AdditionsTotal
	r.DeletionsDetected += d.DeletionsDetected
	r.DeletionsTotal += d.DeletionsTotal
}

func (r *OverallResult) AdditionsRatio() *float64 {
	return ratio(r.AdditionsDetected, r.AdditionsTotal)
}

func (r *OverallResult) DeletionsRatio() *float64 {
	return ratio(r.DeletionsDetected, r.DeletionsTotal)
}

func ratio(detected, total int) *float64 {
	if total == 0 {
		return nil
	}

	result := float64(detected) / float64(total)
	return &result
}

// VersionResult is the evaluation of one target version. Error is set when
// the version was skipped or aborted; Overall is nil in that case.
type VersionResult struct {
	Version string
	Overall *OverallResult
	Error   string
}

type Run struct {
	ID        UUID
	Project   string
	PatchFile string
	Baseline  string
	CreatedAt time.Time

	Versions []*VersionResult
}

func NewRun(project, patchFile, baseline string) *Run {
	return &Run{
		ID:        NewUUID("r"),
		Project:   project,
		PatchFile: patchFile,
		Baseline:  baseline,
		CreatedAt: time.Now(),
	}
}

func (r *Run) CountVerdicts(v Verdict) int {
	result := 0
	for _, vr := range r.Versions {
		if vr.Overall != nil && vr.Overall.Verdict == v {
			result++
		}
	}
	return result
}
