package orm

import (
	"time"

	"github.com/pescuma/patchtrace/lib/model"
)

type sqlRun struct {
	ID        model.UUID `gorm:"primaryKey"`
	Project   string
	PatchFile string
	Baseline  string
	CreatedAt time.Time

	Versions []sqlRunVersion `gorm:"foreignKey:RunID"`
}

type sqlRunVersion struct {
	ID      uint       `gorm:"primaryKey"`
	RunID   model.UUID `gorm:"index"`
	Version string
	Error   string

	AdditionsDetected int
	AdditionsTotal    int
	DeletionsDetected int
	DeletionsTotal    int
	Confident         bool
	Verdict           string

	Files []sqlRunFile `gorm:"foreignKey:RunVersionID"`
}

type sqlRunFile struct {
	ID           uint `gorm:"primaryKey"`
	RunVersionID uint `gorm:"index"`
	Path         string
	Status       string

	AdditionsDetected int
	AdditionsTotal    int
	DeletionsDetected int
	DeletionsTotal    int

	DriftAdded   int
	DriftDeleted int
	Note         string
}

func newSqlRun(run *model.Run) *sqlRun {
	result := &sqlRun{
		ID:        run.ID,
		Project:   run.Project,
		PatchFile: run.PatchFile,
		Baseline:  run.Baseline,
		CreatedAt: run.CreatedAt,
	}

	for _, version := range run.Versions {
		result.Versions = append(result.Versions, newSqlRunVersion(version))
	}

	return result
}

func newSqlRunVersion(version *model.VersionResult) sqlRunVersion {
	result := sqlRunVersion{
		Version: version.Version,
		Error:   version.Error,
	}

	if version.Overall != nil {
		result.AdditionsDetected = version.Overall.AdditionsDetected
		result.AdditionsTotal = version.Overall.AdditionsTotal
		result.DeletionsDetected = version.Overall.DeletionsDetected
		result.DeletionsTotal = version.Overall.DeletionsTotal
		result.Confident = version.Overall.Confident
		result.Verdict = version.Overall.Verdict.String()

		for path, detection := range version.Overall.Breakdown {
			result.Files = append(result.Files, newSqlRunFile(path, detection))
		}
	}

	return result
}

func newSqlRunFile(path string, detection *model.DetectionResult) sqlRunFile {
	return sqlRunFile{
		Path:              path,
		Status:            detection.Status.String(),
		AdditionsDetected: detection.AdditionsDetected,
		AdditionsTotal:    detection.AdditionsTotal,
		DeletionsDetected: detection.DeletionsDetected,
		DeletionsTotal:    detection.DeletionsTotal,
		DriftAdded:        detection.DriftAdded,
		DriftDeleted:      detection.DriftDeleted,
		Note:              detection.Note,
	}
}

func (s *sqlRun) toModel() *model.Run {
	return &model.Run{
		ID:        s.ID,
		Project:   s.Project,
		PatchFile: s.PatchFile,
		Baseline:  s.Baseline,
		CreatedAt: s.CreatedAt,
	}
}

func (s *sqlRunVersion) toModel(files []*sqlRunFile) *model.VersionResult {
	result := &model.VersionResult{
		Version: s.Version,
		Error:   s.Error,
	}

	if s.Error != "" {
		return result
	}

	overall := model.NewOverallResult()
	overall.Confident = s.Confident
	overall.Verdict = decodeVerdict(s.Verdict)

	for _, file := range files {
		overall.Add(file.Path, file.toModel())
	}

	// The stored aggregates are authoritative; Add recomputed them from the
	// breakdown, which may legitimately be empty for old runs.
	overall.AdditionsDetected = s.AdditionsDetected
	overall.AdditionsTotal = s.AdditionsTotal
	overall.DeletionsDetected = s.DeletionsDetected
	overall.DeletionsTotal = s.DeletionsTotal

	result.Overall = overall
	return result
}

func (s *sqlRunFile) toModel() *model.DetectionResult {
	return &model.DetectionResult{
		AdditionsDetected: s.AdditionsDetected,
		AdditionsTotal:    s.AdditionsTotal,
		DeletionsDetected: s.DeletionsDetected,
		DeletionsTotal:    s.DeletionsTotal,
		Status:            decodeStatus(s.Status),
		DriftAdded:        s.DriftAdded,
		DriftDeleted:      s.DriftDeleted,
		Note:              s.Note,
	}
}

func decodeVerdict(v string) model.Verdict {
	switch v {
	case "patched":
		return model.VerdictPatched
	case "vulnerable":
		return model.VerdictVulnerable
	default:
		return model.VerdictIndeterminate
	}
}

func decodeStatus(s string) model.PathStatus {
	switch s {
	case "unchanged":
		return model.StatusUnchanged
	case "updated":
		return model.StatusUpdated
	case "deleted":
		return model.StatusDeleted
	case "missing":
		return model.StatusMissing
	default:
		return model.StatusUnknown
	}
}
