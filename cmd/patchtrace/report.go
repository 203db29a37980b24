package main

import (
	"encoding/json"
	"os"

	"github.com/pescuma/patchtrace/lib/model"
)

type overallReport struct {
	Additions  *float64 `json:"additions"`
	Deletions  *float64 `json:"deletions"`
	Confident  bool     `json:"confident"`
	Vulnerable string   `json:"vulnerable"`
}

type driftReport struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

type fileReport struct {
	Additions *float64     `json:"additions"`
	Deletions *float64     `json:"deletions"`
	Status    string       `json:"status"`
	Drift     *driftReport `json:"drift,omitempty"`
	Note      string       `json:"note,omitempty"`
}

type versionReport struct {
	Overall   *overallReport         `json:"overall,omitempty"`
	Breakdown map[string]*fileReport `json:"breakdown,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func writeReport(run *model.Run, path string) error {
	report := map[string]*versionReport{}

	for _, version := range run.Versions {
		report[version.Version] = newVersionReport(version)
	}

	out := os.Stdout
	if path != "" {
		var err error
		out, err = os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "    ")
	return encoder.Encode(report)
}

func newVersionReport(version *model.VersionResult) *versionReport {
	result := &versionReport{
		Error: version.Error,
	}

	if version.Overall == nil {
		return result
	}

	result.Overall = &overallReport{
		Additions:  version.Overall.AdditionsRatio(),
		Deletions:  version.Overall.DeletionsRatio(),
		Confident:  version.Overall.Confident,
		Vulnerable: version.Overall.Verdict.String(),
	}

	result.Breakdown = map[string]*fileReport{}
	for path, detection := range version.Overall.Breakdown {
		file := &fileReport{
			Additions: detection.AdditionsRatio(),
			Deletions: detection.DeletionsRatio(),
			Status:    detection.Status.String(),
			Note:      detection.Note,
		}

		if detection.DriftAdded >= 0 {
			file.Drift = &driftReport{
				Added:   detection.DriftAdded,
				Deleted: detection.DriftDeleted,
			}
		}

		result.Breakdown[path] = file
	}

	return result
}
