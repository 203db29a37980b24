package model

// PathStatus is the outcome of resolving one tracked path from the baseline
// to a target version. It is terminal for that (baseline, version, path)
// triple and recomputed from scratch for every version.
type PathStatus int8

const (
	StatusUnchanged PathStatus = iota
	StatusUpdated
	StatusDeleted
	StatusMissing
	StatusUnknown
)

func (s PathStatus) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusUpdated:
		return "updated"
	case StatusDeleted:
		return "deleted"
	case StatusMissing:
		return "missing"
	case StatusUnknown:
		return "unknown"
	default:
		panic("unhandled default case")
	}
}

type Verdict int8

const (
	VerdictIndeterminate Verdict = iota
	VerdictVulnerable
	VerdictPatched
)

func (v Verdict) String() string {
	switch v {
	case VerdictIndeterminate:
		return "indeterminate"
	case VerdictVulnerable:
		return "vulnerable"
	case VerdictPatched:
		return "patched"
	default:
		panic("unhandled default case")
	}
}
