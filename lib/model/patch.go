package model

type LineChangeType int8

const (
	LineContext LineChangeType = iota
	LineAdded
	LineRemoved
)

func (t LineChangeType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		panic("unhandled default case")
	}
}

type LineChange struct {
	Type LineChangeType
	Text string
}

// FileDiff is one file touched by the patch. TrackedPath starts as NewPath
// and is only rewritten while a resolver is carrying it to another commit.
type FileDiff struct {
	OldPath     string
	NewPath     string
	TrackedPath string
	Status      PathStatus
	Changes     []LineChange
}

// ForVersion returns a fresh copy to resolve against one target version.
// Status and TrackedPath are never shared between versions.
func (d *FileDiff) ForVersion() *FileDiff {
	result := *d
	result.TrackedPath = d.NewPath
	result.Status = StatusUnchanged
	return &result
}

type Patch struct {
	// Baseline is the commit sha the patch was authored at.
	Baseline string
	Files    []*FileDiff
}
