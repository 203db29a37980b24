package vcs

import (
	"context"

	"github.com/pkg/errors"
)

// Commit is an opaque commit identifier (full hex sha for git).
type Commit string

func (c Commit) Short() string {
	if len(c) > 7 {
		return string(c[:7])
	}
	return string(c)
}

// DiffEntry is one file-level entry of a per-commit tree diff.
type DiffEntry struct {
	OldPath string
	NewPath string
	Deleted bool
}

var (
	ErrNotARepository = errors.New("not a valid repository")
	ErrNoSuchVersion  = errors.New("no such version")
	ErrDetachedHead   = errors.New("repository is in a detached HEAD state")
)

// Provider is the version-control backend consumed by the resolver and the
// runner. Query methods are read-only and safe for concurrent use; Checkout,
// ResetHard, Clean and DeleteBranch mutate the single shared working tree and
// must be serialized by the caller.
type Provider interface {
	Commit(ref string) (Commit, error)
	Parents(c Commit) ([]Commit, error)

	// IsAncestor reports whether a is an ancestor of b. A commit is an
	// ancestor of itself.
	IsAncestor(a, b Commit) (bool, error)

	// LookupPath reports whether path names a blob in the tree at c,
	// returning the canonical path when found.
	LookupPath(c Commit, path string) (string, bool, error)

	// Diff lists the file changes from a to b, with rename detection.
	Diff(ctx context.Context, a, b Commit) ([]DiffEntry, error)

	// HistoryAdded lists, earliest first, the commits that created path.
	// Renames are not followed: a rename counts as a creation of the new
	// path, not a continuation of the old one.
	HistoryAdded(path string) ([]Commit, error)

	FileContents(c Commit, path string) (string, error)

	Checkout(ref string) error
	ResetHard() error
	Clean() error
	DeleteBranch(name string) error

	Tags() ([]string, error)
	Branches() ([]string, error)
	ActiveBranch() (string, error)

	RootDir() string
}
