package resolvers

import (
	"context"

	"github.com/oleiade/lane/v2"
	"github.com/pkg/errors"

	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/vcs"
)

var (
	// ErrPathNotAtBaseline means the patch does not describe the project at
	// the baseline commit. Precondition violation, fatal for this file.
	ErrPathNotAtBaseline = errors.New("path does not exist at the baseline commit")

	// ErrAmbiguousRename means one commit step changed the tracked path more
	// than once. Unsupported topology: better to fail than to guess.
	ErrAmbiguousRename = errors.New("more than one change for the tracked path in a single commit")

	ErrNoCreationCommit = errors.New("no creation commit found for path")
)

// Resolve carries path from baseline to target, surviving renames and
// deletions. Read-only: it never touches the working tree.
func Resolve(ctx context.Context, provider vcs.Provider, baseline, target vcs.Commit, path string) (string, model.PathStatus, error) {
	if baseline == target {
		return path, model.StatusUnchanged, nil
	}

	canonical, found, err := provider.LookupPath(baseline, path)
	if err != nil {
		return "", model.StatusUnknown, err
	}
	if !found {
		return "", model.StatusUnknown, errors.Wrapf(ErrPathNotAtBaseline, "%v at %v", path, baseline.Short())
	}
	path = canonical

	// Cheap short-circuit: if the path still exists at the target there is no
	// point walking history, and a same-named recreation resolves to itself.
	if _, found, err = provider.LookupPath(target, path); err != nil {
		return "", model.StatusUnknown, err
	} else if found {
		return path, model.StatusUnchanged, nil
	}

	forward, err := provider.IsAncestor(baseline, target)
	if err != nil {
		return "", model.StatusUnknown, err
	}
	if forward {
		return resolveForward(ctx, provider, baseline, target, path)
	}

	backward, err := provider.IsAncestor(target, baseline)
	if err != nil {
		return "", model.StatusUnknown, err
	}
	if backward {
		return resolveBackward(provider, baseline, target, path)
	}

	// Unrelated histories: nothing authoritative can be said.
	return path, model.StatusUnknown, nil
}

// resolveForward walks the linear ancestry path from baseline to target one
// commit at a time, following the tracked path through each per-commit diff.
func resolveForward(ctx context.Context, provider vcs.Provider, baseline, target vcs.Commit, path string) (string, model.PathStatus, error) {
	steps, err := ancestryPath(provider, baseline, target)
	if err != nil {
		return "", model.StatusUnknown, err
	}

	tracked := path
	status := model.StatusUnchanged

	prev := baseline
	for step, ok := steps.Shift(); ok; step, ok = steps.Shift() {
		entries, err := provider.Diff(ctx, prev, step)
		if err != nil {
			return "", model.StatusUnknown, err
		}

		var matches []vcs.DiffEntry
		for _, entry := range entries {
			if entry.OldPath == tracked {
				matches = append(matches, entry)
			}
		}

		switch {
		case len(matches) == 0:
			// Untouched this step

		case len(matches) == 1:
			if matches[0].Deleted {
				return tracked, model.StatusDeleted, nil
			}

			if matches[0].NewPath != tracked {
				tracked = matches[0].NewPath
				status = model.StatusUpdated
			}

		default:
			return "", model.StatusUnknown,
				errors.Wrapf(ErrAmbiguousRename, "%v at %v", tracked, step.Short())
		}

		prev = step
	}

	return tracked, status, nil
}

// ancestryPath enumerates the commits strictly after baseline up to and
// including target, oldest first. At merges it follows the parent through
// which baseline is reachable, preferring the first parent.
func ancestryPath(provider vcs.Provider, baseline, target vcs.Commit) (*lane.Deque[vcs.Commit], error) {
	steps := lane.NewDeque[vcs.Commit]()

	cur := target
	for cur != baseline {
		steps.Prepend(cur)

		parents, err := provider.Parents(cur)
		if err != nil {
			return nil, err
		}

		next := vcs.Commit("")
		for _, parent := range parents {
			reachable, err := provider.IsAncestor(baseline, parent)
			if err != nil {
				return nil, err
			}

			if reachable {
				next = parent
				break
			}
		}

		if next == "" {
			return nil, errors.Errorf("no path from %v back to %v", target.Short(), baseline.Short())
		}

		cur = next
	}

	return steps, nil
}

// resolveBackward answers whether the path already existed at an ancestor of
// the baseline: find its creation commit and check it precedes the target.
//
// HistoryAdded does not follow renames, so a path renamed before the
// baseline dates its creation at the rename and resolves missing at
// pre-rename targets. There is nothing to inspect at such targets under the
// old name either, so the outcome is the same.
func resolveBackward(provider vcs.Provider, baseline, target vcs.Commit, path string) (string, model.PathStatus, error) {
	additions, err := provider.HistoryAdded(path)
	if err != nil {
		return "", model.StatusUnknown, err
	}

	creation := vcs.Commit("")
	for _, commit := range additions {
		reachable, err := provider.IsAncestor(commit, baseline)
		if err != nil {
			return "", model.StatusUnknown, err
		}

		if reachable {
			creation = commit
			break
		}
	}

	if creation == "" {
		return "", model.StatusUnknown, errors.Wrapf(ErrNoCreationCommit, "%v", path)
	}

	existed, err := provider.IsAncestor(creation, target)
	if err != nil {
		return "", model.StatusUnknown, err
	}

	if !existed {
		return path, model.StatusMissing, nil
	}

	return path, model.StatusUnchanged, nil
}
