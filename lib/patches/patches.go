package patches

import (
	"regexp"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/pkg/errors"

	"github.com/pescuma/patchtrace/lib/model"
)

var shaRE = regexp.MustCompile(`([a-f0-9]{40})`)

// Parse turns unified/git diff text into the patch model. Binary files are
// skipped: there are no lines to look for.
func Parse(text string) (*model.Patch, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(text))
	if err != nil {
		return nil, errors.Wrap(err, "parsing patch")
	}

	if len(files) == 0 {
		return nil, errors.New("patch contains no file changes")
	}

	result := &model.Patch{
		Baseline: findBaselineSha(text),
	}

	for _, file := range files {
		if file.IsBinary {
			continue
		}

		oldName, newName := stripHeaderPrefixes(file.OldName, file.NewName)

		diff := &model.FileDiff{
			OldPath:     oldName,
			NewPath:     newName,
			TrackedPath: newName,
			Status:      model.StatusUnchanged,
		}
		if diff.NewPath == "" {
			diff.NewPath = diff.OldPath
			diff.TrackedPath = diff.OldPath
		}
		if diff.OldPath == "" {
			diff.OldPath = diff.NewPath
		}

		for _, frag := range file.TextFragments {
			for _, line := range frag.Lines {
				diff.Changes = append(diff.Changes, model.LineChange{
					Type: changeType(line.Op),
					Text: strings.TrimSuffix(line.Line, "\n"),
				})
			}
		}

		result.Files = append(result.Files, diff)
	}

	return result, nil
}

// FindBaselineSha extracts the commit the patch was authored at, taken from
// the second word of the patch header (the sha in "From <sha> ..." or
// "commit <sha>" lines of git-formatted patches).
func FindBaselineSha(text string) (string, error) {
	sha := findBaselineSha(text)
	if sha == "" {
		return "", errors.New("no commit sha found in patch header")
	}
	return sha, nil
}

func findBaselineSha(text string) string {
	words := strings.Fields(text)
	if len(words) < 2 {
		return ""
	}

	m := shaRE.FindStringSubmatch(words[1])
	if m == nil {
		return ""
	}

	return m[1]
}

// stripHeaderPrefixes removes the conventional a/ and b/ prefixes that plain
// unified diffs keep in their ---/+++ header lines. Git-formatted patches
// arrive with the prefixes already stripped by the parser, so stripping only
// happens when both present sides carry their prefix; real paths under a/ or
// b/ directories survive.
func stripHeaderPrefixes(oldName, newName string) (string, string) {
	oldOk := oldName == "" || strings.HasPrefix(oldName, "a/")
	newOk := newName == "" || strings.HasPrefix(newName, "b/")

	if !oldOk || !newOk || (oldName == "" && newName == "") {
		return oldName, newName
	}

	return strings.TrimPrefix(oldName, "a/"), strings.TrimPrefix(newName, "b/")
}

func changeType(op gitdiff.LineOp) model.LineChangeType {
	switch op {
	case gitdiff.OpContext:
		return model.LineContext
	case gitdiff.OpAdd:
		return model.LineAdded
	case gitdiff.OpDelete:
		return model.LineRemoved
	default:
		panic("unhandled default case")
	}
}
