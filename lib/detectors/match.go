package detectors

import (
	"strings"

	"github.com/hashicorp/go-set/v2"
)

// Match reports whether every whitespace-delimited token of the patch line
// appears among the tokens of the file line. Order and duplicates are
// ignored, so indentation and reflow don't matter, but every distinctive
// token must be present. Splitting is on whitespace only: "x+1" is a single
// token and does not match the tokens "x", "+", "1".
func Match(patchLine, fileLine string) bool {
	fileTokens := set.From(strings.Fields(fileLine))

	for _, token := range strings.Fields(patchLine) {
		if !fileTokens.Contains(token) {
			return false
		}
	}

	return true
}
