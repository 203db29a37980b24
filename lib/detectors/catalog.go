package detectors

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-enry/go-enry/v2/data"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-set/v2"
	"github.com/pkg/errors"
)

var denylistedSegments = []string{"test", "tests", "spec", "specs"}

// Catalog decides which paths are worth scoring. Low-signal files (unknown
// extensions, test/spec trees, user-ignored paths) are excluded from totals
// entirely instead of being scored as zero.
type Catalog struct {
	extensions *set.Set[string]
	denylist   []glob.Glob
	ignores    []string
}

func NewCatalog(ignores []string) (*Catalog, error) {
	extensions := set.New[string](1000)
	for _, exts := range data.ExtensionsByLanguage {
		for _, ext := range exts {
			extensions.Insert(strings.ToLower(ext))
		}
	}

	denylist := make([]glob.Glob, 0, len(denylistedSegments))
	for _, segment := range denylistedSegments {
		g, err := glob.Compile(segment)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling denylist pattern %v", segment)
		}
		denylist = append(denylist, g)
	}

	for _, ignore := range ignores {
		if !doublestar.ValidatePathPattern(ignore) {
			return nil, errors.Errorf("invalid ignore pattern: %v", ignore)
		}
	}

	return &Catalog{
		extensions: extensions,
		denylist:   denylist,
		ignores:    ignores,
	}, nil
}

func (c *Catalog) Eligible(path string) bool {
	return c.recognized(path) && !c.denylisted(path) && !c.ignored(path)
}

func (c *Catalog) recognized(path string) bool {
	name := strings.ToLower(path)

	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}

	return c.extensions.Contains(name[i:])
}

func (c *Catalog) denylisted(path string) bool {
	for _, segment := range strings.Split(strings.ToLower(path), "/") {
		for _, g := range c.denylist {
			if g.Match(segment) {
				return true
			}
		}
	}

	return false
}

func (c *Catalog) ignored(path string) bool {
	for _, ignore := range c.ignores {
		if m, _ := doublestar.PathMatch(ignore, path); m {
			return true
		}
	}

	return false
}
