package resolvers

import (
	"context"
	"testing"

	"github.com/bloomberg/go-testgroup"
	"github.com/pkg/errors"

	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/vcs"
	"github.com/pescuma/patchtrace/lib/vcs/vcstest"
)

func TestResolve(t *testing.T) {
	testgroup.RunSerially(t, &ResolveTests{})
}

type ResolveTests struct {
}

func (g *ResolveTests) SameCommitIsIdentity(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	c1 := b.Commit("add app")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c1), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusUnchanged, status)
}

func (g *ResolveTests) PathStillPresentAtTarget(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	c1 := b.Commit("add app")
	b.WriteFile("other.py", "pass\n")
	c2 := b.Commit("add other")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c2), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusUnchanged, status)
}

func (g *ResolveTests) ForwardRenameIsFollowed(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\nprint('bye')\n")
	c1 := b.Commit("add app")
	b.Rename("app.py", "server/app.py")
	b.Commit("move into server")
	b.WriteFile("README.md", "docs\n")
	c3 := b.Commit("add readme")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c3), "app.py")
	t.NoError(err)
	t.Equal("server/app.py", path)
	t.Equal(model.StatusUpdated, status)
}

func (g *ResolveTests) ForwardChainedRenames(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\nprint('bye')\n")
	c1 := b.Commit("add app")
	b.Rename("app.py", "src/app.py")
	b.Commit("first move")
	b.Rename("src/app.py", "src/main.py")
	c3 := b.Commit("second move")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c3), "app.py")
	t.NoError(err)
	t.Equal("src/main.py", path)
	t.Equal(model.StatusUpdated, status)
}

func (g *ResolveTests) ForwardDeletion(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	c1 := b.Commit("add app")
	b.RemoveFile("app.py")
	b.Commit("drop app")
	b.WriteFile("other.py", "pass\n")
	c3 := b.Commit("add other")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c3), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusDeleted, status)
}

func (g *ResolveTests) BackwardBeforeCreation(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("README.md", "docs\n")
	c1 := b.Commit("initial")
	b.WriteFile("app.py", "print('hi')\n")
	c2 := b.Commit("add app")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c2), vcs.Commit(c1), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusMissing, status)
}

func (g *ResolveTests) BackwardAfterCreation(t *testgroup.T) {
	// Deleted and later re-added: the creation commit still predates the
	// target, so the path counts as existing there.
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	b.Commit("add app")
	b.RemoveFile("app.py")
	c2 := b.Commit("drop app")
	b.WriteFile("app.py", "print('hi again')\n")
	b.Commit("restore app")
	b.WriteFile("README.md", "docs\n")
	c4 := b.Commit("add readme")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c4), vcs.Commit(c2), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusUnchanged, status)
}

func (g *ResolveTests) UnrelatedHistoriesAreUnknown(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	c1 := b.Commit("add app")
	b.WriteFile("app.py", "print('hi')\nprint('more')\n")
	c2 := b.Commit("grow app")

	b.CheckoutNewBranch("other", c1)
	b.RemoveFile("app.py")
	c3 := b.Commit("drop app on branch")

	provider := g.open(t, b)

	path, status, err := Resolve(context.Background(), provider, vcs.Commit(c2), vcs.Commit(c3), "app.py")
	t.NoError(err)
	t.Equal("app.py", path)
	t.Equal(model.StatusUnknown, status)
}

func (g *ResolveTests) MissingAtBaselineIsFatal(t *testgroup.T) {
	b := vcstest.NewRepoBuilder(t.T)
	b.WriteFile("app.py", "print('hi')\n")
	c1 := b.Commit("add app")
	b.WriteFile("other.py", "pass\n")
	c2 := b.Commit("add other")

	provider := g.open(t, b)

	_, _, err := Resolve(context.Background(), provider, vcs.Commit(c1), vcs.Commit(c2), "nope.py")
	t.True(errors.Is(err, ErrPathNotAtBaseline))
}

func (g *ResolveTests) open(t *testgroup.T, b *vcstest.RepoBuilder) vcs.Provider {
	provider, err := vcs.OpenGit(b.Dir())
	t.NoError(err)
	return provider
}
