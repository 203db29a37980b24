// Package vcstest builds small throwaway git repositories for tests.
package vcstest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type RepoBuilder struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

func NewRepoBuilder(t *testing.T) *RepoBuilder {
	t.Helper()

	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	return &RepoBuilder{
		t:    t,
		dir:  dir,
		repo: repo,
		wt:   wt,
		when: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *RepoBuilder) Dir() string {
	return b.dir
}

func (b *RepoBuilder) WriteFile(path, content string) {
	b.t.Helper()

	full := filepath.Join(b.dir, path)

	err := os.MkdirAll(filepath.Dir(full), 0o700)
	if err != nil {
		b.t.Fatal(err)
	}

	err = os.WriteFile(full, []byte(content), 0o600)
	if err != nil {
		b.t.Fatal(err)
	}

	_, err = b.wt.Add(path)
	if err != nil {
		b.t.Fatal(err)
	}
}

func (b *RepoBuilder) Rename(oldPath, newPath string) {
	b.t.Helper()

	err := os.MkdirAll(filepath.Dir(filepath.Join(b.dir, newPath)), 0o700)
	if err != nil {
		b.t.Fatal(err)
	}

	err = os.Rename(filepath.Join(b.dir, oldPath), filepath.Join(b.dir, newPath))
	if err != nil {
		b.t.Fatal(err)
	}

	if _, err = b.wt.Remove(oldPath); err != nil {
		b.t.Fatal(err)
	}
	if _, err = b.wt.Add(newPath); err != nil {
		b.t.Fatal(err)
	}
}

func (b *RepoBuilder) RemoveFile(path string) {
	b.t.Helper()

	if _, err := b.wt.Remove(path); err != nil {
		b.t.Fatal(err)
	}
}

// CheckoutNewBranch creates a branch at the given commit and checks it out,
// so the next commits diverge from there.
func (b *RepoBuilder) CheckoutNewBranch(name, at string) {
	b.t.Helper()

	err := b.wt.Checkout(&git.CheckoutOptions{
		Hash:   plumbing.NewHash(at),
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
		Force:  true,
	})
	if err != nil {
		b.t.Fatal(err)
	}
}

func (b *RepoBuilder) Commit(message string) string {
	b.t.Helper()

	// Strictly increasing times keep committer-time log order deterministic
	b.when = b.when.Add(time.Hour)

	signature := &object.Signature{
		Name:  "test",
		Email: "test@example.com",
		When:  b.when,
	}

	hash, err := b.wt.Commit(message, &git.CommitOptions{
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		b.t.Fatal(err)
	}

	return hash.String()
}

func (b *RepoBuilder) Tag(name string) {
	b.t.Helper()

	head, err := b.repo.Head()
	if err != nil {
		b.t.Fatal(err)
	}

	_, err = b.repo.CreateTag(name, head.Hash(), nil)
	if err != nil {
		b.t.Fatal(err)
	}
}
