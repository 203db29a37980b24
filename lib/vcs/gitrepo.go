package vcs

import (
	"context"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

type gitProvider struct {
	rootDir string
	repo    *git.Repository

	mutex   sync.Mutex
	commits map[plumbing.Hash]*object.Commit
}

func OpenGit(rootDir string) (Provider, error) {
	repo, err := git.PlainOpen(rootDir)
	if err == git.ErrRepositoryNotExists {
		return nil, errors.Wrapf(ErrNotARepository, "%v", rootDir)
	}
	if err != nil {
		return nil, err
	}

	return &gitProvider{
		rootDir: rootDir,
		repo:    repo,
		commits: map[plumbing.Hash]*object.Commit{},
	}, nil
}

func (g *gitProvider) RootDir() string {
	return g.rootDir
}

func (g *gitProvider) Commit(ref string) (Commit, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", errors.Wrapf(ErrNoSuchVersion, "%v", ref)
	}

	commit, err := g.commitObject(*hash)
	if err != nil {
		return "", err
	}

	return Commit(commit.Hash.String()), nil
}

func (g *gitProvider) commitObject(hash plumbing.Hash) (*object.Commit, error) {
	g.mutex.Lock()
	result, ok := g.commits[hash]
	g.mutex.Unlock()
	if ok {
		return result, nil
	}

	result, err := g.repo.CommitObject(hash)
	if err != nil {
		// May be an annotated tag pointing at a commit
		tag, tagErr := g.repo.TagObject(hash)
		if tagErr != nil {
			return nil, errors.Wrapf(err, "loading commit %v", hash)
		}

		result, err = tag.Commit()
		if err != nil {
			return nil, errors.Wrapf(err, "loading commit for tag %v", hash)
		}
	}

	g.mutex.Lock()
	g.commits[hash] = result
	g.mutex.Unlock()

	return result, nil
}

func (g *gitProvider) commitOf(c Commit) (*object.Commit, error) {
	return g.commitObject(plumbing.NewHash(string(c)))
}

func (g *gitProvider) Parents(c Commit) ([]Commit, error) {
	commit, err := g.commitOf(c)
	if err != nil {
		return nil, err
	}

	result := make([]Commit, 0, len(commit.ParentHashes))
	for _, p := range commit.ParentHashes {
		result = append(result, Commit(p.String()))
	}
	return result, nil
}

func (g *gitProvider) IsAncestor(a, b Commit) (bool, error) {
	if a == b {
		return true, nil
	}

	ca, err := g.commitOf(a)
	if err != nil {
		return false, err
	}
	cb, err := g.commitOf(b)
	if err != nil {
		return false, err
	}

	return ca.IsAncestor(cb)
}

func (g *gitProvider) LookupPath(c Commit, path string) (string, bool, error) {
	commit, err := g.commitOf(c)
	if err != nil {
		return "", false, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", false, err
	}

	entry, err := tree.FindEntry(path)
	if err == object.ErrEntryNotFound || err == object.ErrDirectoryNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if !entry.Mode.IsFile() {
		return "", false, nil
	}

	return path, true, nil
}

func (g *gitProvider) Diff(ctx context.Context, a, b Commit) ([]DiffEntry, error) {
	ca, err := g.commitOf(a)
	if err != nil {
		return nil, err
	}
	cb, err := g.commitOf(b)
	if err != nil {
		return nil, err
	}

	treeA, err := ca.Tree()
	if err != nil {
		return nil, err
	}
	treeB, err := cb.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, treeA, treeB, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, err
	}

	result := make([]DiffEntry, 0, len(changes))
	for _, change := range changes {
		entry := DiffEntry{
			OldPath: change.From.Name,
			NewPath: change.To.Name,
		}

		if entry.NewPath == "" {
			entry.Deleted = true
			entry.NewPath = entry.OldPath
		}
		if entry.OldPath == "" {
			entry.OldPath = entry.NewPath
		}

		result = append(result, entry)
	}

	return result, nil
}

func (g *gitProvider) HistoryAdded(path string) ([]Commit, error) {
	iter, err := g.repo.Log(&git.LogOptions{
		All:      true,
		Order:    git.LogOrderCommitterTime,
		FileName: &path,
	})
	if err != nil {
		return nil, err
	}

	var result []Commit
	err = iter.ForEach(func(commit *object.Commit) error {
		added, err := g.pathAddedIn(commit, path)
		if err != nil {
			return err
		}

		if added {
			result = append(result, Commit(commit.Hash.String()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Log order is newest first
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

func (g *gitProvider) pathAddedIn(commit *object.Commit, path string) (bool, error) {
	tree, err := commit.Tree()
	if err != nil {
		return false, err
	}

	if _, err = tree.FindEntry(path); err != nil {
		return false, nil
	}

	if commit.NumParents() == 0 {
		return true, nil
	}

	missingInAll := true
	err = commit.Parents().ForEach(func(parent *object.Commit) error {
		parentTree, err := parent.Tree()
		if err != nil {
			return err
		}

		if _, err = parentTree.FindEntry(path); err == nil {
			missingInAll = false
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return missingInAll, nil
}

func (g *gitProvider) FileContents(c Commit, path string) (string, error) {
	commit, err := g.commitOf(c)
	if err != nil {
		return "", err
	}

	file, err := commit.File(path)
	if err != nil {
		return "", errors.Wrapf(err, "%v at %v", path, c.Short())
	}

	return file.Contents()
}

func (g *gitProvider) Checkout(ref string) error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	branches, err := g.Branches()
	if err != nil {
		return err
	}

	for _, branch := range branches {
		if branch == ref {
			return wt.Checkout(&git.CheckoutOptions{
				Branch: plumbing.NewBranchReferenceName(ref),
				Force:  true,
			})
		}
	}

	hash, err := g.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return errors.Wrapf(ErrNoSuchVersion, "%v", ref)
	}

	commit, err := g.commitObject(*hash)
	if err != nil {
		return err
	}

	return wt.Checkout(&git.CheckoutOptions{
		Hash:  commit.Hash,
		Force: true,
	})
}

func (g *gitProvider) ResetHard() error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	return wt.Reset(&git.ResetOptions{Mode: git.HardReset})
}

func (g *gitProvider) Clean() error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	return wt.Clean(&git.CleanOptions{Dir: true})
}

func (g *gitProvider) DeleteBranch(name string) error {
	return g.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name))
}

func (g *gitProvider) Tags() ([]string, error) {
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, err
	}

	var result []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		result = append(result, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (g *gitProvider) Branches() ([]string, error) {
	iter, err := g.repo.Branches()
	if err != nil {
		return nil, err
	}

	var result []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		result = append(result, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (g *gitProvider) ActiveBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", err
	}

	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}

	return head.Name().Short(), nil
}
