package resolve

import (
	"regexp"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"flymake/internal/fmkerr"
	"flymake/internal/semverrange"
)

// semverToken matches a version mention prefixed by "v", "ver" or
// "version" in a commit message, e.g. "release v1.4.2" or "bump version
// 2.0.0" (spec §4.5's git-log scan rule).
var semverToken = regexp.MustCompile(`(?i)\b(?:v|ver|version)[-_ ]?(\d+\.\d+\.\d+)\b`)

// cloneOrOpen clones url into dest (honoring branch, if set) unless dest
// already holds a .git directory, in which case it's opened as-is.
func cloneOrOpen(dest, url, branch string) (*git.Repository, error) {
	if hasGitDir(dest) {
		repo, err := git.PlainOpen(dest)
		if err != nil {
			return nil, fmkerr.Wrap(fmkerr.CloneFailed, dest, err)
		}
		return repo, nil
	}

	opts := &git.CloneOptions{URL: url}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}
	repo, err := git.PlainClone(dest, false, opts)
	if err != nil {
		return nil, fmkerr.Wrap(fmkerr.CloneFailed, url, err)
	}
	return repo, nil
}

// checkoutSha checks out an exact commit hash.
func checkoutSha(repo *git.Repository, sha string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmkerr.Wrap(fmkerr.CloneFailed, sha, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(sha)}); err != nil {
		return fmkerr.Wrap(fmkerr.CloneFailed, sha, err)
	}
	return nil
}

// checkoutVersionTag walks the repository's commit log from HEAD, looking
// for the first commit whose message carries a semver token satisfying
// rangeExpr; it checks out that commit and returns the matched version. No
// match is a CloneFailed error — the caller has nothing sensible to build.
func checkoutVersionTag(repo *git.Repository, rangeExpr string) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmkerr.Wrap(fmkerr.CloneFailed, "HEAD", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return "", fmkerr.Wrap(fmkerr.CloneFailed, "git log", err)
	}
	defer iter.Close()

	var matchHash plumbing.Hash
	var matchVersion string
	err = iter.ForEach(func(c *object.Commit) error {
		m := semverToken.FindStringSubmatch(c.Message)
		if m == nil {
			return nil
		}
		ok, serr := semverrange.Satisfies(rangeExpr, m[1])
		if serr != nil || !ok {
			return nil
		}
		matchHash = c.Hash
		matchVersion = m[1]
		return storerStop
	})
	if err != nil && err != storerStop {
		return "", fmkerr.Wrap(fmkerr.CloneFailed, "git log", err)
	}
	if matchVersion == "" {
		return "", fmkerr.New(fmkerr.CloneFailed, "no commit satisfies version range "+rangeExpr)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmkerr.Wrap(fmkerr.CloneFailed, matchHash.String(), err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: matchHash}); err != nil {
		return "", fmkerr.Wrap(fmkerr.CloneFailed, matchHash.String(), err)
	}
	return matchVersion, nil
}

// storerStop is a sentinel returned from a CommitIter.ForEach callback to
// stop iteration early once a match is found.
var storerStop = errStop{}

type errStop struct{}

func (errStop) Error() string { return "stop" }

func hasGitDir(dest string) bool {
	return dirExists(dest + "/.git")
}
