// Package gitstore is the only package that imports go-git: it implements
// absorb.ObjectStore against a real repository. Everything else in this
// module talks to the narrower storeapi/absorb interfaces instead.
package gitstore

import (
	"os"

	git "github.com/go-git/go-git/v5"
)

// OpenFromEnvironment locates the repository containing startDir (or the
// current working directory, if startDir is empty) by walking upward for
// a .git entry: DetectDotGit asks PlainOpen to search parent directories
// for one.
func OpenFromEnvironment(startDir string) (*Store, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		startDir = wd
	}

	repo, err := git.PlainOpenWithOptions(startDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return &Store{repo: repo}, nil
}
