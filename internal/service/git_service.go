package service

import (
	"fmt"

	"django-deployer/pkg/utils"
)

// GitService compares the local checkout with the branch the server will
// pull. It never merges, rebases or pushes.
type GitService struct {
	local Connection
}

func NewGitService(local Connection) *GitService {
	return &GitService{local: local}
}

// InSync reports whether HEAD and {remoteName}/{branch} resolve to the same
// commit. Both identifiers are compared as raw stdout.
func (g *GitService) InSync(remoteName, branch string) (bool, error) {
	localHash, err := g.revParse("HEAD")
	if err != nil {
		return false, err
	}
	remoteHash, err := g.revParse(fmt.Sprintf("%s/%s", remoteName, branch))
	if err != nil {
		return false, err
	}
	return localHash == remoteHash, nil
}

func (g *GitService) revParse(ref string) (string, error) {
	res, err := execute(g.local, "git rev-parse "+utils.ShellQuote(ref), true)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}
