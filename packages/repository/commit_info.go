package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"docsync-agent/types"

	gogit "github.com/go-git/go-git/v5"
)

// GetCommitInfo reads HEAD and the origin URL of the repository containing dir.
// A missing origin remote leaves RepoURL empty.
func GetCommitInfo(dir, prNumber string) (*types.CommitInfo, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	sha := head.Hash().String()
	info := &types.CommitInfo{
		Commit:    sha,
		ShortHash: shortSHA(sha),
		PRNumber:  prNumber,
	}

	remote, err := repo.Remote("origin")
	switch {
	case errors.Is(err, gogit.ErrRemoteNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read origin remote: %w", err)
	default:
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.RepoURL = NormalizeRepoURL(urls[0])
		}
	}

	if info.RepoURL != "" && prNumber != "" {
		info.PRURL = info.RepoURL + "/pull/" + prNumber
	}
	return info, nil
}

// NormalizeRepoURL turns a clone URL into the browsable https form without credentials or ".git".
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(s, "git@"); ok {
		host, path, found := strings.Cut(rest, ":")
		if found {
			s = "https://" + host + "/" + path
		}
	}

	if u, err := url.Parse(s); err == nil && u.Host != "" {
		u.User = nil
		if u.Scheme == "ssh" || u.Scheme == "git" {
			u.Scheme = "https"
		}
		s = u.String()
	}

	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// ParseOwnerRepo extracts owner and repository name from a GitHub URL in any clone form.
func ParseOwnerRepo(raw string) (owner, repo string, err error) {
	normalized := NormalizeRepoURL(raw)
	u, perr := url.Parse(normalized)
	if perr != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", normalized, perr)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository URL %q: expected owner/name", normalized)
	}
	return parts[0], parts[1], nil
}
