package repo

import (
	"github.com/open-edge-platform/rpm-repo-composer/internal/github"
	"github.com/open-edge-platform/rpm-repo-composer/internal/planner"
)

// GitHubLister adapts the GitHub client to the ReleaseLister interface.
type GitHubLister struct {
	Client *github.Client
}

func (l *GitHubLister) LatestReleaseAssets(repo string) ([]planner.UpstreamAsset, error) {
	assets, err := l.Client.LatestReleaseAssets(repo)
	if err != nil {
		return nil, err
	}
	out := make([]planner.UpstreamAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, planner.UpstreamAsset{
			Filename:    a.Name,
			DownloadURL: a.DownloadURL,
			Size:        a.Size,
		})
	}
	return out, nil
}

func (l *GitHubLister) RepoDescription(repo string) (string, error) {
	return l.Client.RepoDescription(repo)
}
