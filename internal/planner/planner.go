// Package planner reconciles a project's tracked packages against its
// latest upstream release assets and the retention policy, producing the
// concrete download/delete plan for one run.
package planner

import (
	"sort"
	"strings"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
	"github.com/open-edge-platform/rpm-repo-composer/internal/manifest"
	"github.com/open-edge-platform/rpm-repo-composer/internal/retention"
	"github.com/open-edge-platform/rpm-repo-composer/internal/rpmver"
)

// UpstreamAsset is one release asset as reported by the release lister.
type UpstreamAsset struct {
	Filename    string
	DownloadURL string
	Size        int64
}

// Asset is one package file under consideration: tracked locally, newly
// discovered upstream, or both.
type Asset struct {
	Filename    string
	Version     rpmver.Version
	DownloadURL string
	Local       bool
	Size        int64
	SHA256      string
}

// Plan is the reconciliation result for one project. Retain is the full
// post-plan tracked set, including previously tracked files that current
// filters no longer consider (those are never auto-deleted).
type Plan struct {
	ToDownload []Asset
	ToDelete   []Asset
	Retain     []Asset
}

// Empty reports whether the plan changes nothing on disk.
func (p Plan) Empty() bool {
	return len(p.ToDownload) == 0 && len(p.ToDelete) == 0
}

// Build computes the sync plan for one project. The same inputs always
// produce an identical plan: every map is drained through a sort before it
// influences ordering.
func Build(project *config.Project, architectures []string, entries []manifest.Entry, upstream []UpstreamAsset) Plan {
	candidates := make(map[string]*Asset)
	var holdovers []Asset

	for _, e := range entries {
		if !considerable(project, architectures, e.Filename) {
			// Previously downloaded but outside current filters: not a
			// retention candidate, not deleted either.
			holdovers = append(holdovers, Asset{
				Filename: e.Filename,
				Version:  rpmver.Extract(e.Filename),
				Local:    true,
				Size:     e.Size,
				SHA256:   e.SHA256,
			})
			continue
		}
		candidates[e.Filename] = &Asset{
			Filename: e.Filename,
			Version:  rpmver.Extract(e.Filename),
			Local:    true,
			Size:     e.Size,
			SHA256:   e.SHA256,
		}
	}

	for _, u := range upstream {
		if !considerable(project, architectures, u.Filename) {
			continue
		}
		if existing, ok := candidates[u.Filename]; ok {
			// Already tracked; remember the URL in case the file needs
			// re-fetching.
			existing.DownloadURL = u.DownloadURL
			if existing.Size == 0 {
				existing.Size = u.Size
			}
			continue
		}
		candidates[u.Filename] = &Asset{
			Filename:    u.Filename,
			Version:     rpmver.Extract(u.Filename),
			DownloadURL: u.DownloadURL,
			Size:        u.Size,
		}
	}

	groups, byGroup := groupByVersion(candidates)
	retained, pruned := retention.Select(groups, project.KeepVersions)

	var plan Plan
	for _, g := range retained {
		for _, fn := range g.Filenames {
			a := *byGroup[fn]
			plan.Retain = append(plan.Retain, a)
			if !a.Local {
				plan.ToDownload = append(plan.ToDownload, a)
			}
		}
	}
	for _, g := range pruned {
		for _, fn := range g.Filenames {
			a := *byGroup[fn]
			if a.Local {
				plan.ToDelete = append(plan.ToDelete, a)
			}
		}
	}
	plan.Retain = append(plan.Retain, holdovers...)

	sortAssets(plan.ToDownload)
	sortAssets(plan.ToDelete)
	sortAssets(plan.Retain)
	return plan
}

// groupByVersion collapses candidates into version groups sorted newest
// first, filenames sorted within each group.
func groupByVersion(candidates map[string]*Asset) ([]retention.Group, map[string]*Asset) {
	byKey := make(map[string][]string)
	for fn := range candidates {
		key := candidates[fn].Version.Key()
		byKey[key] = append(byKey[key], fn)
	}

	groups := make([]retention.Group, 0, len(byKey))
	for key, filenames := range byKey {
		sort.Strings(filenames)
		groups = append(groups, retention.Group{Key: key, Filenames: filenames})
	}
	sort.Slice(groups, func(i, j int) bool {
		a := candidates[groups[i].Filenames[0]].Version
		b := candidates[groups[j].Filenames[0]].Version
		if c := rpmver.Compare(a, b); c != 0 {
			return c > 0
		}
		return groups[i].Key < groups[j].Key
	})
	return groups, candidates
}

func considerable(project *config.Project, architectures []string, filename string) bool {
	if !strings.HasSuffix(filename, ".rpm") {
		return false
	}
	if rpmver.IsSourcePackage(filename) {
		return false
	}
	arch := rpmver.DetectArch(filename)
	if arch == "" {
		return false
	}
	found := false
	for _, a := range architectures {
		if a == arch {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	return project.MatchesAsset(filename)
}

func sortAssets(assets []Asset) {
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Filename < assets[j].Filename
	})
}
