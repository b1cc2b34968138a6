// Package repo orchestrates a sync run across all configured projects:
// list upstream assets, plan, apply, persist the manifest, then hand the
// package directory to the external metadata and signing tools.
package repo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-edge-platform/rpm-repo-composer/internal/config"
	"github.com/open-edge-platform/rpm-repo-composer/internal/manifest"
	"github.com/open-edge-platform/rpm-repo-composer/internal/pkgfetcher"
	"github.com/open-edge-platform/rpm-repo-composer/internal/planner"
	"github.com/open-edge-platform/rpm-repo-composer/internal/repomd"
	"github.com/open-edge-platform/rpm-repo-composer/internal/rpminfo"
	"github.com/open-edge-platform/rpm-repo-composer/internal/signer"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
)

// ReleaseLister provides the latest release's assets for a repo.
type ReleaseLister interface {
	LatestReleaseAssets(repo string) ([]planner.UpstreamAsset, error)
}

// RepoDescriber optionally resolves a repo's upstream description, used when
// a project has none configured.
type RepoDescriber interface {
	RepoDescription(repo string) (string, error)
}

// Downloader materializes a batch of assets on disk.
type Downloader interface {
	FetchAll(jobs []pkgfetcher.Job) []pkgfetcher.Result
}

// Options tunes one sync run.
type Options struct {
	OutputDir string
	DryRun    bool
	GPGKey    string
	NoSign    bool
}

// ProjectResult is the per-project outcome reported in the summary.
type ProjectResult struct {
	Project *config.Project
	Added   []string
	Removed []string
	Skipped bool
	Err     error
}

// Summary collects every project's outcome for one run.
type Summary struct {
	Results []ProjectResult
}

// Failed reports whether any project failed.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Coordinator runs the sync.
type Coordinator struct {
	Config   *config.Config
	Lister   ReleaseLister
	Fetcher  Downloader
	Signer   *signer.Signer
	Opts     Options
	Generate func(packagesDir string) error
	Verify   func(packagesDir string, expected int) error
	ReadInfo func(path string) (rpminfo.Info, error)
}

// NewCoordinator wires the default external collaborators.
func NewCoordinator(cfg *config.Config, lister ReleaseLister, fetcher Downloader, opts Options) *Coordinator {
	return &Coordinator{
		Config:   cfg,
		Lister:   lister,
		Fetcher:  fetcher,
		Signer:   &signer.Signer{KeyID: opts.GPGKey},
		Opts:     opts,
		Generate: repomd.Generate,
		Verify:   repomd.Verify,
		ReadInfo: rpminfo.Read,
	}
}

// Run processes the given projects sequentially, then regenerates and
// optionally signs the repository. A project failure never aborts the
// remaining projects; the returned Summary carries every outcome. The
// error return is reserved for run-fatal conditions (tool failures).
func (c *Coordinator) Run(projects []*config.Project) (*Summary, error) {
	log := logger.Logger()
	packagesDir := filepath.Join(c.Opts.OutputDir, "packages")

	if !c.Opts.DryRun {
		if err := os.MkdirAll(packagesDir, 0755); err != nil {
			return nil, fmt.Errorf("creating packages directory: %w", err)
		}
	}

	man := manifest.Load(c.Opts.OutputDir)
	man.Reconcile(packagesDir)

	summary := &Summary{}
	for _, project := range projects {
		result := c.syncProject(man, packagesDir, project)
		summary.Results = append(summary.Results, result)
	}

	if c.Opts.DryRun {
		log.Info("dry run, no files written")
		c.logSummary(summary)
		return summary, nil
	}

	if err := man.Save(c.Opts.OutputDir); err != nil {
		return summary, fmt.Errorf("persisting manifest: %w", err)
	}

	c.sweepOrphans(man, packagesDir)

	if err := c.Generate(packagesDir); err != nil {
		return summary, &ToolError{Tool: "createrepo", Err: err}
	}
	if err := c.Verify(packagesDir, len(man.Filenames())); err != nil {
		return summary, &ToolError{Tool: "createrepo", Err: err}
	}

	if err := c.signRepository(packagesDir); err != nil {
		return summary, err
	}

	repoPath := filepath.Join(c.Opts.OutputDir, c.Config.Settings.Name+".repo")
	repoKey := c.Opts.GPGKey
	if c.Opts.NoSign {
		repoKey = ""
	}
	if err := WriteRepoFile(repoPath, c.Config.Settings, repoKey, c.Config.SignPackagesEnabled()); err != nil {
		return summary, err
	}
	log.Infof("created %s", repoPath)

	c.logSummary(summary)
	return summary, nil
}

// syncProject applies the plan for one project: prune first to bound disk
// usage, then download, then fold the result into the in-memory manifest.
func (c *Coordinator) syncProject(man *manifest.Manifest, packagesDir string, project *config.Project) ProjectResult {
	log := logger.Logger()
	result := ProjectResult{Project: project}

	log.Infof("project %s: %s", project.Repo, c.describeProject(project))

	upstream, err := c.Lister.LatestReleaseAssets(project.Repo)
	if err != nil {
		result.Err = &UpstreamError{Repo: project.Repo, Err: err}
		return result
	}

	entries := man.Entries(project.Repo)
	plan := planner.Build(project, c.Config.Settings.Architectures, entries, upstream)

	if len(plan.Retain) == 0 {
		log.Infof("  no matching .rpm assets for %s", project.Repo)
		result.Skipped = true
		return result
	}

	for _, a := range plan.ToDelete {
		result.Removed = append(result.Removed, a.Filename)
	}

	if c.Opts.DryRun {
		for _, a := range plan.ToDownload {
			result.Added = append(result.Added, a.Filename)
			log.Infof("  would download %s", a.Filename)
		}
		for _, a := range plan.ToDelete {
			log.Infof("  would delete %s", a.Filename)
		}
		if plan.Empty() {
			log.Infof("  up to date")
		}
		return result
	}

	// Deletions happen before downloads so peak disk usage stays bounded.
	for _, a := range plan.ToDelete {
		path := filepath.Join(packagesDir, a.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("  removing %s: %v", a.Filename, err)
		} else {
			log.Infof("  removed %s", a.Filename)
		}
	}

	downloaded, failed := c.downloadAssets(packagesDir, plan.ToDownload)
	if failed != nil {
		result.Err = &UpstreamError{Repo: project.Repo, Err: failed}
	}

	// Added reports what actually landed, not what the plan hoped for.
	for _, a := range plan.ToDownload {
		if _, err := os.Stat(filepath.Join(packagesDir, a.Filename)); err == nil {
			result.Added = append(result.Added, a.Filename)
		}
	}

	c.signNewPackages(packagesDir, downloaded)

	prior := make(map[string]manifest.Entry, len(entries))
	for _, e := range entries {
		prior[e.Filename] = e
	}

	finalEntries := make([]manifest.Entry, 0, len(plan.Retain))
	for _, a := range plan.Retain {
		path := filepath.Join(packagesDir, a.Filename)
		info, err := os.Stat(path)
		if err != nil {
			// Download failed or file vanished; the manifest only tracks
			// what is actually on disk.
			continue
		}
		entry := manifest.Entry{
			Filename: a.Filename,
			Version:  a.Version.Key(),
			Size:     info.Size(),
			SHA256:   a.SHA256,
		}
		if old, ok := prior[a.Filename]; ok {
			entry.Name = old.Name
			entry.Summary = old.Summary
			entry.Description = old.Description
			entry.License = old.License
			entry.Vendor = old.Vendor
			entry.Homepage = old.Homepage
		}
		if downloaded[a.Filename] || entry.SHA256 == "" {
			sha, err := fileSHA256(path)
			if err != nil {
				log.Warnf("  hashing %s: %v", a.Filename, err)
			} else {
				entry.SHA256 = sha
			}
		}
		if downloaded[a.Filename] || entry.Name == "" {
			if hdr, err := c.ReadInfo(path); err != nil {
				log.Debugf("  reading header of %s: %v", a.Filename, err)
			} else {
				entry.Name = hdr.Name
				entry.Summary = hdr.Summary
				entry.Description = hdr.Description
				entry.License = hdr.License
				entry.Vendor = hdr.Vendor
				entry.Homepage = hdr.Homepage
			}
		}
		finalEntries = append(finalEntries, entry)
	}
	man.SetEntries(project.Repo, finalEntries)
	claimed := make([]string, 0, len(finalEntries))
	for _, e := range finalEntries {
		claimed = append(claimed, e.Filename)
	}
	man.Claim(claimed)

	for _, name := range result.Added {
		logger.RecordSynced(project.Repo + " " + name)
	}
	return result
}

// describeProject falls back to the upstream repo description when the
// config leaves it empty, like the generated .repo description does.
func (c *Coordinator) describeProject(project *config.Project) string {
	if project.Description != "" {
		return project.Description
	}
	if d, ok := c.Lister.(RepoDescriber); ok {
		if desc, err := d.RepoDescription(project.Repo); err == nil && desc != "" {
			return desc
		}
	}
	return project.Name + " from GitHub"
}

// downloadAssets fetches the planned assets, skipping files a previous
// partial run already materialized. Returns the set of filenames actually
// downloaded and an aggregate error when any download failed.
func (c *Coordinator) downloadAssets(packagesDir string, toDownload []planner.Asset) (map[string]bool, error) {
	log := logger.Logger()
	downloaded := make(map[string]bool)

	var jobs []pkgfetcher.Job
	for _, a := range toDownload {
		path := filepath.Join(packagesDir, a.Filename)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			log.Infof("  %s already exists, skipping download", a.Filename)
			continue
		}
		jobs = append(jobs, pkgfetcher.Job{URL: a.DownloadURL, DestPath: path})
	}
	if len(jobs) == 0 {
		return downloaded, nil
	}

	var failures []string
	for _, res := range c.Fetcher.FetchAll(jobs) {
		name := filepath.Base(res.Job.DestPath)
		if res.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, res.Err))
			continue
		}
		downloaded[name] = true
	}
	if len(failures) > 0 {
		sort.Strings(failures)
		return downloaded, fmt.Errorf("%d download(s) failed: %v", len(failures), failures)
	}
	return downloaded, nil
}

// signNewPackages runs rpm --addsign over freshly downloaded files when
// package signing is configured. Failures degrade to warnings; the
// repository-level signature still covers the metadata.
func (c *Coordinator) signNewPackages(packagesDir string, downloaded map[string]bool) {
	if c.Opts.NoSign || c.Opts.GPGKey == "" || !c.Config.SignPackagesEnabled() {
		return
	}
	log := logger.Logger()

	names := make([]string, 0, len(downloaded))
	for name := range downloaded {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Signer.SignPackage(filepath.Join(packagesDir, name)); err != nil {
			log.Warnf("  signing %s failed: %v", name, err)
		}
	}
}

// signRepository detach-signs repomd.xml, exports the public key and
// verifies the pair. Without an explicit key a failure only skips signing;
// with --gpg-key given, signing was asked for and a failure is fatal.
func (c *Coordinator) signRepository(packagesDir string) error {
	log := logger.Logger()
	if c.Opts.NoSign {
		return nil
	}
	if !c.Signer.Available() {
		log.Warn("gpg not available, skipping repository signing")
		return nil
	}

	required := c.Opts.GPGKey != ""
	fail := func(err error) error {
		if required {
			return &ToolError{Tool: "gpg", Err: err}
		}
		log.Warnf("repository signing skipped: %v", err)
		return nil
	}

	repodataDir := filepath.Join(packagesDir, "repodata")
	if err := c.Signer.SignRepoMetadata(repodataDir); err != nil {
		return fail(err)
	}

	pubKeyPath := filepath.Join(c.Opts.OutputDir, "RPM-GPG-KEY-"+c.Config.Settings.Name)
	if err := c.Signer.ExportPublicKey(pubKeyPath); err != nil {
		return fail(err)
	}

	repomdPath := filepath.Join(repodataDir, "repomd.xml")
	if err := signer.VerifyDetached(pubKeyPath, repomdPath, repomdPath+".asc"); err != nil {
		return fail(err)
	}
	log.Infof("signed repository metadata, public key at %s", pubKeyPath)
	return nil
}

// sweepOrphans removes .rpm files the manifest no longer tracks.
func (c *Coordinator) sweepOrphans(man *manifest.Manifest, packagesDir string) {
	log := logger.Logger()
	tracked := man.Filenames()

	paths, err := filepath.Glob(filepath.Join(packagesDir, "*.rpm"))
	if err != nil {
		return
	}
	sort.Strings(paths)
	for _, p := range paths {
		if tracked[filepath.Base(p)] {
			continue
		}
		if err := os.Remove(p); err != nil {
			log.Warnf("removing orphan %s: %v", p, err)
		} else {
			log.Infof("removed orphan %s", filepath.Base(p))
		}
	}
}

// logSummary prints the per-project outcome and flushes the sync report.
func (c *Coordinator) logSummary(summary *Summary) {
	log := logger.Logger()

	log.Info("sync summary:")
	for _, r := range summary.Results {
		switch {
		case r.Err != nil:
			log.Errorf("  failed   %s: %v", r.Project.Repo, r.Err)
		case r.Skipped:
			log.Infof("  skipped  %s (no matching assets)", r.Project.Repo)
		default:
			log.Infof("  synced   %s (+%d -%d)", r.Project.Repo, len(r.Added), len(r.Removed))
		}
		for _, name := range r.Added {
			log.Infof("           + %s", name)
		}
		for _, name := range r.Removed {
			log.Infof("           - %s", name)
		}
	}

	if !c.Opts.DryRun {
		logger.ReportPath = filepath.Join(c.Opts.OutputDir, "reports")
		if err := logger.WriteSyncReportToFile(); err != nil {
			log.Debugf("writing sync report: %v", err)
		}
	}
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
