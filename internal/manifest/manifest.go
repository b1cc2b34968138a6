// Package manifest persists which package files are tracked per project
// across runs. The manifest is a cache of downloaded state, not a source of
// truth: the packages directory always wins, so loading tolerates a missing
// or corrupt file and a reconciliation pass squares the two.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/open-edge-platform/rpm-repo-composer/internal/rpmver"
	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
)

// FileName is the manifest file kept at the output directory root.
const FileName = "packages.json"

// UntrackedProject is the reserved bucket for files found on disk that no
// configured project claims. They are kept out of the orphan sweep until an
// operator decides what to do with them.
const UntrackedProject = "_untracked"

// Entry is one tracked package file. The descriptive fields come from the
// rpm header and may be empty when the header could not be read.
type Entry struct {
	Filename    string `json:"filename"`
	Version     string `json:"version"`
	Size        int64  `json:"size,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
	Name        string `json:"name,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
}

// Manifest maps a repo identifier (owner/name) to its retained entries.
type Manifest struct {
	Projects map[string][]Entry `json:"projects"`
	Updated  time.Time          `json:"updated"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Projects: make(map[string][]Entry)}
}

// Load reads the manifest from outputDir. A missing file means no packages
// are tracked yet; a corrupt file is logged and treated the same way. Load
// never fails the run.
func Load(outputDir string) *Manifest {
	log := logger.Logger()
	path := filepath.Join(outputDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("manifest %s unreadable, starting empty: %v", path, err)
		}
		return New()
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		log.Warnf("manifest %s corrupt, rebuilding from scratch: %v", path, err)
		return New()
	}
	if m.Projects == nil {
		m.Projects = make(map[string][]Entry)
	}
	return &m
}

// Save writes the manifest atomically: temp file in the same directory,
// then rename. A crash mid-save never leaves a truncated packages.json.
func (m *Manifest) Save(outputDir string) error {
	m.Updated = time.Now().UTC()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(outputDir, FileName)
	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing manifest temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Entries returns the tracked entries for a repo, sorted by filename for
// stable iteration.
func (m *Manifest) Entries(repo string) []Entry {
	entries := append([]Entry(nil), m.Projects[repo]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename < entries[j].Filename
	})
	return entries
}

// SetEntries replaces the tracked entries for a repo.
func (m *Manifest) SetEntries(repo string, entries []Entry) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Filename < sorted[j].Filename
	})
	m.Projects[repo] = sorted
}

// Claim drops filenames from the untracked bucket once a project tracks
// them, so an adopted leftover from a partial run is not listed twice.
func (m *Manifest) Claim(filenames []string) {
	adopted := m.Projects[UntrackedProject]
	if len(adopted) == 0 {
		return
	}
	claimed := make(map[string]bool, len(filenames))
	for _, fn := range filenames {
		claimed[fn] = true
	}
	kept := adopted[:0]
	for _, e := range adopted {
		if !claimed[e.Filename] {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m.Projects, UntrackedProject)
	} else {
		m.Projects[UntrackedProject] = kept
	}
}

// Filenames returns the set of every filename the manifest tracks, across
// all projects including the untracked bucket.
func (m *Manifest) Filenames() map[string]bool {
	out := make(map[string]bool)
	for _, entries := range m.Projects {
		for _, e := range entries {
			out[e.Filename] = true
		}
	}
	return out
}

// Reconcile squares the manifest with the actual contents of packagesDir.
// Entries whose file is gone are dropped; .rpm files nobody tracks are
// adopted into the untracked bucket with a version re-extracted from the
// filename. This guards against partial prior runs.
func (m *Manifest) Reconcile(packagesDir string) {
	log := logger.Logger()

	for repo, entries := range m.Projects {
		kept := entries[:0]
		for _, e := range entries {
			if _, err := os.Stat(filepath.Join(packagesDir, e.Filename)); err == nil {
				kept = append(kept, e)
			} else {
				log.Warnf("dropping manifest entry %s (%s): file missing on disk", e.Filename, repo)
			}
		}
		if len(kept) == 0 {
			delete(m.Projects, repo)
		} else {
			m.Projects[repo] = kept
		}
	}

	tracked := m.Filenames()
	paths, err := filepath.Glob(filepath.Join(packagesDir, "*.rpm"))
	if err != nil {
		return
	}
	sort.Strings(paths)
	for _, p := range paths {
		name := filepath.Base(p)
		if tracked[name] {
			continue
		}
		log.Warnf("adopting untracked file %s", name)
		info, err := os.Stat(p)
		var size int64
		if err == nil {
			size = info.Size()
		}
		m.Projects[UntrackedProject] = append(m.Projects[UntrackedProject], Entry{
			Filename: name,
			Version:  rpmver.Extract(name).Key(),
			Size:     size,
		})
	}
}
