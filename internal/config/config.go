// Package config loads and validates the projects.yaml configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/open-edge-platform/rpm-repo-composer/internal/utils/logger"
)

// Settings holds the repository-wide options from projects.yaml.
type Settings struct {
	Name          string   `yaml:"name" json:"name"`
	BaseURL       string   `yaml:"baseurl" json:"baseurl"`
	Architectures []string `yaml:"architectures" json:"architectures"`
	Description   string   `yaml:"description" json:"description"`
	SignPackages  *bool    `yaml:"sign_packages" json:"sign_packages"`
}

// Project is one configured upstream source. Immutable after load.
type Project struct {
	Repo         string `yaml:"repo" json:"repo"`
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	KeepVersions int    `yaml:"keep_versions" json:"keep_versions"`
	AssetPattern string `yaml:"asset_pattern" json:"asset_pattern"`

	pattern *regexp.Regexp
}

// MatchesAsset applies the project's asset pattern filter. Projects without
// a pattern accept every asset.
func (p *Project) MatchesAsset(filename string) bool {
	if p.pattern == nil {
		return true
	}
	return p.pattern.MatchString(filename)
}

// Config is the parsed and validated projects.yaml.
type Config struct {
	Settings Settings  `yaml:"settings" json:"settings"`
	Projects []Project `yaml:"projects" json:"projects"`
}

// SignPackagesEnabled reports whether individual packages should be signed.
// Defaults to true when the setting is omitted.
func (c *Config) SignPackagesEnabled() bool {
	if c.Settings.SignPackages == nil {
		return true
	}
	return *c.Settings.SignPackages
}

// FindProject returns the configured project matching the given name or
// owner/repo identifier.
func (c *Config) FindProject(nameOrRepo string) *Project {
	for i := range c.Projects {
		if c.Projects[i].Name == nameOrRepo || c.Projects[i].Repo == nameOrRepo {
			return &c.Projects[i]
		}
	}
	return nil
}

// Load reads projects.yaml, validates it against the embedded schema and
// applies defaults. Any failure here is fatal to the run: nothing has been
// touched yet and a half-understood config must not drive deletions.
func Load(path string) (*Config, error) {
	log := logger.Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("config %s failed schema validation: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	log.Debugf("loaded %d project(s) from %s", len(cfg.Projects), path)
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Settings.Name == "" {
		c.Settings.Name = "github-packages"
	}
	if c.Settings.Description == "" {
		c.Settings.Description = "GitHub Packages"
	}
	if len(c.Settings.Architectures) == 0 {
		c.Settings.Architectures = []string{"x86_64", "aarch64"}
	}

	if len(c.Projects) == 0 {
		return fmt.Errorf("no projects configured")
	}

	seen := make(map[string]bool, len(c.Projects))
	for i := range c.Projects {
		p := &c.Projects[i]
		if p.Repo == "" || !strings.Contains(p.Repo, "/") {
			return fmt.Errorf("project %d: repo must be owner/name, got %q", i, p.Repo)
		}
		if seen[p.Repo] {
			return fmt.Errorf("project %s configured twice", p.Repo)
		}
		seen[p.Repo] = true

		if p.Name == "" {
			parts := strings.Split(p.Repo, "/")
			p.Name = parts[len(parts)-1]
		}
		if p.KeepVersions < 0 {
			return fmt.Errorf("project %s: keep_versions must be non-negative", p.Repo)
		}
		if p.AssetPattern != "" {
			re, err := regexp.Compile("(?i)" + p.AssetPattern)
			if err != nil {
				return fmt.Errorf("project %s: invalid asset_pattern: %w", p.Repo, err)
			}
			p.pattern = re
		}
	}
	return nil
}

func validateSchema(data []byte) error {
	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting to JSON: %w", err)
	}

	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}

	schema, err := jsonschema.CompileString("projects.schema.json", projectsSchema)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	return schema.Validate(doc)
}
