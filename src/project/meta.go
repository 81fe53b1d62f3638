// Package project resolves repository-level metadata (name, description,
// license, source URL) used to stamp org.opencontainers.image.* labels onto
// built images.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pelletier/go-toml/v2"
)

// Meta holds project metadata resolved from git and the filesystem.
type Meta struct {
	Name        string
	Description string
	URL         string // https form of the origin remote
	License     string // SPDX identifier guessed from the LICENSE file
}

// Detect resolves project metadata from the origin remote, the LICENSE
// file, and any recognized project manifest (pyproject.toml, Cargo.toml).
// Every field is best-effort; missing sources just leave fields empty.
func Detect(rootDir string) *Meta {
	m := &Meta{}

	if repo, err := git.PlainOpen(rootDir); err == nil {
		if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
			raw := remote.Config().URLs[0]
			m.URL = remoteToHTTPS(raw)
			m.Name = repoNameFromRemote(raw)
		}
	}

	m.License = detectLicense(rootDir)
	readManifest(rootDir, m)

	return m
}

// Labels renders the metadata as OCI image labels. The version and revision
// of the specific build are supplied by the caller since they come from the
// event, not the filesystem.
func (m *Meta) Labels(version, revision string) map[string]string {
	labels := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			labels[k] = v
		}
	}
	set("org.opencontainers.image.title", m.Name)
	set("org.opencontainers.image.description", m.Description)
	set("org.opencontainers.image.source", m.URL)
	set("org.opencontainers.image.licenses", m.License)
	set("org.opencontainers.image.version", version)
	set("org.opencontainers.image.revision", revision)
	return labels
}

// pyproject and cargo cover the manifest shapes this reads. Only the
// fields used for labels are declared.
type pyproject struct {
	Project struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name        string `toml:"name"`
			Description string `toml:"description"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type cargo struct {
	Package struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
	} `toml:"package"`
}

// readManifest fills Name/Description from the first recognized manifest.
// A manifest name wins over the remote-derived name.
func readManifest(rootDir string, m *Meta) {
	if data, err := os.ReadFile(filepath.Join(rootDir, "pyproject.toml")); err == nil {
		var p pyproject
		if toml.Unmarshal(data, &p) == nil {
			name, desc := p.Project.Name, p.Project.Description
			if name == "" {
				name, desc = p.Tool.Poetry.Name, p.Tool.Poetry.Description
			}
			if name != "" {
				m.Name = name
			}
			if desc != "" {
				m.Description = desc
			}
			return
		}
	}

	if data, err := os.ReadFile(filepath.Join(rootDir, "Cargo.toml")); err == nil {
		var c cargo
		if toml.Unmarshal(data, &c) == nil {
			if c.Package.Name != "" {
				m.Name = c.Package.Name
			}
			if c.Package.Description != "" {
				m.Description = c.Package.Description
			}
		}
	}
}

// licenseMarkers maps a distinctive phrase from each license text to its
// SPDX identifier. First match wins.
var licenseMarkers = []struct {
	marker string
	spdx   string
}{
	{"MIT License", "MIT"},
	{"Apache License", "Apache-2.0"},
	{"GNU GENERAL PUBLIC LICENSE", "GPL-3.0"},
	{"GNU LESSER GENERAL PUBLIC LICENSE", "LGPL-3.0"},
	{"Mozilla Public License", "MPL-2.0"},
	{"BSD 3-Clause", "BSD-3-Clause"},
	{"BSD 2-Clause", "BSD-2-Clause"},
	{"The Unlicense", "Unlicense"},
}

func detectLicense(rootDir string) string {
	for _, name := range []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"} {
		data, err := os.ReadFile(filepath.Join(rootDir, name))
		if err != nil {
			continue
		}
		head := string(data)
		if len(head) > 2048 {
			head = head[:2048]
		}
		for _, lm := range licenseMarkers {
			if strings.Contains(head, lm.marker) {
				return lm.spdx
			}
		}
	}
	return ""
}

// repoNameFromRemote extracts the repository name from a git remote URL.
// Handles SSH (git@host:org/repo.git) and HTTPS (https://host/org/repo.git).
func repoNameFromRemote(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	if idx := strings.LastIndex(remote, ":"); idx != -1 && !strings.Contains(remote, "://") {
		remote = remote[idx+1:]
	}
	if idx := strings.LastIndex(remote, "/"); idx != -1 {
		return remote[idx+1:]
	}
	return remote
}

// remoteToHTTPS converts a git remote URL to HTTPS form for display.
func remoteToHTTPS(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	if strings.HasPrefix(remote, "https://") || strings.HasPrefix(remote, "http://") {
		return remote
	}
	if idx := strings.Index(remote, "@"); idx != -1 {
		rest := remote[idx+1:]
		rest = strings.Replace(rest, ":", "/", 1)
		return "https://" + rest
	}
	return remote
}
