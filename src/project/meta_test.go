package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDetectEmptyDir(t *testing.T) {
	m := Detect(t.TempDir())
	if m.Name != "" || m.URL != "" || m.License != "" {
		t.Errorf("empty dir produced metadata: %+v", m)
	}
}

func TestDetectPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `
[project]
name = "gcp-ddns"
description = "Dynamic DNS updater for Cloud DNS"
`)

	m := Detect(dir)
	if m.Name != "gcp-ddns" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Description != "Dynamic DNS updater for Cloud DNS" {
		t.Errorf("description = %q", m.Description)
	}
}

func TestDetectPoetryFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", `
[tool.poetry]
name = "legacy-app"
description = "poetry-managed project"
`)

	if m := Detect(dir); m.Name != "legacy-app" {
		t.Errorf("name = %q", m.Name)
	}
}

func TestDetectCargo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.toml", `
[package]
name = "ddns-agent"
description = "rust agent"
version = "0.1.0"
`)

	m := Detect(dir)
	if m.Name != "ddns-agent" || m.Description != "rust agent" {
		t.Errorf("cargo metadata = %+v", m)
	}
}

func TestDetectLicense(t *testing.T) {
	cases := []struct {
		file    string
		content string
		want    string
	}{
		{"LICENSE", "MIT License\n\nCopyright (c) 2026", "MIT"},
		{"LICENSE.md", "Apache License\nVersion 2.0, January 2004", "Apache-2.0"},
		{"COPYING", "GNU GENERAL PUBLIC LICENSE\nVersion 3", "GPL-3.0"},
		{"LICENSE.txt", "all rights reserved", ""},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		writeFile(t, dir, tc.file, tc.content)
		if got := detectLicense(dir); got != tc.want {
			t.Errorf("detectLicense(%s) = %q, want %q", tc.file, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	m := &Meta{
		Name:    "gcp-ddns",
		URL:     "https://github.com/acme/gcp-ddns",
		License: "MIT",
	}

	labels := m.Labels("v1.2.0", "abc1234")
	want := map[string]string{
		"org.opencontainers.image.title":    "gcp-ddns",
		"org.opencontainers.image.source":   "https://github.com/acme/gcp-ddns",
		"org.opencontainers.image.licenses": "MIT",
		"org.opencontainers.image.version":  "v1.2.0",
		"org.opencontainers.image.revision": "abc1234",
	}
	for k, v := range want {
		if labels[k] != v {
			t.Errorf("labels[%s] = %q, want %q", k, labels[k], v)
		}
	}
	if _, ok := labels["org.opencontainers.image.description"]; ok {
		t.Error("empty description should not produce a label")
	}
}

func TestRepoNameFromRemote(t *testing.T) {
	cases := []struct {
		remote string
		want   string
	}{
		{"git@github.com:acme/gcp-ddns.git", "gcp-ddns"},
		{"https://github.com/acme/gcp-ddns.git", "gcp-ddns"},
		{"https://gitlab.com/group/sub/app", "app"},
		{"gcp-ddns", "gcp-ddns"},
	}
	for _, tc := range cases {
		if got := repoNameFromRemote(tc.remote); got != tc.want {
			t.Errorf("repoNameFromRemote(%q) = %q, want %q", tc.remote, got, tc.want)
		}
	}
}

func TestRemoteToHTTPS(t *testing.T) {
	cases := []struct {
		remote string
		want   string
	}{
		{"git@github.com:acme/gcp-ddns.git", "https://github.com/acme/gcp-ddns"},
		{"https://github.com/acme/gcp-ddns.git", "https://github.com/acme/gcp-ddns"},
		{"ssh://git@gitlab.com/acme/app.git", "https://gitlab.com/acme/app"},
	}
	for _, tc := range cases {
		if got := remoteToHTTPS(tc.remote); got != tc.want {
			t.Errorf("remoteToHTTPS(%q) = %q, want %q", tc.remote, got, tc.want)
		}
	}
}
