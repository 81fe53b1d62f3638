// Package preflight holds pre-build gates that run between checkout and the
// builder setup.
package preflight

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// maxScanSize keeps the scan off archives and other large blobs.
const maxScanSize = 1 << 20 // 1 MiB

// Finding is one secret hit inside the build context.
type Finding struct {
	File        string
	Line        int
	RuleID      string
	Description string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", f.File, f.Line, f.Description, f.RuleID)
}

// ScanSecrets runs the gitleaks default ruleset over every regular file in
// the build context. Anything pushed to a public registry bakes the context
// in, so leaked credentials here are worth a loud warning before the build.
func ScanSecrets(ctx context.Context, contextDir string) ([]Finding, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("initializing secret detector: %w", err)
	}

	var findings []Finding
	err = filepath.WalkDir(contextDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() || info.Size() > maxScanSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, relErr := filepath.Rel(contextDir, path)
		if relErr != nil {
			rel = path
		}

		for _, hit := range detector.DetectBytes(data) {
			findings = append(findings, Finding{
				File:        filepath.ToSlash(rel),
				Line:        hit.StartLine + 1, // gitleaks is 0-indexed
				RuleID:      hit.RuleID,
				Description: hit.Description,
			})
		}
		return nil
	})
	if err != nil {
		return findings, fmt.Errorf("scanning %s: %w", contextDir, err)
	}
	return findings, nil
}

// Summary renders findings as a single output value for the step report.
func Summary(findings []Finding) string {
	if len(findings) == 0 {
		return "clean"
	}
	files := map[string]bool{}
	for _, f := range findings {
		files[f.File] = true
	}
	return fmt.Sprintf("%d finding(s) in %d file(s): %s",
		len(findings), len(files), strings.Join(firstFiles(files, 3), ", "))
}

func firstFiles(set map[string]bool, n int) []string {
	var names []string
	for f := range set {
		names = append(names, f)
	}
	sort.Strings(names)
	if len(names) > n {
		names = names[:n]
	}
	return names
}
