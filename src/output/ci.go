package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Collapsible log sections. GitLab uses timestamped section markers, GitHub
// Actions uses ::group::. Outside CI both are no-ops.

func SectionStart(w io.Writer, id, name string) {
	switch {
	case IsGitLabCI():
		ts := time.Now().Unix()
		fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", ts, id, name)
	case IsGitHubActions():
		fmt.Fprintf(w, "::group::%s\n", name)
	}
}

func SectionEnd(w io.Writer, id string) {
	switch {
	case IsGitLabCI():
		ts := time.Now().Unix()
		fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", ts, id)
	case IsGitHubActions():
		fmt.Fprintln(w, "::endgroup::")
	}
}

// RunContext returns the context block for the start of a run, sourced from
// whichever CI environment is present.
func RunContext() []KV {
	var kv []KV
	add := func(key, val string) {
		if val != "" {
			kv = append(kv, KV{Key: key, Value: val})
		}
	}

	switch {
	case IsGitHubActions():
		add("Repository", os.Getenv("GITHUB_REPOSITORY"))
		add("Ref", os.Getenv("GITHUB_REF_NAME"))
		if sha := os.Getenv("GITHUB_SHA"); len(sha) >= 8 {
			add("Commit", sha[:8])
		}
		add("Run", os.Getenv("GITHUB_RUN_ID"))
	case IsGitLabCI():
		add("Repository", os.Getenv("CI_PROJECT_PATH"))
		if tag := os.Getenv("CI_COMMIT_TAG"); tag != "" {
			add("Tag", tag)
		} else {
			add("Branch", os.Getenv("CI_COMMIT_BRANCH"))
		}
		add("Commit", os.Getenv("CI_COMMIT_SHORT_SHA"))
		add("Pipeline", os.Getenv("CI_PIPELINE_ID"))
	}

	return kv
}
