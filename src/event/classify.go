package event

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/slipway/src/config"
)

// UnsupportedEventError is returned when the raw event cannot be mapped to a
// trigger kind, or when it does not satisfy the configured filters. The
// pipeline must not run when classification fails.
type UnsupportedEventError struct {
	EventName string
	Ref       string
	Reason    string
}

func (e *UnsupportedEventError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("unsupported event %q (ref %s): %s", e.EventName, e.Ref, e.Reason)
	}
	return fmt.Sprintf("unsupported event %q: %s", e.EventName, e.Reason)
}

// Classify maps a raw host event onto a TriggerEvent using the configured
// trigger filters. Pure and idempotent: the same raw event always yields the
// same descriptor.
func Classify(raw RawEvent, trigger config.TriggerConfig) (*TriggerEvent, error) {
	switch raw.EventName {
	case "push":
		return classifyPush(raw, trigger)
	case "pull_request", "pull_request_target", "merge_request_event":
		return classifyPullRequest(raw, trigger)
	case "":
		return nil, &UnsupportedEventError{Reason: "no event name in environment"}
	default:
		return nil, &UnsupportedEventError{EventName: raw.EventName, Reason: "not a push, tag push, or pull request"}
	}
}

func classifyPush(raw RawEvent, trigger config.TriggerConfig) (*TriggerEvent, error) {
	switch {
	case strings.HasPrefix(raw.Ref, "refs/tags/"):
		return classifyTag(raw, strings.TrimPrefix(raw.Ref, "refs/tags/"), trigger)

	case strings.HasPrefix(raw.Ref, "refs/heads/"):
		branch := strings.TrimPrefix(raw.Ref, "refs/heads/")
		if !config.MatchPatterns(trigger.Branches, branch) {
			return nil, &UnsupportedEventError{EventName: raw.EventName, Ref: raw.Ref,
				Reason: fmt.Sprintf("branch %q matches no configured branch filter", branch)}
		}
		return &TriggerEvent{Kind: KindPush, Ref: branch, Repository: raw.Repository}, nil

	case raw.Ref != "":
		// Bare ref name (GitLab style). Tag filter is the tiebreak.
		if config.MatchPatterns(trigger.Tags, raw.Ref) && !config.MatchPatterns(trigger.Branches, raw.Ref) {
			return classifyTag(raw, raw.Ref, trigger)
		}
		if !config.MatchPatterns(trigger.Branches, raw.Ref) {
			return nil, &UnsupportedEventError{EventName: raw.EventName, Ref: raw.Ref,
				Reason: fmt.Sprintf("branch %q matches no configured branch filter", raw.Ref)}
		}
		return &TriggerEvent{Kind: KindPush, Ref: raw.Ref, Repository: raw.Repository}, nil

	default:
		return nil, &UnsupportedEventError{EventName: raw.EventName, Reason: "push event without a ref"}
	}
}

func classifyTag(raw RawEvent, tag string, trigger config.TriggerConfig) (*TriggerEvent, error) {
	if !config.MatchPatterns(trigger.Tags, tag) {
		return nil, &UnsupportedEventError{EventName: raw.EventName, Ref: raw.Ref,
			Reason: fmt.Sprintf("tag %q matches no configured tag filter", tag)}
	}

	// Tag pushes normally classify on the tag filter alone. With
	// tags_require_branch the branch filter must also pass; the branch of
	// the tagged commit is not in the event payload, so the base ref is
	// used when present.
	if trigger.TagsRequireBranch {
		if raw.BaseRef == "" || !config.MatchPatterns(trigger.Branches, raw.BaseRef) {
			return nil, &UnsupportedEventError{EventName: raw.EventName, Ref: raw.Ref,
				Reason: fmt.Sprintf("tag %q not on a branch matching the branch filter", tag)}
		}
	}

	ev := &TriggerEvent{Kind: KindTagPush, Ref: tag, Repository: raw.Repository}
	if v, err := semver.NewVersion(strings.TrimPrefix(tag, "v")); err == nil {
		ev.Version = v
	}
	return ev, nil
}

func classifyPullRequest(raw RawEvent, trigger config.TriggerConfig) (*TriggerEvent, error) {
	target := raw.BaseRef
	if target == "" {
		return nil, &UnsupportedEventError{EventName: raw.EventName, Reason: "pull request without a target branch"}
	}
	if !config.MatchPatterns(trigger.PullRequestTargets(), target) {
		return nil, &UnsupportedEventError{EventName: raw.EventName, Ref: target,
			Reason: fmt.Sprintf("pull request target %q matches no configured branch filter", target)}
	}
	return &TriggerEvent{Kind: KindPullRequest, Ref: target, Repository: raw.Repository}, nil
}

// FromEnv builds a RawEvent from the host CI environment. GitHub Actions
// variables are preferred; GitLab CI variables are the fallback. Returns a
// zero RawEvent outside CI.
func FromEnv() RawEvent {
	if name := os.Getenv("GITHUB_EVENT_NAME"); name != "" {
		return RawEvent{
			EventName:  name,
			Ref:        os.Getenv("GITHUB_REF"),
			BaseRef:    os.Getenv("GITHUB_BASE_REF"),
			Repository: os.Getenv("GITHUB_REPOSITORY"),
		}
	}

	if os.Getenv("GITLAB_CI") == "true" {
		raw := RawEvent{Repository: os.Getenv("CI_PROJECT_PATH")}
		switch src := os.Getenv("CI_PIPELINE_SOURCE"); src {
		case "merge_request_event":
			raw.EventName = src
			raw.BaseRef = os.Getenv("CI_MERGE_REQUEST_TARGET_BRANCH_NAME")
		default:
			raw.EventName = "push"
			if tag := os.Getenv("CI_COMMIT_TAG"); tag != "" {
				raw.Ref = "refs/tags/" + tag
			} else {
				raw.Ref = os.Getenv("CI_COMMIT_BRANCH")
			}
		}
		return raw
	}

	return RawEvent{}
}
