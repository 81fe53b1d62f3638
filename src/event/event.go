// Package event classifies the triggering CI event into a typed descriptor.
// Credential gating, step guards, and push semantics all key off the
// TriggerEvent produced here.
package event

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Kind is the trigger category of a pipeline run.
type Kind string

const (
	KindPush        Kind = "push"
	KindTagPush     Kind = "tag-push"
	KindPullRequest Kind = "pull-request"
)

// TriggerEvent is the immutable descriptor of the event that started a run.
// Created once per invocation and never mutated.
type TriggerEvent struct {
	Kind       Kind
	Ref        string // branch name, tag name, or PR target branch
	Repository string // e.g. "acme/gcp-ddns"

	// Version is the parsed semver for tag pushes whose tag parses as
	// semver (with or without the v prefix). Nil otherwise.
	Version *semver.Version
}

func (e *TriggerEvent) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Kind, e.Ref, e.Repository)
}

// IsPullRequest reports whether the run was triggered by a pull request.
// Pull-request runs never receive registry credentials.
func (e *TriggerEvent) IsPullRequest() bool {
	return e.Kind == KindPullRequest
}

// RawEvent is the host-native event payload before classification.
// Fields map 1:1 onto what CI systems expose through the environment.
type RawEvent struct {
	EventName  string // "push", "pull_request", "merge_request_event", ...
	Ref        string // full ref: refs/heads/main, refs/tags/v1.2.0, or bare name
	BaseRef    string // PR/MR target branch, when applicable
	Repository string
}
