package config

// TriggerConfig declares which events start a pipeline run.
//
// Branches, Tags, and PullRequests use the standard pattern syntax
// (regex, literal, or !negated — see match.go). Evaluation is OR across a
// list, with excludes checked first.
type TriggerConfig struct {
	// Branches filters push events by branch name.
	Branches []string `yaml:"branches"`

	// Tags filters push events by tag name. Default matches v-prefixed tags.
	Tags []string `yaml:"tags"`

	// PullRequests filters pull/merge requests by target branch.
	// Empty = reuse the Branches filter.
	PullRequests []string `yaml:"pull_requests"`

	// TagsRequireBranch additionally ANDs the branch filter into tag-push
	// classification. Off by default: a tag push is classified by the tag
	// filter alone, since the branch a tagged commit sits on is not part of
	// the event payload.
	TagsRequireBranch bool `yaml:"tags_require_branch"`
}

// PullRequestTargets returns the effective PR target filter.
func (t TriggerConfig) PullRequestTargets() []string {
	if len(t.PullRequests) > 0 {
		return t.PullRequests
	}
	return t.Branches
}

// DefaultTriggerConfig mirrors the common workflow: pushes to main, v* tags,
// and pull requests against main.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Branches: []string{"^main$"},
		Tags:     []string{`^v\d+.*`},
	}
}
