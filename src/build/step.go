package build

// BuildStep is a single buildx invocation, fully resolved.
type BuildStep struct {
	Dockerfile string
	Context    string
	Target     string
	Platforms  []string
	BuildArgs  map[string]string
	Labels     map[string]string
	Tags       []string // fully qualified refs, e.g. docker.io/acme/app:latest
	Push       bool     // --push to the registry; false builds without publishing
}

// IsMultiPlatform reports whether the step targets more than one platform.
func IsMultiPlatform(step BuildStep) bool {
	return len(step.Platforms) > 1
}
