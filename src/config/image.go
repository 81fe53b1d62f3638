package config

// ImageConfig holds the container build and push configuration.
type ImageConfig struct {
	Context    string            `yaml:"context"`
	Dockerfile string            `yaml:"dockerfile"`
	Target     string            `yaml:"target"`
	Platforms  []string          `yaml:"platforms"`
	BuildArgs  map[string]string `yaml:"build_args"`

	// Repository is the push destination without a tag,
	// e.g. "docker.io/acme/gcp-ddns".
	Repository string `yaml:"repository"`

	// Tags to apply. Default: ["latest"].
	Tags []string `yaml:"tags"`

	// Credentials is the env var prefix for registry auth
	// (e.g. "DOCKERHUB" → DOCKERHUB_USER / DOCKERHUB_PASS).
	Credentials string `yaml:"credentials"`

	// Labels enables org.opencontainers.image.* labels resolved from the
	// repository and its project manifest. On by default.
	Labels *bool `yaml:"labels"`
}

// LabelsEnabled reports whether OCI labels should be attached to builds.
func (c ImageConfig) LabelsEnabled() bool {
	return c.Labels == nil || *c.Labels
}

// RegistryHost returns the registry part of Repository ("docker.io"), or
// docker.io when the repository has no explicit host.
func (c ImageConfig) RegistryHost() string {
	repo := c.Repository
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			host := repo[:i]
			for j := 0; j < len(host); j++ {
				if host[j] == '.' || host[j] == ':' {
					return host
				}
			}
			break
		}
	}
	return "docker.io"
}

// DefaultImageConfig returns sensible defaults for image builds.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Context:     ".",
		Tags:        []string{"latest"},
		Credentials: "DOCKERHUB",
		BuildArgs:   map[string]string{},
	}
}
