package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"golang.org/x/sync/errgroup"
)

// ManifestInfo summarizes the manifest found at repository@digest.
type ManifestInfo struct {
	Digest    string
	MediaType string
	Platforms []PlatformManifest
}

// PlatformManifest is one entry of a multi-platform manifest list.
type PlatformManifest struct {
	Platform string // "linux/amd64"
	Digest   string
	Size     int64
	Layers   int
}

// Inspector fetches manifests from a registry.
type Inspector struct {
	// Auth overrides the default keychain. Nil falls back to anonymous /
	// ambient docker credentials, which is enough for public repositories.
	Auth *Credentials
}

// Inspect resolves the manifest at ref (repository@digest or repository:tag).
// For a manifest list, child manifests are fetched concurrently so the
// per-platform digests land in a single round of network latency.
func (i *Inspector) Inspect(ctx context.Context, ref string) (*ManifestInfo, error) {
	parsed, err := name.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing reference %q: %w", ref, err)
	}

	opts := []remote.Option{remote.WithContext(ctx)}
	if i.Auth != nil {
		opts = append(opts, remote.WithAuth(&authn.Basic{
			Username: i.Auth.Username,
			Password: i.Auth.Password,
		}))
	} else {
		opts = append(opts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}

	desc, err := remote.Get(parsed, opts...)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest for %s: %w", ref, err)
	}

	info := &ManifestInfo{
		Digest:    desc.Digest.String(),
		MediaType: string(desc.MediaType),
	}

	if !desc.MediaType.IsIndex() {
		// Single-platform image
		img, err := desc.Image()
		if err != nil {
			return nil, fmt.Errorf("reading image manifest: %w", err)
		}
		cfg, err := img.ConfigFile()
		if err != nil {
			return nil, fmt.Errorf("reading image config: %w", err)
		}
		size, _ := img.Size()
		info.Platforms = []PlatformManifest{{
			Platform: cfg.OS + "/" + cfg.Architecture,
			Digest:   desc.Digest.String(),
			Size:     size,
		}}
		return info, nil
	}

	idx, err := desc.ImageIndex()
	if err != nil {
		return nil, fmt.Errorf("reading manifest list: %w", err)
	}
	manifest, err := idx.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("decoding manifest list: %w", err)
	}

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)

	for _, m := range manifest.Manifests {
		if m.MediaType == types.DockerManifestSchema2 || m.MediaType.IsImage() {
			m := m
			if skipAttestation(m.Platform) {
				continue
			}
			g.Go(func() error {
				pm := PlatformManifest{
					Platform: platformString(m.Platform),
					Digest:   m.Digest.String(),
					Size:     m.Size,
				}
				// Pull the child manifest to count layers; the index entry
				// alone only carries the manifest blob size.
				if img, err := idx.Image(m.Digest); err == nil {
					if layers, err := img.Layers(); err == nil {
						pm.Layers = len(layers)
					}
				}
				mu.Lock()
				info.Platforms = append(info.Platforms, pm)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(info.Platforms, func(a, b int) bool {
		return info.Platforms[a].Platform < info.Platforms[b].Platform
	})
	return info, nil
}

func platformString(p *v1.Platform) string {
	if p == nil {
		return "unknown"
	}
	s := p.OS + "/" + p.Architecture
	if p.Variant != "" {
		s += "/" + p.Variant
	}
	return s
}

// skipAttestation filters buildkit provenance entries, which appear in the
// manifest list as unknown/unknown platforms.
func skipAttestation(p *v1.Platform) bool {
	return p != nil && p.OS == "unknown" && p.Architecture == "unknown"
}
