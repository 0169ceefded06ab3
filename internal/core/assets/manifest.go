package assets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/glint3d/glint/internal/core/observability/log"
)

// Manifest lists assets to warm the caches with, typically behind a loading
// screen.
type Manifest struct {
	Assets []ManifestEntry `yaml:"assets"`
}

type ManifestEntry struct {
	Src      string `yaml:"src"`
	Kind     string `yaml:"kind"`
	Priority string `yaml:"priority,omitempty"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	for i, entry := range manifest.Assets {
		if entry.Src == "" {
			return nil, fmt.Errorf("manifest: entry %d: missing src", i)
		}
		if _, err := ParseKind(entry.Kind); err != nil {
			return nil, fmt.Errorf("manifest: entry %d: %w", i, err)
		}
		if _, err := ParsePriority(entry.Priority); err != nil {
			return nil, fmt.Errorf("manifest: entry %d: %w", i, err)
		}
	}
	return &manifest, nil
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "texture":
		return KindTexture, nil
	case "cube-texture", "cubemap":
		return KindCubeTexture, nil
	case "model":
		return KindModel, nil
	case "audio":
		return KindAudio, nil
	case "json":
		return KindJSON, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q", s)
	}
}

func ParsePriority(s string) (Priority, error) {
	switch s {
	case "high":
		return PriorityHigh, nil
	case "normal", "":
		return PriorityNormal, nil
	case "low":
		return PriorityLow, nil
	default:
		return PriorityNormal, fmt.Errorf("unknown priority %q", s)
	}
}

// Preload loads every manifest entry and waits for all of them. The first
// failure cancels the remaining waits and is returned; whatever already
// completed stays cached.
func (m *Manager) Preload(ctx context.Context, manifest *Manifest) error {
	if manifest == nil || len(manifest.Assets) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range manifest.Assets {
		kind, err := ParseKind(entry.Kind)
		if err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		priority, err := ParsePriority(entry.Priority)
		if err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		src := entry.Src
		g.Go(func() error {
			var err error
			switch kind {
			case KindTexture:
				_, err = m.LoadTexture(gctx, src, WithPriority(priority))
			case KindCubeTexture:
				_, err = m.LoadCubeTexture(gctx, src, WithPriority(priority))
			case KindModel:
				_, err = m.LoadModel(gctx, src, WithPriority(priority))
			case KindAudio:
				_, err = m.LoadAudio(gctx, src, WithPriority(priority))
			case KindJSON:
				_, err = m.LoadJSON(gctx, src, WithPriority(priority))
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	m.log.Info("preload complete", log.Int("assets", len(manifest.Assets)))
	return nil
}
