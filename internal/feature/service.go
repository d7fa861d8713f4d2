// AngelaMos | 2026
// service.go

package feature

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/nexusai/internal/core"
)

const searchLimit = 8

// Group is one navigation section.
type Group struct {
	Category Category  `json:"category"`
	Features []Feature `json:"features"`
}

type Service struct {
	catalog []Feature
	index   map[string]int
	store   Store
}

func NewService(store Store) *Service {
	catalog := Catalog()
	index := make(map[string]int, len(catalog))
	for i, f := range catalog {
		index[f.ID] = i
	}
	return &Service{catalog: catalog, index: index, store: store}
}

// List returns the full catalog with overrides applied.
func (s *Service) List(ctx context.Context) ([]Feature, error) {
	overrides, err := s.store.Overrides(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Feature, len(s.catalog))
	for i, f := range s.catalog {
		if on, ok := overrides[f.ID]; ok {
			f.Enabled = on
		}
		f.Icon = ResolveIcon(string(f.Icon))
		out[i] = f
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Feature, error) {
	i, ok := s.index[id]
	if !ok {
		return Feature{}, fmt.Errorf("feature %q: %w", id, core.ErrFeatureMissing)
	}

	f := s.catalog[i]
	overrides, err := s.store.Overrides(ctx)
	if err != nil {
		return Feature{}, err
	}
	if on, ok := overrides[id]; ok {
		f.Enabled = on
	}
	return f, nil
}

// RequireEnabled fails with ErrFeatureMissing or ErrFeatureDisabled unless
// the feature can be used.
func (s *Service) RequireEnabled(ctx context.Context, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !f.Enabled {
		return fmt.Errorf("feature %q: %w", id, core.ErrFeatureDisabled)
	}
	return nil
}

// Toggle flips the enabled flag and returns the updated feature.
func (s *Service) Toggle(ctx context.Context, id string) (Feature, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return Feature{}, err
	}

	f.Enabled = !f.Enabled
	if err := s.store.Set(ctx, id, f.Enabled); err != nil {
		return Feature{}, err
	}
	return f, nil
}

// Navigation groups enabled features by category, skipping empty groups.
func (s *Service) Navigation(ctx context.Context) ([]Group, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	byCat := make(map[Category][]Feature, len(Categories))
	for _, f := range all {
		if f.Enabled {
			byCat[f.Category] = append(byCat[f.Category], f)
		}
	}

	groups := make([]Group, 0, len(Categories))
	for _, c := range Categories {
		if fs := byCat[c]; len(fs) > 0 {
			groups = append(groups, Group{Category: c, Features: fs})
		}
	}
	return groups, nil
}

// Search matches enabled features on label, description and id, plus a few
// keyword hints that pull in related tools. Queries mentioning admin return
// nothing for non-admins.
func (s *Service) Search(ctx context.Context, query string, isAdmin bool) ([]Feature, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Feature{}, nil
	}
	if strings.Contains(q, "admin") && !isAdmin {
		return []Feature{}, nil
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	hint := hintFor(q)
	results := make([]Feature, 0, searchLimit)
	for _, f := range all {
		if !f.Enabled {
			continue
		}
		if matches(f, q) || (hint != nil && hint(f)) {
			results = append(results, f)
			if len(results) == searchLimit {
				break
			}
		}
	}
	return results, nil
}

func matches(f Feature, q string) bool {
	return strings.Contains(strings.ToLower(f.Label), q) ||
		strings.Contains(strings.ToLower(f.Description), q) ||
		strings.Contains(f.ID, q)
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func hintFor(q string) func(Feature) bool {
	switch {
	case containsAny(q, "text", "write", "texto", "escrever"):
		return func(f Feature) bool {
			return containsAny(f.ID, "writer", "copy")
		}
	case containsAny(q, "voice", "audio", "voz"):
		return func(f Feature) bool {
			return containsAny(f.ID, "voice", "audio", "music")
		}
	case containsAny(q, "video", "film", "filme"):
		return func(f Feature) bool {
			return containsAny(f.ID, "video", "reel")
		}
	case containsAny(q, "image", "photo", "imagem", "foto"):
		return func(f Feature) bool {
			return f.Category == CategoryMedia || strings.Contains(f.ID, "image")
		}
	}
	return nil
}
