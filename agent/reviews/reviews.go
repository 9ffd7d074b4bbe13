// Package reviews serves per-store review bundles: a short summary, a few
// highlight lines, and raw snippets. Stores without curated data get a
// templated fallback bundle on first access.
package reviews

import (
	"fmt"
	"strings"
	"sync"
)

// Bundle is the per-store review text blob.
type Bundle struct {
	Store      string   `json:"store"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights,omitempty"`
	Reviews    []string `json:"reviews,omitempty"`
}

// Corpus joins every text field into one blob for keyword scoring.
func (b Bundle) Corpus() string {
	parts := make([]string, 0, len(b.Reviews)+len(b.Highlights)+1)
	parts = append(parts, b.Reviews...)
	parts = append(parts, b.Highlights...)
	parts = append(parts, b.Summary)
	return strings.Join(parts, " ")
}

// Source holds review bundles keyed by store name.
type Source struct {
	mu      sync.Mutex
	bundles map[string]Bundle
}

func NewSource() *Source {
	return &Source{bundles: make(map[string]Bundle)}
}

// Set installs or replaces the curated bundle for a store.
func (s *Source) Set(bundle Bundle) {
	key := strings.TrimSpace(bundle.Store)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[key] = bundle
}

// Get returns the store's bundle, lazily creating a generic fallback when no
// curated data exists. Never fails.
func (s *Source) Get(store string) Bundle {
	key := strings.TrimSpace(store)
	s.mu.Lock()
	defer s.mu.Unlock()
	if bundle, ok := s.bundles[key]; ok {
		return bundle
	}
	bundle := fallbackBundle(key)
	s.bundles[key] = bundle
	return bundle
}

func fallbackBundle(store string) Bundle {
	return Bundle{
		Store: store,
		Summary: fmt.Sprintf(
			"%s는 친절한 서비스와 편안한 분위기로 후기가 좋아요. 대표 메뉴가 맛있고 양이 넉넉하다는 의견이 많습니다.",
			store,
		),
	}
}

// SeedDemo installs the demo store bundle used by the voice MVP.
func (s *Source) SeedDemo() {
	s.Set(Bundle{
		Store: "옥소반 마곡본점",
		Summary: "옥소반 마곡본점은 부드러운 서비스와 깔끔한 내부로 유명해요. " +
			"어르신들이 드시기 좋은 담백한 메뉴가 많고, 양이 넉넉하다는 평가가 많습니다.",
		Highlights: []string{
			"직원 응대가 친절해서 재방문한다는 후기가 많아요.",
			"담백한 한식 위주의 메뉴라 속이 편안하다는 의견이 많아요.",
			"점심 시간 대기열이 있으니 미리 예약하면 편합니다.",
		},
		Reviews: []string{
			"부모님 모시고 갔는데 반찬이 깔끔하고 짜지 않아서 좋아하셨어요.",
			"사장님이 친절하고 자리 안내도 빨랐어요.",
			"음식이 따뜻하게 나와서 좋았고 양도 많았습니다.",
		},
	})
}
