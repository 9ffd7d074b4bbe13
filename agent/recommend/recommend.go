// Package recommend ranks a store's menu for one user. Filtering is
// profile-driven (allergies, dislikes); scoring is a small additive heuristic
// over the store's review corpus.
package recommend

import (
	"sort"
	"strings"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	reviewx "github.com/hyeonjae-dev/voiceorder/agent/reviews"
)

const DefaultLimit = 3

// Profile is the slice of user preferences the engine consumes.
type Profile struct {
	Prefers   []string
	Dislikes  []string
	Allergies []string
}

type Engine struct {
	catalog *catalogx.Catalog
	source  *reviewx.Source
}

func NewEngine(catalog *catalogx.Catalog, source *reviewx.Source) *Engine {
	return &Engine{catalog: catalog, source: source}
}

// Recommend filters and ranks the store's menu. Over-filtering never empties
// the result: when every candidate is filtered out, ranking falls back to the
// unfiltered list. Only an empty raw catalog yields an empty result.
func (e *Engine) Recommend(store string, profile Profile, limit int) []catalogx.MenuItem {
	menu := e.catalog.List(store)
	if len(menu) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	allergies := toSet(profile.Allergies)
	dislikes := profile.Dislikes

	filtered := make([]catalogx.MenuItem, 0, len(menu))
	for _, item := range menu {
		if intersects(allergies, item.Allergens) {
			continue
		}
		if containsAny(item.Name, dislikes) {
			continue
		}
		filtered = append(filtered, item)
	}
	if len(filtered) == 0 {
		filtered = menu
	}

	corpus := e.source.Get(store).Corpus()

	type scored struct {
		item  catalogx.MenuItem
		score int
	}
	ranked := make([]scored, 0, len(filtered))
	for _, item := range filtered {
		ranked = append(ranked, scored{item: item, score: scoreItem(item, corpus)})
	}
	// Stable: catalog order is preserved among equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]catalogx.MenuItem, 0, limit)
	for _, entry := range ranked[:limit] {
		out = append(out, entry.item)
	}
	return out
}

// Texture/flavor keyword families: a corpus keyword co-occurring with a name
// pattern earns one point; an exact name mention earns two.
var textureRules = []struct {
	corpusKeyword string
	namePatterns  []string
}{
	{"부드럽", []string{"죽", "스프"}},
	{"담백", []string{"정식", "구이"}},
	{"tender", []string{"soup", "porridge"}},
}

func scoreItem(item catalogx.MenuItem, corpus string) int {
	score := 0
	if item.Name != "" && strings.Contains(corpus, item.Name) {
		score += 2
	}
	lowerCorpus := strings.ToLower(corpus)
	lowerName := strings.ToLower(item.Name)
	for _, rule := range textureRules {
		if !strings.Contains(lowerCorpus, rule.corpusKeyword) {
			continue
		}
		for _, pattern := range rule.namePatterns {
			if strings.Contains(lowerName, pattern) {
				score++
				break
			}
		}
	}
	return score
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			set[v] = true
		}
	}
	return set
}

func intersects(set map[string]bool, values []string) bool {
	if len(set) == 0 {
		return false
	}
	for _, v := range values {
		if set[strings.TrimSpace(v)] {
			return true
		}
	}
	return false
}

func containsAny(name string, terms []string) bool {
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" && strings.Contains(name, term) {
			return true
		}
	}
	return false
}
