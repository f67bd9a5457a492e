// Package words is the read-only view over the moderation store: approved
// vocabulary for player names, join defaults and target-word selection,
// cached briefly so room actors do not hit the store on every guess.
package words

import (
	"sync"
	"time"

	"github.com/samber/lo"
	constants "wordshift/internal/constants"
	game "wordshift/internal/game"
	util "wordshift/internal/util"
)

// Source is the moderation store interface the adapter consumes.
type Source interface {
	LoadWordReview() (approved, rejected []string, err error)
}

type Pool struct {
	source   Source
	cacheTTL time.Duration

	mu        sync.Mutex
	fetchedAt time.Time
	words     []string
	set       map[string]struct{}
}

func NewPool(source Source) *Pool {
	return &Pool{
		source:   source,
		cacheTTL: constants.ApprovedCacheTTL,
		words:    append([]string{}, constants.FallbackWords...),
		set:      toSet(constants.FallbackWords),
	}
}

func toSet(words []string) map[string]struct{} {
	return lo.SliceToMap(words, func(w string) (string, struct{}) { return w, struct{}{} })
}

// NormalizeList uppercases, strips non-letters, drops non-campaign words and
// duplicates while preserving order.
func NormalizeList(raw []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, item := range raw {
		w := game.NormalizeWord(item)
		if !game.IsCampaignWord(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Approved returns the cached approved vocabulary, refreshing from the store
// when the cache has gone stale. An empty or failing store falls back to the
// built-in vocabulary so rooms keep working.
func (p *Pool) Approved() ([]string, map[string]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.words) > 0 && time.Since(p.fetchedAt) < p.cacheTTL {
		return p.words, p.set
	}

	var loaded []string
	if p.source != nil {
		approved, _, err := p.source.LoadWordReview()
		if err != nil {
			util.LogWarn("Approved pool refresh failed: %v", err)
		} else {
			loaded = NormalizeList(approved)
		}
	}
	if len(loaded) == 0 {
		loaded = append([]string{}, constants.FallbackWords...)
	}

	p.fetchedAt = time.Now()
	p.words = loaded
	p.set = toSet(loaded)
	return p.words, p.set
}

// ValidateCampaignName normalizes a candidate and reports whether it is an
// approved campaign word. A pure read.
func (p *Pool) ValidateCampaignName(raw string) (normalized string, valid bool) {
	normalized = game.NormalizeWord(raw)
	if !game.IsCampaignWord(normalized) {
		return normalized, false
	}
	_, set := p.Approved()
	_, ok := set[normalized]
	return normalized, ok
}

// PickRandomCampaignName draws an unused approved word and makes it unique
// within the room's existing names.
func (p *Pool) PickRandomCampaignName(usedNames map[string]struct{}) string {
	pool, _ := p.Approved()
	candidates := lo.Filter(pool, func(w string, _ int) bool {
		_, used := usedNames[w]
		return !used
	})
	picked := game.ChooseRandom(candidates)
	if picked == "" {
		picked = game.ChooseRandom(pool)
	}
	if picked == "" {
		picked = game.ChooseRandom(constants.FallbackWords)
	}
	if picked == "" {
		picked = "PLAYER"
	}
	return game.MakeUniqueName(picked, usedNames)
}

// PickTargetWord selects a secret word, preferring the requested length when
// any approved candidates match, then the unconstrained approved pool, then
// the built-in fallback vocabulary.
func (p *Pool) PickTargetWord(preferredLength int) string {
	pool, _ := p.Approved()
	candidates := lo.Filter(pool, func(w string, _ int) bool {
		return len(w) >= constants.MinWordLength && len(w) <= constants.MaxWordLength
	})
	if preferredLength >= constants.MinWordLength && preferredLength <= constants.MaxWordLength {
		if byLen := game.FilterByLength(candidates, preferredLength); len(byLen) > 0 {
			candidates = byLen
		}
	}
	if len(candidates) == 0 {
		candidates = append([]string{}, constants.FallbackWords...)
	}
	if picked := game.ChooseRandom(candidates); picked != "" {
		return picked
	}
	return "SPARK"
}

// Contains reports approved-pool membership for an already-normalized word.
func (p *Pool) Contains(word string) bool {
	_, set := p.Approved()
	_, ok := set[word]
	return ok
}
