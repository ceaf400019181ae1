package discovery

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/types"
)

// DefaultMatchThreshold is the minimum score for a capability to count as a
// match.
const DefaultMatchThreshold = 0.3

// Match is one scored (skill, action) pair from a manifest.
type Match struct {
	SkillID string  `json:"skill_id"`
	Action  string  `json:"action"`
	Score   float64 `json:"score"`
}

// Matcher scores free-text queries against capability manifests using
// word-set overlap. It is a lexical heuristic, not semantic search.
type Matcher struct {
	threshold float64
	logger    *zap.Logger
}

// NewMatcher creates a matcher. A non-positive threshold falls back to
// DefaultMatchThreshold.
func NewMatcher(threshold float64, logger *zap.Logger) *Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		threshold: threshold,
		logger:    logger.With(zap.String("component", "capability_matcher")),
	}
}

// Match scores every (skill, action) pair of the manifest against the query.
// For each action the candidate word set is the union of its description
// words, its name with separators replaced by spaces, and its tags. The
// score is |query ∩ candidate| / max(|query|, 1), plus a flat 0.3 bonus when
// the raw query occurs as a substring of the action name, clamped to 1.0.
// Results at or above the threshold are returned sorted by score descending;
// ties keep encounter order.
func (m *Matcher) Match(manifest *types.AgentManifest, query string) []Match {
	queryLower := strings.ToLower(query)
	queryWords := wordSet(queryLower)

	var matches []Match
	for _, group := range manifest.Capabilities {
		for _, action := range group.Actions {
			candidates := wordSet(strings.ToLower(action.Description))
			for w := range wordSet(separatorsToSpaces(strings.ToLower(action.Name))) {
				candidates[w] = struct{}{}
			}
			for _, t := range action.Tags {
				candidates[strings.ToLower(t)] = struct{}{}
			}
			if len(candidates) == 0 {
				continue
			}

			overlap := 0
			for w := range queryWords {
				if _, ok := candidates[w]; ok {
					overlap++
				}
			}

			denom := len(queryWords)
			if denom < 1 {
				denom = 1
			}
			score := float64(overlap) / float64(denom)

			if strings.Contains(strings.ToLower(action.Name), queryLower) {
				score += 0.3
			}
			if score > 1.0 {
				score = 1.0
			}

			if score >= m.threshold {
				matches = append(matches, Match{
					SkillID: group.SkillID,
					Action:  action.Name,
					Score:   score,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// wordSet splits lowered text on whitespace into a set.
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// separatorsToSpaces rewrites common name separators so that multi-word
// action names tokenize.
func separatorsToSpaces(s string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
