package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// KnowledgeCategory classifies shared knowledge entries.
type KnowledgeCategory string

const (
	KnowledgeCategoryStrategy     KnowledgeCategory = "strategy"
	KnowledgeCategoryWarning      KnowledgeCategory = "warning"
	KnowledgeCategoryOptimization KnowledgeCategory = "optimization"
	KnowledgeCategoryCapability   KnowledgeCategory = "capability"
	KnowledgeCategoryMarket       KnowledgeCategory = "market"
)

// DefaultKnowledgeTTL is the lifetime of a knowledge entry from publication.
const DefaultKnowledgeTTL = 7 * 24 * time.Hour

// DefaultKnowledgeConfidence is the confidence assigned when unset.
const DefaultKnowledgeConfidence = 0.5

// KnowledgeEntry is a piece of shared knowledge. EntryID is the content's
// hash, not a random token: publishing identical content twice maps to the
// same stored entry (content-addressed deduplication).
type KnowledgeEntry struct {
	EntryID     string            `json:"entry_id"`
	Content     string            `json:"content"`
	Category    KnowledgeCategory `json:"category"`
	Confidence  float64           `json:"confidence"`
	Tags        []string          `json:"tags,omitempty"`
	PublishedBy string            `json:"published_by"`
	PublishedAt string            `json:"published_at"`
	ExpiresAt   string            `json:"expires_at"`

	// Endorsements holds the ids of agents that endorsed the entry, at most
	// one per agent.
	Endorsements []string `json:"endorsements,omitempty"`

	// Disputes holds "agent:reason" records, at most one per agent.
	Disputes []string `json:"disputes,omitempty"`
}

// ContentHash returns the 16-hex-character content address for the given text.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// Normalize fills generated and defaulted fields that are absent: the
// content-addressed entry id, publication time, expiry, category, and
// confidence.
func (e *KnowledgeEntry) Normalize() {
	if e.EntryID == "" {
		e.EntryID = ContentHash(e.Content)
	}
	if e.PublishedAt == "" {
		e.PublishedAt = NowStamp()
	}
	if e.ExpiresAt == "" {
		e.ExpiresAt = FormatStamp(time.Now().Add(DefaultKnowledgeTTL))
	}
	if e.Category == "" {
		e.Category = KnowledgeCategoryStrategy
	}
	if e.Confidence == 0 {
		e.Confidence = DefaultKnowledgeConfidence
	}
}

// IsExpired reports whether the entry is past its expiry. An unparsable
// expiry is treated as not expired.
func (e *KnowledgeEntry) IsExpired() bool {
	exp, err := ParseStamp(e.ExpiresAt)
	if err != nil {
		return false
	}
	return time.Now().After(exp)
}

// HasEndorsed reports whether the given agent already endorsed the entry.
func (e *KnowledgeEntry) HasEndorsed(agentID string) bool {
	for _, id := range e.Endorsements {
		if id == agentID {
			return true
		}
	}
	return false
}

// HasDisputed reports whether the given agent already disputed the entry.
// Dispute records are matched by their agent-id prefix, so one agent cannot
// dispute twice with different reasons.
func (e *KnowledgeEntry) HasDisputed(agentID string) bool {
	for _, d := range e.Disputes {
		if id, _, _ := strings.Cut(d, ":"); id == agentID {
			return true
		}
	}
	return false
}

// RelevanceScore combines confidence, endorsements, disputes, and recency
// into a single 0..1 ranking score. The recency bonus decays linearly from
// 0.2 at publication to 0 at 168 hours old; an unparsable publication time
// contributes no bonus.
func (e *KnowledgeEntry) RelevanceScore() float64 {
	score := e.Confidence
	score += float64(len(e.Endorsements)) * 0.05
	score -= float64(len(e.Disputes)) * 0.10

	if published, err := ParseStamp(e.PublishedAt); err == nil {
		ageHours := time.Since(published).Hours()
		bonus := 0.2 - (ageHours/168)*0.2
		if bonus > 0 {
			score += bonus
		}
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
