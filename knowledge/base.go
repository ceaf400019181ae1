// Package knowledge implements the shared, trust-scored knowledge base.
//
// Entries are content-addressed: the entry id is the hash of the content, so
// publishing identical content twice merges into one stored entry instead of
// duplicating it. Trust moves through endorsements (+0.05 confidence each)
// and disputes (−0.10 each), one contribution per agent per entry, and
// queries rank by a relevance score that also rewards recency.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// entriesKey is the wrapper key inside the knowledge document.
const entriesKey = "entries"

// DefaultQueryLimit bounds Query results when no limit is given.
const DefaultQueryLimit = 20

// QueryOptions filters and bounds a knowledge query. The zero value returns
// the top DefaultQueryLimit unexpired entries by relevance.
type QueryOptions struct {
	// Category keeps only entries of the given category.
	Category types.KnowledgeCategory

	// Tags keeps only entries whose tag set overlaps.
	Tags []string

	// MinConfidence drops entries whose relevance score (not raw
	// confidence) falls below it.
	MinConfidence float64

	// SearchText keeps only entries whose content contains it,
	// case-insensitively.
	SearchText string

	// Limit truncates the result list; non-positive means DefaultQueryLimit.
	Limit int
}

// Base is one agent's view of the shared knowledge store.
type Base struct {
	agentID string
	entries store.DocumentStore
	logger  *zap.Logger
}

// NewBase creates a knowledge base client for the given agent.
func NewBase(agentID string, entries store.DocumentStore, logger *zap.Logger) *Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Base{
		agentID: agentID,
		entries: entries,
		logger:  logger.With(zap.String("component", "knowledge"), zap.String("agent_id", agentID)),
	}
}

// Publish adds the entry, force-setting the publisher to the caller. When an
// entry with the same content already exists, the stored copy is replaced
// only if the incoming confidence is strictly higher; the surviving entry is
// returned.
func (b *Base) Publish(ctx context.Context, entry *types.KnowledgeEntry) (*types.KnowledgeEntry, error) {
	if entry == nil {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "entry is nil")
	}

	entry.PublishedBy = b.agentID
	entry.Normalize()

	stored := entry
	err := b.entries.Mutate(ctx, func(doc store.Document) error {
		entries := loadEntries(doc)
		if existing, ok := entries[entry.EntryID]; ok && entry.Confidence <= existing.Confidence {
			stored = existing
		} else {
			entries[entry.EntryID] = entry
			stored = entry
		}
		return doc.Set(entriesKey, entries)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish knowledge: %w", err)
	}

	b.logger.Info("knowledge published",
		zap.String("entry_id", entry.EntryID),
		zap.String("category", string(stored.Category)),
		zap.Float64("confidence", stored.Confidence),
	)
	return stored, nil
}

// Query returns unexpired entries passing all filters, sorted by relevance
// score descending and truncated to the limit.
func (b *Base) Query(ctx context.Context, opts QueryOptions) ([]*types.KnowledgeEntry, error) {
	doc, err := b.entries.Load(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	search := strings.ToLower(opts.SearchText)

	var results []*types.KnowledgeEntry
	for _, entry := range loadEntries(doc) {
		if entry.IsExpired() {
			continue
		}
		if entry.RelevanceScore() < opts.MinConfidence {
			continue
		}
		if opts.Category != "" && entry.Category != opts.Category {
			continue
		}
		if len(opts.Tags) > 0 && !anyOverlap(opts.Tags, entry.Tags) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(entry.Content), search) {
			continue
		}
		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore() > results[j].RelevanceScore()
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Endorse records the caller's endorsement of the entry and raises its
// confidence by 0.05, capped at 1.0. A second endorsement by the same agent
// is a no-op.
func (b *Base) Endorse(ctx context.Context, entryID string) (*types.KnowledgeEntry, error) {
	return b.amend(ctx, entryID, func(entry *types.KnowledgeEntry) bool {
		if entry.HasEndorsed(b.agentID) {
			return false
		}
		entry.Endorsements = append(entry.Endorsements, b.agentID)
		entry.Confidence = min(1.0, entry.Confidence+0.05)
		return true
	})
}

// Dispute records the caller's dispute ("agent:reason") and lowers the
// entry's confidence by 0.10, floored at 0. One dispute per agent; the
// agent-id prefix is what's matched, so a second dispute with a different
// reason is still a no-op.
func (b *Base) Dispute(ctx context.Context, entryID, reason string) (*types.KnowledgeEntry, error) {
	return b.amend(ctx, entryID, func(entry *types.KnowledgeEntry) bool {
		if entry.HasDisputed(b.agentID) {
			return false
		}
		record := b.agentID
		if reason != "" {
			record = b.agentID + ":" + reason
		}
		entry.Disputes = append(entry.Disputes, record)
		entry.Confidence = max(0, entry.Confidence-0.10)
		return true
	})
}

// amend applies fn to the stored entry inside one read-modify-write cycle.
// fn returns whether it changed anything; either way the current entry is
// returned.
func (b *Base) amend(ctx context.Context, entryID string, fn func(*types.KnowledgeEntry) bool) (*types.KnowledgeEntry, error) {
	var result *types.KnowledgeEntry

	err := b.entries.Mutate(ctx, func(doc store.Document) error {
		entries := loadEntries(doc)
		entry, ok := entries[entryID]
		if !ok {
			return types.NewErrorf(types.ErrCodeNotFound, "knowledge entry %q not found", entryID)
		}

		changed := fn(entry)
		result = entry
		if !changed {
			return nil
		}
		return doc.Set(entriesKey, entries)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SweepExpired removes expired entries and returns the number removed.
func (b *Base) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	err := b.entries.Mutate(ctx, func(doc store.Document) error {
		removed = 0
		entries := loadEntries(doc)
		for id, entry := range entries {
			if entry.IsExpired() {
				delete(entries, id)
				removed++
			}
		}
		return doc.Set(entriesKey, entries)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// loadEntries decodes the entries map. Absent or malformed content loads as
// empty.
func loadEntries(doc store.Document) map[string]*types.KnowledgeEntry {
	entries := make(map[string]*types.KnowledgeEntry)
	if err := doc.Get(entriesKey, &entries); err != nil && !errors.Is(err, store.ErrNotFound) {
		return make(map[string]*types.KnowledgeEntry)
	}
	if entries == nil {
		entries = make(map[string]*types.KnowledgeEntry)
	}
	return entries
}

// anyOverlap reports whether the two tag sets share at least one element.
func anyOverlap(want, have []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
