package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// DefaultStaleThreshold is how long after the last heartbeat an agent is
// still considered online.
const DefaultStaleThreshold = 24 * time.Hour

// AgentRecord is the registry entry persisted per agent.
type AgentRecord struct {
	Manifest      *types.AgentManifest `json:"manifest,omitempty"`
	RegisteredAt  string               `json:"registered_at"`
	LastHeartbeat string               `json:"last_heartbeat"`
	Status        string               `json:"status"`
}

// DiscoverOptions filters the agents returned by Discover. The zero value
// excludes the caller, applies no type/tag filter, and ignores liveness.
type DiscoverOptions struct {
	// AgentType keeps only agents whose identity matches exactly.
	AgentType string

	// Tags keeps only agents whose manifest tag set overlaps.
	Tags []string

	// IncludeSelf keeps the caller's own record in the results.
	IncludeSelf bool

	// OnlineOnly keeps only agents with a parsable heartbeat within the
	// stale threshold.
	OnlineOnly bool

	// StaleThreshold overrides DefaultStaleThreshold when positive.
	StaleThreshold time.Duration
}

// TaskMatch is one globally scored capability match across all discovered
// agents.
type TaskMatch struct {
	Manifest *types.AgentManifest `json:"manifest"`
	SkillID  string               `json:"skill_id"`
	Action   string               `json:"action"`
	Score    float64              `json:"score"`
}

// Registry registers and discovers agents through the shared agents
// document. One Registry serves one agent identity.
type Registry struct {
	identity types.AgentIdentity
	agents   store.DocumentStore
	matcher  *Matcher
	logger   *zap.Logger

	// manifest is the last manifest this session registered; used to
	// re-register without rebuilding.
	manifest *types.AgentManifest
}

// NewRegistry creates a registry for the given identity backed by the agents
// document store.
func NewRegistry(identity types.AgentIdentity, agents store.DocumentStore, matcher *Matcher, logger *zap.Logger) *Registry {
	if matcher == nil {
		matcher = NewMatcher(0, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		identity: identity,
		agents:   agents,
		matcher:  matcher,
		logger:   logger.With(zap.String("component", "registry"), zap.String("agent_id", identity.AgentID)),
	}
}

// Register publishes the agent's manifest, fully overwriting any prior
// record. A nil manifest reuses the session's last one, or synthesizes an
// empty manifest from the identity when none was ever set.
func (r *Registry) Register(ctx context.Context, manifest *types.AgentManifest) (*types.AgentManifest, error) {
	if manifest != nil {
		r.manifest = manifest
	} else if r.manifest == nil {
		r.manifest = types.NewAgentManifest(r.identity, nil)
	}

	now := types.NowStamp()
	record := AgentRecord{
		Manifest:      r.manifest,
		RegisteredAt:  now,
		LastHeartbeat: now,
		Status:        "online",
	}

	err := r.agents.Mutate(ctx, func(doc store.Document) error {
		return doc.Set(r.identity.AgentID, record)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}

	r.logger.Info("agent registered",
		zap.String("manifest_hash", r.manifest.ManifestHash),
		zap.Int("skills", r.manifest.TotalSkills()),
	)
	return r.manifest, nil
}

// Heartbeat refreshes only the liveness fields of this agent's record,
// creating a record with empty fields if none exists.
func (r *Registry) Heartbeat(ctx context.Context) error {
	return r.agents.Mutate(ctx, func(doc store.Document) error {
		var record AgentRecord
		if err := doc.Get(r.identity.AgentID, &record); err != nil && !errors.Is(err, store.ErrNotFound) {
			// Malformed record: start over rather than fail the heartbeat.
			record = AgentRecord{}
		}
		record.LastHeartbeat = types.NowStamp()
		record.Status = "online"
		return doc.Set(r.identity.AgentID, record)
	})
}

// Discover scans the registry and returns the manifests passing the filters.
// Records without a manifest are skipped; when OnlineOnly is set, records
// with unparsable heartbeats are dropped.
func (r *Registry) Discover(ctx context.Context, opts DiscoverOptions) ([]*types.AgentManifest, error) {
	doc, err := r.agents.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	stale := opts.StaleThreshold
	if stale <= 0 {
		stale = DefaultStaleThreshold
	}

	// Iterate in sorted key order so discovery output is deterministic.
	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var manifests []*types.AgentManifest
	for _, agentID := range ids {
		if !opts.IncludeSelf && agentID == r.identity.AgentID {
			continue
		}

		var record AgentRecord
		if err := doc.Get(agentID, &record); err != nil {
			r.logger.Debug("skipping malformed registry record", zap.String("agent_id", agentID))
			continue
		}
		if record.Manifest == nil {
			continue
		}

		if opts.AgentType != "" && record.Manifest.Identity.AgentType != opts.AgentType {
			continue
		}
		if len(opts.Tags) > 0 && !anyOverlap(opts.Tags, record.Manifest.AllTags()) {
			continue
		}

		if opts.OnlineOnly {
			hb, err := types.ParseStamp(record.LastHeartbeat)
			if err != nil {
				continue
			}
			if time.Since(hb) > stale {
				continue
			}
		}

		manifests = append(manifests, record.Manifest)
	}

	return manifests, nil
}

// FindAgentForTask matches the task description against every discovered
// manifest and returns the flattened results sorted by score descending.
func (r *Registry) FindAgentForTask(ctx context.Context, taskDescription string) ([]TaskMatch, error) {
	manifests, err := r.Discover(ctx, DiscoverOptions{})
	if err != nil {
		return nil, err
	}

	var results []TaskMatch
	for _, manifest := range manifests {
		for _, m := range r.matcher.Match(manifest, taskDescription) {
			results = append(results, TaskMatch{
				Manifest: manifest,
				SkillID:  m.SkillID,
				Action:   m.Action,
				Score:    m.Score,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// AgentIDs returns the ids of all currently discoverable agents other than
// the caller. It satisfies the messaging directory contract for broadcasts.
func (r *Registry) AgentIDs(ctx context.Context) ([]string, error) {
	manifests, err := r.Discover(ctx, DiscoverOptions{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(manifests))
	for _, m := range manifests {
		ids = append(ids, m.Identity.AgentID)
	}
	return ids, nil
}

// Manifest returns the session's current manifest, or nil before the first
// Register call.
func (r *Registry) Manifest() *types.AgentManifest {
	return r.manifest
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
