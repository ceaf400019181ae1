package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// AgentManifest is the complete capability advertisement for an agent.
//
// ManifestHash is computed once at construction over the canonical
// (key-sorted) serialization of the manifest's fields and is never recomputed
// implicitly. Callers that mutate Capabilities after construction must build
// a fresh manifest with NewAgentManifest.
type AgentManifest struct {
	Identity     AgentIdentity     `json:"identity"`
	Capabilities []CapabilityGroup `json:"capabilities,omitempty"`
	GeneratedAt  string            `json:"generated_at"`
	ManifestHash string            `json:"manifest_hash"`
}

// NewAgentManifest builds a manifest for the given identity and capability
// groups, stamping the generation time and content hash.
func NewAgentManifest(identity AgentIdentity, capabilities []CapabilityGroup) *AgentManifest {
	m := &AgentManifest{
		Identity:     identity,
		Capabilities: capabilities,
		GeneratedAt:  NowStamp(),
	}
	m.ManifestHash = m.ComputeHash()
	return m
}

// TotalSkills returns the number of capability groups.
func (m *AgentManifest) TotalSkills() int {
	return len(m.Capabilities)
}

// TotalActions returns the number of actions across all groups.
func (m *AgentManifest) TotalActions() int {
	n := 0
	for _, g := range m.Capabilities {
		n += len(g.Actions)
	}
	return n
}

// AllTags returns the sorted union of every action's tags.
func (m *AgentManifest) AllTags() []string {
	seen := make(map[string]struct{})
	for _, g := range m.Capabilities {
		for _, a := range g.Actions {
			for _, t := range a.Tags {
				seen[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Categories returns the sorted union of group categories.
func (m *AgentManifest) Categories() []string {
	seen := make(map[string]struct{})
	for _, g := range m.Capabilities {
		seen[g.Category] = struct{}{}
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ComputeHash returns the 16-hex-character content hash of the manifest.
// The hash covers the full manifest document, including the derived summary
// fields, with the hash field itself blanked.
func (m *AgentManifest) ComputeHash() string {
	doc := map[string]any{
		"identity":      m.Identity,
		"capabilities":  m.Capabilities,
		"generated_at":  m.GeneratedAt,
		"total_skills":  m.TotalSkills(),
		"total_actions": m.TotalActions(),
		"categories":    m.Categories(),
		"tags":          m.AllTags(),
		"manifest_hash": "",
	}
	sum := sha256.Sum256(canonicalJSON(doc))
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalJSON serializes v with all object keys sorted at every level.
// Structs are round-tripped through a generic map so their fields are
// ordered by key rather than by declaration order.
func canonicalJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return raw
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return raw
	}
	return out
}
