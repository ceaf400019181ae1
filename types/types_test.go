package types

import (
	"strings"
	"testing"
	"time"
)

func TestMessage_Normalize(t *testing.T) {
	m := &Message{ToAgent: "agent-2"}
	m.Normalize()

	if m.MessageID == "" {
		t.Error("expected generated message id")
	}
	if m.Timestamp == "" {
		t.Error("expected generated timestamp")
	}
	if m.MessageType != MessageTypeRequest {
		t.Errorf("expected request type, got %s", m.MessageType)
	}
	if m.TTLSeconds != DefaultMessageTTL {
		t.Errorf("expected default TTL %d, got %d", DefaultMessageTTL, m.TTLSeconds)
	}

	// Normalize is idempotent: existing fields are kept.
	id := m.MessageID
	m.Normalize()
	if m.MessageID != id {
		t.Error("Normalize must not regenerate the message id")
	}
}

func TestMessage_IsExpired(t *testing.T) {
	t.Run("FreshMessage", func(t *testing.T) {
		m := NewMessage("agent-2", MessageTypeRequest, "hi", nil)
		if m.IsExpired() {
			t.Error("fresh message should not be expired")
		}
	})

	t.Run("PastTTL", func(t *testing.T) {
		m := &Message{
			ToAgent:    "agent-2",
			Timestamp:  FormatStamp(time.Now().Add(-2 * time.Hour)),
			TTLSeconds: 3600,
		}
		if !m.IsExpired() {
			t.Error("2h old message with 1h TTL should be expired")
		}
	})

	t.Run("UnparsableTimestamp", func(t *testing.T) {
		m := &Message{ToAgent: "agent-2", Timestamp: "yesterday", TTLSeconds: 1}
		if m.IsExpired() {
			t.Error("unparsable timestamp must not count as expired")
		}
	})
}

func TestAgentManifest_Hash(t *testing.T) {
	identity := AgentIdentity{AgentID: "agent-1", Name: "Alice", AgentType: "coder"}
	caps := []CapabilityGroup{
		{
			SkillID:  "code",
			Name:     "Coding",
			Category: "engineering",
			Actions: []Capability{
				{Name: "review_code", Description: "Review pull requests", Tags: []string{"code", "review"}},
			},
		},
	}

	t.Run("SixteenHexChars", func(t *testing.T) {
		m := NewAgentManifest(identity, caps)
		if len(m.ManifestHash) != 16 {
			t.Errorf("expected 16-char hash, got %d: %q", len(m.ManifestHash), m.ManifestHash)
		}
		for _, c := range m.ManifestHash {
			if !strings.ContainsRune("0123456789abcdef", c) {
				t.Errorf("hash contains non-hex character %q", c)
			}
		}
	})

	t.Run("DeterministicForSameContent", func(t *testing.T) {
		a := NewAgentManifest(identity, caps)
		b := &AgentManifest{Identity: identity, Capabilities: caps, GeneratedAt: a.GeneratedAt}
		if a.ManifestHash != b.ComputeHash() {
			t.Error("same content must hash identically")
		}
	})

	t.Run("ChangesWithCapabilities", func(t *testing.T) {
		a := NewAgentManifest(identity, caps)
		b := NewAgentManifest(identity, nil)
		b.GeneratedAt = a.GeneratedAt
		if a.ManifestHash == b.ComputeHash() {
			t.Error("different capabilities must hash differently")
		}
	})
}

func TestAgentManifest_Summaries(t *testing.T) {
	m := NewAgentManifest(AgentIdentity{AgentID: "a"}, []CapabilityGroup{
		{
			SkillID:  "s1",
			Category: "general",
			Actions: []Capability{
				{Name: "x", Tags: []string{"b", "a"}},
				{Name: "y", Tags: []string{"a"}},
			},
		},
		{SkillID: "s2", Category: "finance"},
	})

	if got := m.TotalSkills(); got != 2 {
		t.Errorf("expected 2 skills, got %d", got)
	}
	if got := m.TotalActions(); got != 2 {
		t.Errorf("expected 2 actions, got %d", got)
	}

	tags := m.AllTags()
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("expected sorted deduplicated tags [a b], got %v", tags)
	}

	cats := m.Categories()
	if len(cats) != 2 || cats[0] != "finance" || cats[1] != "general" {
		t.Errorf("expected sorted categories [finance general], got %v", cats)
	}
}

func TestServiceListing_Normalize(t *testing.T) {
	s := &ServiceListing{Name: "Review", Price: 0.10}
	s.Normalize()

	if s.ServiceID == "" {
		t.Error("expected generated service id")
	}
	if s.Status != ServiceStatusActive {
		t.Errorf("expected active status, got %s", s.Status)
	}
	if s.PricingModel != PricingModelFixed {
		t.Errorf("expected fixed pricing, got %s", s.PricingModel)
	}
	if s.SLAMinutes != DefaultSLAMinutes {
		t.Errorf("expected default SLA, got %d", s.SLAMinutes)
	}
}

func TestServiceListing_ProfitMargin(t *testing.T) {
	s := &ServiceListing{Price: 0.10, EstimatedCost: 0.01}
	margin := s.ProfitMargin()
	if margin < 0.899 || margin > 0.901 {
		t.Errorf("expected margin ~0.9, got %f", margin)
	}

	free := &ServiceListing{Price: 0}
	if free.ProfitMargin() != 0 {
		t.Error("zero price must yield zero margin")
	}
}

func TestServiceOrder_Normalize(t *testing.T) {
	o := &ServiceOrder{ServiceID: "svc"}
	o.Normalize()

	if o.OrderID == "" {
		t.Error("expected generated order id")
	}
	if o.Status != OrderStatusPending {
		t.Errorf("expected pending status, got %s", o.Status)
	}
	if o.CreatedAt == "" {
		t.Error("expected created_at to be stamped")
	}
}

func TestKnowledgeEntry_ContentAddressing(t *testing.T) {
	a := &KnowledgeEntry{Content: "rate limits reset at midnight UTC"}
	b := &KnowledgeEntry{Content: "rate limits reset at midnight UTC"}
	c := &KnowledgeEntry{Content: "something else"}
	a.Normalize()
	b.Normalize()
	c.Normalize()

	if a.EntryID != b.EntryID {
		t.Error("identical content must produce identical entry ids")
	}
	if a.EntryID == c.EntryID {
		t.Error("different content must produce different entry ids")
	}
	if len(a.EntryID) != 16 {
		t.Errorf("expected 16-char entry id, got %d", len(a.EntryID))
	}
}

func TestKnowledgeEntry_Normalize(t *testing.T) {
	e := &KnowledgeEntry{Content: "x"}
	e.Normalize()

	if e.Category != KnowledgeCategoryStrategy {
		t.Errorf("expected strategy category, got %s", e.Category)
	}
	if e.Confidence != DefaultKnowledgeConfidence {
		t.Errorf("expected default confidence, got %f", e.Confidence)
	}
	if e.ExpiresAt == "" {
		t.Error("expected expiry to be stamped")
	}
	if e.IsExpired() {
		t.Error("fresh entry should not be expired")
	}
}

func TestKnowledgeEntry_Disputes(t *testing.T) {
	e := &KnowledgeEntry{Content: "x", Disputes: []string{"agent-1:too vague"}}

	if !e.HasDisputed("agent-1") {
		t.Error("agent-1 disputed with a reason, prefix must match")
	}
	if e.HasDisputed("agent") {
		t.Error("partial agent id must not match")
	}
	if e.HasDisputed("agent-2") {
		t.Error("agent-2 never disputed")
	}
}

func TestKnowledgeEntry_RelevanceScore(t *testing.T) {
	t.Run("RecentEntryGetsBonus", func(t *testing.T) {
		e := &KnowledgeEntry{Content: "x", Confidence: 0.5, PublishedAt: NowStamp()}
		score := e.RelevanceScore()
		if score < 0.69 || score > 0.71 {
			t.Errorf("expected ~0.7 (0.5 + fresh bonus 0.2), got %f", score)
		}
	})

	t.Run("OldEntryNoBonus", func(t *testing.T) {
		e := &KnowledgeEntry{
			Content:     "x",
			Confidence:  0.5,
			PublishedAt: FormatStamp(time.Now().Add(-200 * time.Hour)),
		}
		if got := e.RelevanceScore(); got != 0.5 {
			t.Errorf("expected exactly confidence 0.5 for old entry, got %f", got)
		}
	})

	t.Run("EndorsementsAndDisputes", func(t *testing.T) {
		e := &KnowledgeEntry{
			Content:      "x",
			Confidence:   0.5,
			PublishedAt:  FormatStamp(time.Now().Add(-200 * time.Hour)),
			Endorsements: []string{"a", "b"},
			Disputes:     []string{"c:wrong"},
		}
		got := e.RelevanceScore()
		want := 0.5 + 2*0.05 - 0.10
		if got < want-1e-9 || got > want+1e-9 {
			t.Errorf("expected %f, got %f", want, got)
		}
	})

	t.Run("UnparsableTimestampNoBonus", func(t *testing.T) {
		e := &KnowledgeEntry{Content: "x", Confidence: 0.4, PublishedAt: "whenever"}
		if got := e.RelevanceScore(); got != 0.4 {
			t.Errorf("expected 0.4, got %f", got)
		}
	})
}

func TestParseStamp_AcceptsSecondResolution(t *testing.T) {
	if _, err := ParseStamp("2026-01-02T15:04:05Z"); err != nil {
		t.Errorf("second-resolution RFC3339 must parse: %v", err)
	}
	if _, err := ParseStamp("2026-01-02T15:04:05.123456789Z"); err != nil {
		t.Errorf("nanosecond RFC3339 must parse: %v", err)
	}
	if _, err := ParseStamp("not a time"); err == nil {
		t.Error("garbage must not parse")
	}
}
