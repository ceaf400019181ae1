package types

// Capability is a single action an agent can perform.
type Capability struct {
	// Name identifies the action within its group.
	Name string `json:"name"`

	// Description is a free-text description used for capability matching.
	Description string `json:"description"`

	// Parameters describes the action's inputs; the schema is free-form.
	Parameters map[string]any `json:"parameters,omitempty"`

	// EstimatedCost is the expected cost of one execution, supplied by an
	// external cost provider.
	EstimatedCost float64 `json:"estimated_cost"`

	// Tags are keywords used for discovery filtering and matching.
	Tags []string `json:"tags,omitempty"`
}

// CapabilityGroup is a group of related capabilities (a skill).
type CapabilityGroup struct {
	// SkillID uniquely identifies the group within a manifest.
	SkillID string `json:"skill_id"`

	// Name is the human-readable skill name.
	Name string `json:"name"`

	// Description describes the skill as a whole.
	Description string `json:"description"`

	// Actions is the ordered list of capabilities in this group.
	Actions []Capability `json:"actions,omitempty"`

	// Category groups skills for discovery (e.g. "general", "finance").
	Category string `json:"category"`
}
