package types

// AgentIdentity is the core identity of an agent on the network.
// Re-registration overwrites the published identity wholesale; there is no
// field-level merge.
type AgentIdentity struct {
	// AgentID uniquely identifies the agent across the shared store.
	AgentID string `json:"agent_id"`

	// Name is the human-readable agent name.
	Name string `json:"name"`

	// Ticker is the short symbol the agent trades under.
	Ticker string `json:"ticker"`

	// AgentType categorizes the agent (e.g. "coder", "writer").
	AgentType string `json:"agent_type"`

	// Specialty is a free-form description of what the agent is best at.
	Specialty string `json:"specialty"`

	// Version is the agent software version.
	Version string `json:"version"`
}
