package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the kind of inter-agent message.
type MessageType string

const (
	// MessageTypeRequest asks another agent to do something.
	MessageTypeRequest MessageType = "request"
	// MessageTypeResponse replies to a request.
	MessageTypeResponse MessageType = "response"
	// MessageTypeBroadcast is an announcement to all agents.
	MessageTypeBroadcast MessageType = "broadcast"
	// MessageTypeHeartbeat is a liveness signal.
	MessageTypeHeartbeat MessageType = "heartbeat"
	// MessageTypeDiscovery is a capability query.
	MessageTypeDiscovery MessageType = "discovery"
	// MessageTypeKnowledge carries a shared knowledge entry.
	MessageTypeKnowledge MessageType = "knowledge"
)

// DefaultMessageTTL is the lifetime applied to messages that do not set one.
const DefaultMessageTTL = 3600

// Message is a single message between agents. MessageID and Timestamp are
// generated at creation when absent and immutable afterwards.
type Message struct {
	MessageID   string         `json:"message_id"`
	FromAgent   string         `json:"from_agent"`
	ToAgent     string         `json:"to_agent"`
	MessageType MessageType    `json:"message_type"`
	Subject     string         `json:"subject"`
	Body        map[string]any `json:"body,omitempty"`
	Timestamp   string         `json:"timestamp"`
	ReplyTo     string         `json:"reply_to,omitempty"`
	TTLSeconds  int            `json:"ttl_seconds"`
}

// NewMessage creates a message to the given recipient with generated id and
// timestamp and the default TTL.
func NewMessage(toAgent string, msgType MessageType, subject string, body map[string]any) *Message {
	m := &Message{
		ToAgent:     toAgent,
		MessageType: msgType,
		Subject:     subject,
		Body:        body,
	}
	m.Normalize()
	return m
}

// Normalize fills the generated fields that are absent: message id,
// timestamp, message type, and TTL.
func (m *Message) Normalize() {
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	if m.Timestamp == "" {
		m.Timestamp = NowStamp()
	}
	if m.MessageType == "" {
		m.MessageType = MessageTypeRequest
	}
	if m.TTLSeconds == 0 {
		m.TTLSeconds = DefaultMessageTTL
	}
}

// IsExpired reports whether the message has outlived its TTL. A timestamp
// that cannot be parsed is treated as not expired.
func (m *Message) IsExpired() bool {
	sent, err := ParseStamp(m.Timestamp)
	if err != nil {
		return false
	}
	return time.Since(sent) > time.Duration(m.TTLSeconds)*time.Second
}
