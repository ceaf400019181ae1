// Package messaging implements per-recipient inboxes over the shared
// messages document: bounded queues with TTL expiry, filtered reads with
// optional drain, broadcast, and reply.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// DefaultMaxQueue is the per-inbox message cap.
const DefaultMaxQueue = 1000

// Directory lists the ids of currently discoverable agents, excluding the
// caller. The discovery registry satisfies this.
type Directory interface {
	AgentIDs(ctx context.Context) ([]string, error)
}

// CheckOptions filters a Check call. The zero value drains the whole inbox.
type CheckOptions struct {
	// Type keeps only messages of the given type when non-empty.
	Type types.MessageType

	// From keeps only messages from the given sender when non-empty.
	From string

	// Peek leaves the inbox untouched instead of draining. Filtered-out
	// messages are never consumed either way; expired messages are removed
	// only when draining.
	Peek bool
}

// Channel is one agent's view of the messaging substrate.
type Channel struct {
	agentID   string
	messages  store.DocumentStore
	directory Directory
	maxQueue  int
	logger    *zap.Logger
}

// NewChannel creates a messaging channel for the given agent. maxQueue
// falls back to DefaultMaxQueue when not positive; directory may be nil if
// Broadcast is never used.
func NewChannel(agentID string, messages store.DocumentStore, directory Directory, maxQueue int, logger *zap.Logger) *Channel {
	if maxQueue <= 0 {
		maxQueue = DefaultMaxQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		agentID:   agentID,
		messages:  messages,
		directory: directory,
		maxQueue:  maxQueue,
		logger:    logger.With(zap.String("component", "channel"), zap.String("agent_id", agentID)),
	}
}

// Send delivers the message to the recipient's inbox and returns the message
// id. ToAgent is required; FromAgent is always stamped with the sender's
// identity. When the inbox is at capacity, expired entries are dropped
// first, then the oldest live entries: the newest message is always
// admitted.
func (c *Channel) Send(ctx context.Context, msg *types.Message) (string, error) {
	if msg == nil {
		return "", types.NewError(types.ErrCodeInvalidArgument, "message is nil")
	}
	if msg.ToAgent == "" {
		return "", types.NewError(types.ErrCodeInvalidArgument, "message to_agent is required")
	}

	msg.FromAgent = c.agentID
	msg.Normalize()

	err := c.messages.Mutate(ctx, func(doc store.Document) error {
		inbox := loadInbox(doc, msg.ToAgent)

		if len(inbox) >= c.maxQueue {
			live := inbox[:0]
			for _, m := range inbox {
				if !m.IsExpired() {
					live = append(live, m)
				}
			}
			inbox = live
			if len(inbox) >= c.maxQueue {
				evicted := len(inbox) - c.maxQueue + 1
				inbox = inbox[evicted:]
				c.logger.Warn("inbox at capacity, evicting oldest messages",
					zap.String("to_agent", msg.ToAgent),
					zap.Int("evicted", evicted),
				)
			}
		}

		inbox = append(inbox, msg)
		return doc.Set(msg.ToAgent, inbox)
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return msg.MessageID, nil
}

// Check reads the caller's inbox. Messages failing a filter stay queued for
// a future read; expired messages are never returned and are removed when
// draining. Draining removes returned messages, so an immediate second call
// with the same filters returns nothing.
func (c *Channel) Check(ctx context.Context, opts CheckOptions) ([]*types.Message, error) {
	var results []*types.Message

	split := func(inbox []*types.Message) (matched, remaining []*types.Message) {
		for _, m := range inbox {
			if m.IsExpired() {
				continue
			}
			if opts.Type != "" && m.MessageType != opts.Type {
				remaining = append(remaining, m)
				continue
			}
			if opts.From != "" && m.FromAgent != opts.From {
				remaining = append(remaining, m)
				continue
			}
			matched = append(matched, m)
		}
		return matched, remaining
	}

	if opts.Peek {
		doc, err := c.messages.Load(ctx)
		if err != nil {
			return nil, err
		}
		results, _ = split(loadInbox(doc, c.agentID))
		return results, nil
	}

	err := c.messages.Mutate(ctx, func(doc store.Document) error {
		matched, remaining := split(loadInbox(doc, c.agentID))
		results = matched
		return doc.Set(c.agentID, remaining)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check messages: %w", err)
	}
	return results, nil
}

// Broadcast sends one broadcast-typed message to every discoverable agent
// except the caller and returns the generated message ids.
func (c *Channel) Broadcast(ctx context.Context, subject string, body map[string]any) ([]string, error) {
	if c.directory == nil {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "channel has no directory for broadcast")
	}

	ids, err := c.directory.AgentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}

	messageIDs := make([]string, 0, len(ids))
	for _, agentID := range ids {
		mid, err := c.Send(ctx, types.NewMessage(agentID, types.MessageTypeBroadcast, subject, body))
		if err != nil {
			return messageIDs, err
		}
		messageIDs = append(messageIDs, mid)
	}

	c.logger.Debug("broadcast sent", zap.String("subject", subject), zap.Int("recipients", len(messageIDs)))
	return messageIDs, nil
}

// Reply sends a response-typed message back to the original sender, with the
// subject prefixed "Re: " and reply_to set to the original id.
func (c *Channel) Reply(ctx context.Context, original *types.Message, body map[string]any) (string, error) {
	if original == nil {
		return "", types.NewError(types.ErrCodeInvalidArgument, "original message is nil")
	}

	reply := types.NewMessage(original.FromAgent, types.MessageTypeResponse, "Re: "+original.Subject, body)
	reply.ReplyTo = original.MessageID
	return c.Send(ctx, reply)
}

// SweepExpired removes expired messages from every inbox, not just the
// caller's, and returns the number removed.
func (c *Channel) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	err := c.messages.Mutate(ctx, func(doc store.Document) error {
		removed = 0
		for agentID := range doc {
			inbox := loadInbox(doc, agentID)
			live := make([]*types.Message, 0, len(inbox))
			for _, m := range inbox {
				if m.IsExpired() {
					removed++
					continue
				}
				live = append(live, m)
			}
			if err := doc.Set(agentID, live); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// loadInbox decodes one recipient's inbox. Absent or malformed inboxes load
// as empty, favoring availability over strict error visibility.
func loadInbox(doc store.Document, agentID string) []*types.Message {
	var inbox []*types.Message
	if err := doc.Get(agentID, &inbox); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return inbox
}
