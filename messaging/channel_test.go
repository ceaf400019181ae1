package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// staticDirectory is a fixed list of broadcast recipients.
type staticDirectory []string

func (d staticDirectory) AgentIDs(ctx context.Context) ([]string, error) {
	return d, nil
}

func TestChannel_SendAndCheck(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 0, nil)
	bob := NewChannel("bob", messages, nil, 0, nil)

	t.Run("DeliverToRecipient", func(t *testing.T) {
		id, err := alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "Hello", map[string]any{"x": 1}))
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if id == "" {
			t.Fatal("expected a message id")
		}

		got, err := bob.Check(ctx, CheckOptions{})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 message, got %d", len(got))
		}
		if got[0].FromAgent != "alice" || got[0].Subject != "Hello" {
			t.Errorf("unexpected message: from=%s subject=%s", got[0].FromAgent, got[0].Subject)
		}
	})

	t.Run("DrainIsIdempotent", func(t *testing.T) {
		got, err := bob.Check(ctx, CheckOptions{})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("second drain should return nothing, got %d", len(got))
		}
	})

	t.Run("PeekLeavesInbox", func(t *testing.T) {
		alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "peek me", nil))

		first, err := bob.Check(ctx, CheckOptions{Peek: true})
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		second, _ := bob.Check(ctx, CheckOptions{Peek: true})
		if len(first) != 1 || len(second) != 1 {
			t.Errorf("peek must not consume: first=%d second=%d", len(first), len(second))
		}

		// Draining afterwards still sees the message.
		drained, _ := bob.Check(ctx, CheckOptions{})
		if len(drained) != 1 {
			t.Errorf("drain after peek should return the message, got %d", len(drained))
		}
	})

	t.Run("FilteredOutMessagesStayQueued", func(t *testing.T) {
		alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "req", nil))
		alice.Send(ctx, types.NewMessage("bob", types.MessageTypeBroadcast, "news", nil))

		reqs, err := bob.Check(ctx, CheckOptions{Type: types.MessageTypeRequest})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if len(reqs) != 1 || reqs[0].Subject != "req" {
			t.Fatalf("expected just the request, got %d", len(reqs))
		}

		// The broadcast is still waiting.
		rest, _ := bob.Check(ctx, CheckOptions{})
		if len(rest) != 1 || rest[0].Subject != "news" {
			t.Errorf("filtered-out broadcast should remain, got %d", len(rest))
		}
	})

	t.Run("FilterByFrom", func(t *testing.T) {
		carol := NewChannel("carol", messages, nil, 0, nil)
		alice.Send(ctx, types.NewMessage("carol", types.MessageTypeRequest, "from alice", nil))
		bob.Send(ctx, types.NewMessage("carol", types.MessageTypeRequest, "from bob", nil))

		got, err := carol.Check(ctx, CheckOptions{From: "alice"})
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if len(got) != 1 || got[0].FromAgent != "alice" {
			t.Errorf("expected only alice's message, got %d", len(got))
		}
	})

	t.Run("RejectsMissingRecipient", func(t *testing.T) {
		if _, err := alice.Send(ctx, &types.Message{Subject: "nowhere"}); !types.IsInvalidArgument(err) {
			t.Errorf("expected INVALID_ARGUMENT, got %v", err)
		}
		if _, err := alice.Send(ctx, nil); !types.IsInvalidArgument(err) {
			t.Errorf("expected INVALID_ARGUMENT for nil message, got %v", err)
		}
	})

	t.Run("SenderIsStamped", func(t *testing.T) {
		msg := types.NewMessage("bob", types.MessageTypeRequest, "spoof", nil)
		msg.FromAgent = "mallory"
		alice.Send(ctx, msg)

		got, _ := bob.Check(ctx, CheckOptions{})
		if len(got) != 1 || got[0].FromAgent != "alice" {
			t.Error("from_agent must always be the actual sender")
		}
	})
}

func TestChannel_QueueCap(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 3, nil)
	bob := NewChannel("bob", messages, nil, 3, nil)

	for i, subject := range []string{"one", "two", "three", "four"} {
		if _, err := alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, subject, nil)); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	got, err := bob.Check(ctx, CheckOptions{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected capped inbox of 3, got %d", len(got))
	}
	// Oldest evicted, newest admitted.
	if got[0].Subject != "two" || got[2].Subject != "four" {
		t.Errorf("expected [two three four], got [%s %s %s]", got[0].Subject, got[1].Subject, got[2].Subject)
	}
}

func TestChannel_ExpiredDroppedBeforeLive(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 2, nil)
	bob := NewChannel("bob", messages, nil, 2, nil)

	expired := types.NewMessage("bob", types.MessageTypeRequest, "stale", nil)
	expired.Timestamp = types.FormatStamp(time.Now().Add(-2 * time.Hour))
	alice.Send(ctx, expired)
	alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "live", nil))

	// Inbox is at cap; the expired message goes first, the live one stays.
	alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "newest", nil))

	got, _ := bob.Check(ctx, CheckOptions{})
	if len(got) != 2 {
		t.Fatalf("expected 2 live messages, got %d", len(got))
	}
	if got[0].Subject != "live" || got[1].Subject != "newest" {
		t.Errorf("expected [live newest], got [%s %s]", got[0].Subject, got[1].Subject)
	}
}

func TestChannel_ExpiredNeverReturned(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 0, nil)
	bob := NewChannel("bob", messages, nil, 0, nil)

	expired := types.NewMessage("bob", types.MessageTypeRequest, "stale", nil)
	expired.Timestamp = types.FormatStamp(time.Now().Add(-2 * time.Hour))
	alice.Send(ctx, expired)

	got, err := bob.Check(ctx, CheckOptions{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expired messages must not be returned, got %d", len(got))
	}
}

func TestChannel_Broadcast(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, staticDirectory{"bob", "carol"}, 0, nil)
	bob := NewChannel("bob", messages, nil, 0, nil)
	carol := NewChannel("carol", messages, nil, 0, nil)

	ids, err := alice.Broadcast(ctx, "network update", map[string]any{"version": 2})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 message ids, got %d", len(ids))
	}

	for _, ch := range []*Channel{bob, carol} {
		got, _ := ch.Check(ctx, CheckOptions{})
		if len(got) != 1 || got[0].MessageType != types.MessageTypeBroadcast {
			t.Errorf("expected one broadcast in each inbox")
		}
	}
}

func TestChannel_BroadcastWithoutDirectory(t *testing.T) {
	alice := NewChannel("alice", store.NewMemoryDocumentStore(), nil, 0, nil)
	if _, err := alice.Broadcast(context.Background(), "x", nil); !types.IsInvalidArgument(err) {
		t.Errorf("expected INVALID_ARGUMENT without a directory, got %v", err)
	}
}

func TestChannel_Reply(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 0, nil)
	bob := NewChannel("bob", messages, nil, 0, nil)

	alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "Need a review", nil))
	received, _ := bob.Check(ctx, CheckOptions{})

	if _, err := bob.Reply(ctx, received[0], map[string]any{"ok": true}); err != nil {
		t.Fatalf("reply: %v", err)
	}

	replies, _ := alice.Check(ctx, CheckOptions{})
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(replies))
	}
	r := replies[0]
	if r.MessageType != types.MessageTypeResponse {
		t.Errorf("expected response type, got %s", r.MessageType)
	}
	if r.Subject != "Re: Need a review" {
		t.Errorf("expected 'Re: ' subject, got %q", r.Subject)
	}
	if r.ReplyTo != received[0].MessageID {
		t.Error("reply_to must reference the original message id")
	}
}

func TestChannel_SweepExpired(t *testing.T) {
	ctx := context.Background()
	messages := store.NewMemoryDocumentStore()

	alice := NewChannel("alice", messages, nil, 0, nil)

	stale := types.NewMessage("bob", types.MessageTypeRequest, "old", nil)
	stale.Timestamp = types.FormatStamp(time.Now().Add(-2 * time.Hour))
	alice.Send(ctx, stale)
	alice.Send(ctx, types.NewMessage("bob", types.MessageTypeRequest, "new", nil))
	alice.Send(ctx, types.NewMessage("carol", types.MessageTypeRequest, "hi", nil))

	removed, err := alice.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed message, got %d", removed)
	}

	// Live messages survive the sweep across all inboxes.
	bob := NewChannel("bob", messages, nil, 0, nil)
	carol := NewChannel("carol", messages, nil, 0, nil)
	bobMsgs, _ := bob.Check(ctx, CheckOptions{})
	carolMsgs, _ := carol.Check(ctx, CheckOptions{})
	if len(bobMsgs) != 1 || len(carolMsgs) != 1 {
		t.Errorf("expected live messages to survive: bob=%d carol=%d", len(bobMsgs), len(carolMsgs))
	}
}
