package network

import (
	"context"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/messaging"
	"github.com/wisent-ai/agentnet/types"
)

// OnMessage registers a handler for one message type. Registering again for
// the same type replaces the previous handler. Handlers run during
// DispatchMessages, not on arrival.
func (n *Network) OnMessage(msgType types.MessageType, handler Handler) {
	n.handlers[msgType] = handler
}

// DispatchMessages drains the inbox for every registered message type and
// invokes the matching handlers, returning the number of messages handled.
// A handler error is logged and the message is dropped; handlers that need
// retries should requeue explicitly.
func (n *Network) DispatchMessages(ctx context.Context) (int, error) {
	handled := 0
	for msgType, handler := range n.handlers {
		msgs, err := n.channel.Check(ctx, messaging.CheckOptions{Type: msgType})
		if err != nil {
			return handled, err
		}
		for _, msg := range msgs {
			if err := handler(ctx, msg); err != nil {
				n.logger.Warn("message handler failed",
					zap.String("message_id", msg.MessageID),
					zap.String("message_type", string(msg.MessageType)),
					zap.Error(err),
				)
				continue
			}
			handled++
		}
	}
	return handled, nil
}
