package network

import (
	"context"

	"github.com/wisent-ai/agentnet/marketplace"
	"github.com/wisent-ai/agentnet/messaging"
	"github.com/wisent-ai/agentnet/types"
)

// Stats summarizes one agent's standing on the network.
type Stats struct {
	AgentID           string  `json:"agent_id"`
	Name              string  `json:"name"`
	ServicesPublished int     `json:"services_published"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalSpent        float64 `json:"total_spent"`
	OrdersPlaced      int     `json:"orders_placed"`
	OrdersReceived    int     `json:"orders_received"`
	PendingMessages   int     `json:"pending_messages"`
}

// MyStats aggregates this agent's marketplace and messaging activity.
// Revenue comes from the agent's active listings; spend counts completed
// orders the agent placed. The pending message count is a peek, leaving the
// inbox untouched.
func (n *Network) MyStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		AgentID: n.identity.AgentID,
		Name:    n.identity.Name,
	}

	services, err := n.market.List(ctx, marketplace.ListOptions{AgentID: n.identity.AgentID})
	if err != nil {
		return nil, err
	}
	stats.ServicesPublished = len(services)
	for _, listing := range services {
		stats.TotalRevenue += listing.TotalRevenue
	}

	placed, err := n.market.MyOrders(ctx, true, "")
	if err != nil {
		return nil, err
	}
	stats.OrdersPlaced = len(placed)
	for _, order := range placed {
		if order.Status == types.OrderStatusCompleted {
			stats.TotalSpent += order.PricePaid
		}
	}

	received, err := n.market.MyOrders(ctx, false, "")
	if err != nil {
		return nil, err
	}
	stats.OrdersReceived = len(received)

	pending, err := n.channel.Check(ctx, messaging.CheckOptions{Peek: true})
	if err != nil {
		return nil, err
	}
	stats.PendingMessages = len(pending)

	return stats, nil
}
