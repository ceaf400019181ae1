package types

import "github.com/google/uuid"

// OrderStatus is the lifecycle status of a service order.
//
// Note: OrderStatusInProgress and OrderStatusCancelled are part of the wire
// vocabulary for compatibility, but no marketplace operation currently
// produces them; orders move directly from pending to completed or failed.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ServiceOrder is an order placed for a marketplace service. PricePaid is a
// snapshot of the listing's price at order time and never changes afterwards,
// even if the listing is later repriced.
type ServiceOrder struct {
	OrderID         string         `json:"order_id"`
	ServiceID       string         `json:"service_id"`
	CustomerAgentID string         `json:"customer_agent_id"`
	ProviderAgentID string         `json:"provider_agent_id"`
	Params          map[string]any `json:"params,omitempty"`
	Status          OrderStatus    `json:"status"`
	Result          map[string]any `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       string         `json:"created_at"`
	CompletedAt     string         `json:"completed_at,omitempty"`
	PricePaid       float64        `json:"price_paid"`
}

// Normalize fills generated and defaulted fields that are absent.
func (o *ServiceOrder) Normalize() {
	if o.OrderID == "" {
		o.OrderID = uuid.New().String()
	}
	if o.CreatedAt == "" {
		o.CreatedAt = NowStamp()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
}
