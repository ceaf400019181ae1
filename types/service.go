package types

import "github.com/google/uuid"

// ServiceStatus is the lifecycle status of a published service.
type ServiceStatus string

const (
	ServiceStatusActive  ServiceStatus = "active"
	ServiceStatusPaused  ServiceStatus = "paused"
	ServiceStatusRetired ServiceStatus = "retired"
)

// PricingModel tags how a service's price is applied.
type PricingModel string

const (
	PricingModelFixed   PricingModel = "fixed"
	PricingModelPerUnit PricingModel = "per_unit"
	PricingModelHourly  PricingModel = "hourly"
)

// DefaultSLAMinutes is the delivery SLA applied to listings that do not set one.
const DefaultSLAMinutes = 60

// ServiceListing is a service published to the marketplace. AgentID is set
// by the marketplace at publish time, never by the caller. TotalOrders and
// TotalRevenue are the only fields the marketplace mutates after publish.
type ServiceListing struct {
	ServiceID     string        `json:"service_id"`
	AgentID       string        `json:"agent_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	SkillID       string        `json:"skill_id"`
	Action        string        `json:"action"`
	Price         float64       `json:"price"`
	PricingModel  PricingModel  `json:"pricing_model"`
	EstimatedCost float64       `json:"estimated_cost"`
	SLAMinutes    int           `json:"sla_minutes"`
	Tags          []string      `json:"tags,omitempty"`
	Status        ServiceStatus `json:"status"`
	CreatedAt     string        `json:"created_at"`
	TotalOrders   int           `json:"total_orders"`
	TotalRevenue  float64       `json:"total_revenue"`
}

// Normalize fills generated and defaulted fields that are absent.
func (s *ServiceListing) Normalize() {
	if s.ServiceID == "" {
		s.ServiceID = uuid.New().String()
	}
	if s.CreatedAt == "" {
		s.CreatedAt = NowStamp()
	}
	if s.PricingModel == "" {
		s.PricingModel = PricingModelFixed
	}
	if s.Status == "" {
		s.Status = ServiceStatusActive
	}
	if s.SLAMinutes == 0 {
		s.SLAMinutes = DefaultSLAMinutes
	}
}

// ProfitMargin returns (price − cost) / price, or 0 when price is not positive.
func (s *ServiceListing) ProfitMargin() float64 {
	if s.Price <= 0 {
		return 0
	}
	return (s.Price - s.EstimatedCost) / s.Price
}
