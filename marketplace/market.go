// Package marketplace implements the service marketplace: published
// listings, the order lifecycle, and provider statistics.
//
// Orders move directly from pending to completed or failed; the in_progress
// status exists in the vocabulary but no operation produces it. Completion
// adds the order's snapshotted price to the listing's revenue, failure does
// not, while the order counter increments in both cases.
package marketplace

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// servicesKey is the wrapper key inside the marketplace document.
const servicesKey = "services"

// Notifier delivers order notifications to the involved agents. The
// messaging channel satisfies this.
type Notifier interface {
	Send(ctx context.Context, msg *types.Message) (string, error)
}

// ListOptions filters List results. The zero value returns active listings
// from all providers at any price.
type ListOptions struct {
	// Tags keeps only listings whose tag set overlaps.
	Tags []string

	// MaxPrice keeps only listings at or below the given price when set.
	MaxPrice *float64

	// AgentID keeps only listings from the given provider.
	AgentID string

	// Status filters by listing status; empty means active, StatusAny
	// disables the filter.
	Status types.ServiceStatus
}

// StatusAny disables the status filter in ListOptions.
const StatusAny types.ServiceStatus = "any"

// Market is one agent's view of the service marketplace.
type Market struct {
	agentID  string
	services store.DocumentStore
	orders   store.DocumentStore
	notifier Notifier
	logger   *zap.Logger
}

// NewMarket creates a marketplace client for the given agent. notifier may
// be nil, in which case order notifications are skipped.
func NewMarket(agentID string, services, orders store.DocumentStore, notifier Notifier, logger *zap.Logger) *Market {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Market{
		agentID:  agentID,
		services: services,
		orders:   orders,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "marketplace"), zap.String("agent_id", agentID)),
	}
}

// Publish adds the listing to the marketplace, force-setting the provider to
// the caller. Existing listings are never merged or deleted.
func (m *Market) Publish(ctx context.Context, listing *types.ServiceListing) (*types.ServiceListing, error) {
	if listing == nil {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "listing is nil")
	}

	listing.AgentID = m.agentID
	listing.Normalize()

	err := m.services.Mutate(ctx, func(doc store.Document) error {
		services := loadServices(doc)
		services[listing.ServiceID] = listing
		return doc.Set(servicesKey, services)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish service: %w", err)
	}

	m.logger.Info("service published",
		zap.String("service_id", listing.ServiceID),
		zap.String("name", listing.Name),
		zap.Float64("price", listing.Price),
	)
	return listing, nil
}

// List returns the listings passing all supplied filters. The tag filter
// passes when any tag overlaps.
func (m *Market) List(ctx context.Context, opts ListOptions) ([]*types.ServiceListing, error) {
	doc, err := m.services.Load(ctx)
	if err != nil {
		return nil, err
	}

	status := opts.Status
	if status == "" {
		status = types.ServiceStatusActive
	}

	var results []*types.ServiceListing
	for _, listing := range loadServices(doc) {
		if status != StatusAny && listing.Status != status {
			continue
		}
		if opts.AgentID != "" && listing.AgentID != opts.AgentID {
			continue
		}
		if opts.MaxPrice != nil && listing.Price > *opts.MaxPrice {
			continue
		}
		if len(opts.Tags) > 0 && !anyOverlap(opts.Tags, listing.Tags) {
			continue
		}
		results = append(results, listing)
	}
	return results, nil
}

// CreateOrder places a pending order for the service, snapshotting the
// listing's current price into price_paid, and notifies the provider.
func (m *Market) CreateOrder(ctx context.Context, serviceID string, params map[string]any) (*types.ServiceOrder, error) {
	doc, err := m.services.Load(ctx)
	if err != nil {
		return nil, err
	}

	listing, ok := loadServices(doc)[serviceID]
	if !ok {
		return nil, types.NewErrorf(types.ErrCodeNotFound, "service %q not found", serviceID)
	}

	order := &types.ServiceOrder{
		ServiceID:       serviceID,
		CustomerAgentID: m.agentID,
		ProviderAgentID: listing.AgentID,
		Params:          params,
		PricePaid:       listing.Price,
	}
	order.Normalize()

	err = m.orders.Mutate(ctx, func(doc store.Document) error {
		return doc.Set(order.OrderID, order)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	m.notify(ctx, types.NewMessage(listing.AgentID, types.MessageTypeRequest,
		"New order: "+listing.Name,
		map[string]any{
			"order_id":   order.OrderID,
			"service_id": serviceID,
			"params":     params,
		},
	))

	m.logger.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("service_id", serviceID),
		zap.Float64("price_paid", order.PricePaid),
	)
	return order, nil
}

// Fulfill moves the order to its terminal status: failed when errMsg is
// non-empty, completed otherwise. The listing's order counter always
// increments; revenue increases by price_paid only on completion. The
// customer is notified either way.
func (m *Market) Fulfill(ctx context.Context, orderID string, result map[string]any, errMsg string) (*types.ServiceOrder, error) {
	var order *types.ServiceOrder

	err := m.orders.Mutate(ctx, func(doc store.Document) error {
		var o types.ServiceOrder
		if err := doc.Get(orderID, &o); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.NewErrorf(types.ErrCodeNotFound, "order %q not found", orderID)
			}
			return err
		}

		if errMsg != "" {
			o.Status = types.OrderStatusFailed
			o.Error = errMsg
		} else {
			o.Status = types.OrderStatusCompleted
			o.Result = result
		}
		o.CompletedAt = types.NowStamp()

		order = &o
		return doc.Set(orderID, &o)
	})
	if err != nil {
		return nil, err
	}

	// Update provider stats on the listing, if it still exists.
	err = m.services.Mutate(ctx, func(doc store.Document) error {
		services := loadServices(doc)
		listing, ok := services[order.ServiceID]
		if !ok {
			return nil
		}
		listing.TotalOrders++
		if order.Status == types.OrderStatusCompleted {
			listing.TotalRevenue += order.PricePaid
		}
		return doc.Set(servicesKey, services)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update service stats: %w", err)
	}

	subject := "Order completed: " + orderID
	if errMsg != "" {
		subject = "Order failed: " + orderID
	}
	m.notify(ctx, types.NewMessage(order.CustomerAgentID, types.MessageTypeResponse, subject,
		map[string]any{
			"order_id": orderID,
			"status":   order.Status,
			"result":   result,
			"error":    errMsg,
		},
	))

	return order, nil
}

// GetOrder returns the order by id, or a NOT_FOUND error.
func (m *Market) GetOrder(ctx context.Context, orderID string) (*types.ServiceOrder, error) {
	doc, err := m.orders.Load(ctx)
	if err != nil {
		return nil, err
	}

	var order types.ServiceOrder
	if err := doc.Get(orderID, &order); err != nil {
		return nil, types.NewErrorf(types.ErrCodeNotFound, "order %q not found", orderID)
	}
	return &order, nil
}

// MyOrders lists orders involving this agent: those it placed when
// asCustomer is true, those for its services otherwise. An empty status
// matches all.
func (m *Market) MyOrders(ctx context.Context, asCustomer bool, status types.OrderStatus) ([]*types.ServiceOrder, error) {
	doc, err := m.orders.Load(ctx)
	if err != nil {
		return nil, err
	}

	var results []*types.ServiceOrder
	for orderID := range doc {
		var order types.ServiceOrder
		if err := doc.Get(orderID, &order); err != nil {
			continue
		}
		if asCustomer && order.CustomerAgentID != m.agentID {
			continue
		}
		if !asCustomer && order.ProviderAgentID != m.agentID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		results = append(results, &order)
	}
	return results, nil
}

// notify sends an order notification, logging instead of failing the
// operation when delivery is not possible.
func (m *Market) notify(ctx context.Context, msg *types.Message) {
	if m.notifier == nil {
		return
	}
	if _, err := m.notifier.Send(ctx, msg); err != nil {
		m.logger.Warn("order notification failed", zap.String("to_agent", msg.ToAgent), zap.Error(err))
	}
}

// loadServices decodes the services map. Absent or malformed content loads
// as empty.
func loadServices(doc store.Document) map[string]*types.ServiceListing {
	services := make(map[string]*types.ServiceListing)
	if err := doc.Get(servicesKey, &services); err != nil && !errors.Is(err, store.ErrNotFound) {
		return make(map[string]*types.ServiceListing)
	}
	if services == nil {
		services = make(map[string]*types.ServiceListing)
	}
	return services
}

// anyOverlap reports whether the two tag sets share at least one element.
func anyOverlap(want, have []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
