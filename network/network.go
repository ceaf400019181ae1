// Package network provides the coordination facade: a per-identity session
// object composing registration, discovery, messaging, the marketplace, and
// the knowledge base over five shared document stores.
//
// A Network is instantiated once per agent identity. No call blocks on
// another agent's process; coordination happens only through the shared
// stores' read-modify-write cycles.
package network

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wisent-ai/agentnet/config"
	"github.com/wisent-ai/agentnet/discovery"
	"github.com/wisent-ai/agentnet/internal/metrics"
	"github.com/wisent-ai/agentnet/knowledge"
	"github.com/wisent-ai/agentnet/marketplace"
	"github.com/wisent-ai/agentnet/messaging"
	"github.com/wisent-ai/agentnet/store"
	"github.com/wisent-ai/agentnet/types"
)

// Document names of the five independent store partitions.
const (
	agentsDocument    = "agents"
	messagesDocument  = "messages"
	marketDocument    = "marketplace"
	ordersDocument    = "orders"
	knowledgeDocument = "knowledge_store"
)

// Handler processes one received message during DispatchMessages.
type Handler func(ctx context.Context, msg *types.Message) error

// Option configures a Network beyond its Config.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
}

// WithMetricsRegisterer registers operation metrics on reg instead of the
// default prometheus registry. Useful for tests and embedded setups.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// Network is one agent's session on the coordination substrate.
type Network struct {
	identity types.AgentIdentity
	cfg      *config.Config
	logger   *zap.Logger

	factory  *store.Factory
	registry *discovery.Registry
	channel  *messaging.Channel
	market   *marketplace.Market
	base     *knowledge.Base

	collector *metrics.Collector
	handlers  map[types.MessageType]Handler
}

// New creates a coordination session for the given identity. A nil cfg uses
// config.DefaultConfig; a nil logger disables logging.
func New(identity types.AgentIdentity, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Network, error) {
	if identity.AgentID == "" {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "identity agent_id is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("agent_id", identity.AgentID))

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	factory := store.NewFactory(cfg.Store, logger)
	open := func(name string) (store.DocumentStore, error) {
		s, err := factory.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", name, err)
		}
		return s, nil
	}

	agents, err := open(agentsDocument)
	if err != nil {
		return nil, err
	}
	messagesStore, err := open(messagesDocument)
	if err != nil {
		return nil, err
	}
	market, err := open(marketDocument)
	if err != nil {
		return nil, err
	}
	orders, err := open(ordersDocument)
	if err != nil {
		return nil, err
	}
	knowledgeStore, err := open(knowledgeDocument)
	if err != nil {
		return nil, err
	}

	matcher := discovery.NewMatcher(cfg.Discovery.MatchThreshold, logger)
	registry := discovery.NewRegistry(identity, agents, matcher, logger)
	channel := messaging.NewChannel(identity.AgentID, messagesStore, registry, cfg.Messaging.MaxQueue, logger)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		if o.registerer != nil {
			collector = metrics.NewCollector(cfg.Metrics.Namespace, o.registerer)
		} else {
			collector = metrics.DefaultCollector(cfg.Metrics.Namespace)
		}
	}

	return &Network{
		identity:  identity,
		cfg:       cfg,
		logger:    logger,
		factory:   factory,
		registry:  registry,
		channel:   channel,
		market:    marketplace.NewMarket(identity.AgentID, market, orders, channel, logger),
		base:      knowledge.NewBase(identity.AgentID, knowledgeStore, logger),
		collector: collector,
		handlers:  make(map[types.MessageType]Handler),
	}, nil
}

// Identity returns the session's agent identity.
func (n *Network) Identity() types.AgentIdentity {
	return n.identity
}

// Close releases the underlying store resources.
func (n *Network) Close() error {
	return n.factory.Close()
}

// ============================================================
// Registration & discovery
// ============================================================

// Register publishes this agent's capability manifest. See
// [discovery.Registry.Register].
func (n *Network) Register(ctx context.Context, manifest *types.AgentManifest) (*types.AgentManifest, error) {
	return n.registry.Register(ctx, manifest)
}

// Heartbeat refreshes this agent's liveness record.
func (n *Network) Heartbeat(ctx context.Context) error {
	return n.registry.Heartbeat(ctx)
}

// DiscoverAgents returns the manifests of other agents passing the filters.
// When the options leave StaleThreshold unset, the session's configured
// discovery threshold applies.
func (n *Network) DiscoverAgents(ctx context.Context, opts discovery.DiscoverOptions) ([]*types.AgentManifest, error) {
	if opts.StaleThreshold <= 0 {
		opts.StaleThreshold = n.cfg.Discovery.StaleThreshold
	}
	return n.registry.Discover(ctx, opts)
}

// FindAgentForTask matches a task description against every discovered
// agent's capabilities, globally sorted by score.
func (n *Network) FindAgentForTask(ctx context.Context, taskDescription string) ([]discovery.TaskMatch, error) {
	return n.registry.FindAgentForTask(ctx, taskDescription)
}

// ============================================================
// Messaging
// ============================================================

// SendMessage delivers a message to another agent's inbox.
func (n *Network) SendMessage(ctx context.Context, msg *types.Message) (string, error) {
	id, err := n.channel.Send(ctx, msg)
	if err == nil {
		n.collector.MessageSent()
	}
	return id, err
}

// CheckMessages reads this agent's inbox. See [messaging.Channel.Check].
func (n *Network) CheckMessages(ctx context.Context, opts messaging.CheckOptions) ([]*types.Message, error) {
	return n.channel.Check(ctx, opts)
}

// Broadcast sends a broadcast message to every discoverable agent.
func (n *Network) Broadcast(ctx context.Context, subject string, body map[string]any) ([]string, error) {
	ids, err := n.channel.Broadcast(ctx, subject, body)
	if err == nil {
		n.collector.Broadcast()
	}
	return ids, err
}

// Reply answers a received message.
func (n *Network) Reply(ctx context.Context, original *types.Message, body map[string]any) (string, error) {
	return n.channel.Reply(ctx, original, body)
}

// ============================================================
// Marketplace
// ============================================================

// PublishService lists a service on the marketplace.
func (n *Network) PublishService(ctx context.Context, listing *types.ServiceListing) (*types.ServiceListing, error) {
	return n.market.Publish(ctx, listing)
}

// ListServices browses the marketplace.
func (n *Network) ListServices(ctx context.Context, opts marketplace.ListOptions) ([]*types.ServiceListing, error) {
	return n.market.List(ctx, opts)
}

// CreateOrder places an order for a service.
func (n *Network) CreateOrder(ctx context.Context, serviceID string, params map[string]any) (*types.ServiceOrder, error) {
	order, err := n.market.CreateOrder(ctx, serviceID, params)
	if err == nil {
		n.collector.OrderCreated()
	}
	return order, err
}

// FulfillOrder completes or fails an order this agent received.
func (n *Network) FulfillOrder(ctx context.Context, orderID string, result map[string]any, errMsg string) (*types.ServiceOrder, error) {
	order, err := n.market.Fulfill(ctx, orderID, result, errMsg)
	if err == nil {
		n.collector.OrderFulfilled(string(order.Status))
	}
	return order, err
}

// GetOrder looks up an order by id.
func (n *Network) GetOrder(ctx context.Context, orderID string) (*types.ServiceOrder, error) {
	return n.market.GetOrder(ctx, orderID)
}

// MyOrders lists orders involving this agent.
func (n *Network) MyOrders(ctx context.Context, asCustomer bool, status types.OrderStatus) ([]*types.ServiceOrder, error) {
	return n.market.MyOrders(ctx, asCustomer, status)
}

// ============================================================
// Knowledge
// ============================================================

// PublishKnowledge shares a knowledge entry, merging with identical content.
func (n *Network) PublishKnowledge(ctx context.Context, entry *types.KnowledgeEntry) (*types.KnowledgeEntry, error) {
	stored, err := n.base.Publish(ctx, entry)
	if err == nil {
		n.collector.KnowledgePublished()
	}
	return stored, err
}

// QueryKnowledge searches the shared knowledge base.
func (n *Network) QueryKnowledge(ctx context.Context, opts knowledge.QueryOptions) ([]*types.KnowledgeEntry, error) {
	return n.base.Query(ctx, opts)
}

// EndorseKnowledge endorses an entry, raising its confidence.
func (n *Network) EndorseKnowledge(ctx context.Context, entryID string) (*types.KnowledgeEntry, error) {
	return n.base.Endorse(ctx, entryID)
}

// DisputeKnowledge disputes an entry, lowering its confidence.
func (n *Network) DisputeKnowledge(ctx context.Context, entryID, reason string) (*types.KnowledgeEntry, error) {
	return n.base.Dispute(ctx, entryID, reason)
}
