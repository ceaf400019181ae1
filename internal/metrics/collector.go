// Package metrics provides internal prometheus collectors for coordination
// operations. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector counts coordination-layer operations.
type Collector struct {
	messagesSent       prometheus.Counter
	messagesBroadcast  prometheus.Counter
	ordersCreated      prometheus.Counter
	ordersFulfilled    *prometheus.CounterVec
	knowledgePublished prometheus.Counter
	expiredSwept       *prometheus.CounterVec
}

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// DefaultCollector returns the process-wide collector on the default
// prometheus registry, creating it on first use. The namespace of the first
// call sticks; counters can only be registered once per process.
func DefaultCollector(namespace string) *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector(namespace, prometheus.DefaultRegisterer)
	})
	return defaultCollector
}

// NewCollector creates a collector registered on reg. A nil registerer uses
// the default prometheus registry; prefer DefaultCollector in that case so
// repeated construction does not panic on duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total messages delivered to agent inboxes.",
		}),
		messagesBroadcast: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Total broadcast operations.",
		}),
		ordersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total marketplace orders placed.",
		}),
		ordersFulfilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_fulfilled_total",
			Help:      "Total marketplace orders moved to a terminal status.",
		}, []string{"status"}),
		knowledgePublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_published_total",
			Help:      "Total knowledge entries published (including merges).",
		}),
		expiredSwept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_swept_total",
			Help:      "Total expired records removed by cleanup sweeps.",
		}, []string{"kind"}),
	}
}

// MessageSent records one delivered message.
func (c *Collector) MessageSent() {
	if c == nil {
		return
	}
	c.messagesSent.Inc()
}

// Broadcast records one broadcast operation.
func (c *Collector) Broadcast() {
	if c == nil {
		return
	}
	c.messagesBroadcast.Inc()
}

// OrderCreated records one placed order.
func (c *Collector) OrderCreated() {
	if c == nil {
		return
	}
	c.ordersCreated.Inc()
}

// OrderFulfilled records one terminal order transition.
func (c *Collector) OrderFulfilled(status string) {
	if c == nil {
		return
	}
	c.ordersFulfilled.WithLabelValues(status).Inc()
}

// KnowledgePublished records one knowledge publish.
func (c *Collector) KnowledgePublished() {
	if c == nil {
		return
	}
	c.knowledgePublished.Inc()
}

// ExpiredSwept records removed expired records of the given kind.
func (c *Collector) ExpiredSwept(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.expiredSwept.WithLabelValues(kind).Add(float64(n))
}
