package network

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CleanupReport counts what a cleanup pass removed.
type CleanupReport struct {
	MessagesRemoved  int `json:"messages_removed"`
	KnowledgeRemoved int `json:"knowledge_removed"`
}

// CleanupExpired removes expired messages from every inbox and expired
// knowledge entries. The two sweeps target independent documents and run
// concurrently.
func (n *Network) CleanupExpired(ctx context.Context) (*CleanupReport, error) {
	report := &CleanupReport{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		removed, err := n.channel.SweepExpired(ctx)
		if err != nil {
			return err
		}
		report.MessagesRemoved = removed
		return nil
	})
	g.Go(func() error {
		removed, err := n.base.SweepExpired(ctx)
		if err != nil {
			return err
		}
		report.KnowledgeRemoved = removed
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n.collector.ExpiredSwept("messages", report.MessagesRemoved)
	n.collector.ExpiredSwept("knowledge", report.KnowledgeRemoved)

	if report.MessagesRemoved > 0 || report.KnowledgeRemoved > 0 {
		n.logger.Info("cleanup pass finished",
			zap.Int("messages_removed", report.MessagesRemoved),
			zap.Int("knowledge_removed", report.KnowledgeRemoved),
		)
	}
	return report, nil
}
