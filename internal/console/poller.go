package console

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"orderdesk_backend/platform/config"
	"orderdesk_backend/platform/logger"
)

// Poller keeps a console fresh: a slow loop refreshes the order and
// thread lists, a fast loop refetches the open conversation.
type Poller struct {
	console          *Console
	log              *logger.Logger
	listInterval     time.Duration
	messagesInterval time.Duration
}

func NewPoller(console *Console, cfg config.PollingConfig, log *logger.Logger) *Poller {
	return &Poller{
		console:          console,
		log:              log,
		listInterval:     cfg.GetConversationPollInterval(),
		messagesInterval: cfg.GetInboxPollInterval(),
	}
}

// Run polls until the context is cancelled. Individual fetch failures
// are logged and the loop keeps going; a dead backend should not kill
// the console.
func (p *Poller) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(p.listInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := p.console.RefreshConversations(ctx); err != nil {
					p.log.Warn("conversation refresh failed", "error", err.Error())
				}
				if err := p.console.RefreshOrders(ctx); err != nil {
					p.log.Warn("order refresh failed", "error", err.Error())
				}
			}
		}
	})

	group.Go(func() error {
		ticker := time.NewTicker(p.messagesInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := p.console.PollMessages(ctx); err != nil {
					p.log.Warn("message poll failed", "error", err.Error())
				}
			}
		}
	})

	return group.Wait()
}
