package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/homeward/settlement-backend/pkg/logger"
)

const defaultSendTimeout = 10 * time.Second

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Dispatcher sends committed notifications in the background. Delivery
// failures are logged and never reach the caller.
type Dispatcher struct {
	sender  Sender
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, logg *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logg: logg, timeout: defaultSendTimeout}
}

// Dispatch fires every notification in the batch without waiting.
func (d *Dispatcher) Dispatch(ctx context.Context, batch *Batch) {
	if d == nil || d.sender == nil || batch.Len() == 0 {
		return
	}
	// request contexts are cancelled once the handler returns
	base := context.WithoutCancel(ctx)
	for _, n := range batch.Items() {
		d.wg.Add(1)
		go func(n Notification) {
			defer d.wg.Done()
			sendCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()
			if err := d.sender.Send(sendCtx, n); err != nil && d.logg != nil {
				logCtx := d.logg.WithField(sendCtx, "notification_action", n.Action)
				d.logg.Error(logCtx, "notification dispatch failed", err)
			}
		}(n)
	}
}

// Wait blocks until in-flight sends finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
