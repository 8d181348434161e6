package service

import (
	"context"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/watch"
)

// ConnectivityObserver turns raw online/offline reports from the
// platform into an observable value and fires a callback on each
// offline-to-online transition. The platform glue calls SetOnline from
// wherever it learns about network changes; duplicate reports of the
// same state are harmless.
type ConnectivityObserver struct {
	online *watch.Value[bool]
	logger *logger.Logger
}

// NewConnectivityObserver starts in the online state: on a fresh
// launch the first drain attempt discovers the truth either way.
func NewConnectivityObserver(log *logger.Logger) *ConnectivityObserver {
	return &ConnectivityObserver{
		online: watch.NewValue(true),
		logger: log,
	}
}

// SetOnline reports the current network state.
func (o *ConnectivityObserver) SetOnline(online bool) {
	o.online.Set(online)
}

// Online exposes the connectivity state as an observable value.
func (o *ConnectivityObserver) Online() *watch.Value[bool] { return o.online }

// IsOnline returns the last reported state.
func (o *ConnectivityObserver) IsOnline() bool { return o.online.Get() }

// Run watches connectivity until ctx is cancelled and invokes onOnline
// on every transition from offline to online. Repeated online reports
// do not re-trigger the callback.
func (o *ConnectivityObserver) Run(ctx context.Context, onOnline func(context.Context)) {
	// prev is captured before subscribing. A report landing in between
	// then arrives as a channel element instead of coalescing into the
	// seeded value, so the transition it carries is never dropped.
	prev := o.online.Get()
	updates, cancel := o.online.Subscribe()
	defer cancel()

	o.watchLoop(ctx, prev, updates, onOnline)
}

func (o *ConnectivityObserver) watchLoop(ctx context.Context, prev bool, updates <-chan bool, onOnline func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case online := <-updates:
			if online && !prev {
				o.logger.Info().Msg("network restored, triggering sync")
				onOnline(ctx)
			}
			prev = online
		}
	}
}
