package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/store"
)

type localIDGenerator struct {
	mu      sync.Mutex
	current int64
	loaded  bool

	counters store.CounterRepository
	logger   *logger.Logger
}

// NewLocalIDGenerator returns a generator backed by the persisted
// counter. The first issued id is -1; each subsequent id is one lower.
func NewLocalIDGenerator(counters store.CounterRepository, log *logger.Logger) LocalIDGenerator {
	return &localIDGenerator{counters: counters, logger: log}
}

// Next allocates the following id in the sequence. The new counter
// value is stored before the id is handed out: a crash between the
// two steps can only burn an id, never reissue one.
func (g *localIDGenerator) Next(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.loaded {
		value, err := g.counters.Load(ctx, store.LocalIDCounterName)
		if err != nil {
			return 0, fmt.Errorf("load local id counter: %w", err)
		}
		g.current = value
		g.loaded = true
	}

	next := g.current - 1
	if err := g.counters.Store(ctx, store.LocalIDCounterName, next); err != nil {
		return 0, fmt.Errorf("persist local id counter: %w", err)
	}
	g.current = next

	return next, nil
}
