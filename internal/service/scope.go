package service

import (
	"context"
	"errors"
	"sync"

	"github.com/finsible/sync-core/internal/logger"
)

// ErrScopeClosed is returned by Go after Shutdown.
var ErrScopeClosed = errors.New("scope closed")

// Scope owns the lifetime of background sync work. All tasks started
// through Go share one cancellable context; Reset cancels the current
// generation, waits for it to finish, and opens a fresh one. Used on
// sign-out so no task of the old session outlives it.
type Scope struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
	closed bool

	logger *logger.Logger
}

func NewScope(log *logger.Logger) *Scope {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scope{
		ctx:    ctx,
		cancel: cancel,
		wg:     &sync.WaitGroup{},
		logger: log,
	}
}

// TaskHandle lets callers wait for one task started via Go.
type TaskHandle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the task returns and reports its error.
func (h *TaskHandle) Wait() error {
	<-h.done
	return h.err
}

// Go runs fn on the current generation's context. The returned handle
// resolves when fn returns; fn must honor ctx cancellation to keep
// Reset and Shutdown prompt.
func (s *Scope) Go(name string, fn func(ctx context.Context) error) (*TaskHandle, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrScopeClosed
	}
	ctx := s.ctx
	wg := s.wg
	wg.Add(1)
	s.mu.Unlock()

	handle := &TaskHandle{done: make(chan struct{})}

	go func() {
		defer wg.Done()
		defer close(handle.done)

		err := fn(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Err(err).Str("task", name).Msg("background task failed")
		}
		handle.err = err
	}()

	return handle, nil
}

// Reset cancels every task of the current generation, waits for them
// to finish, and opens a new generation. Tasks started after Reset
// returns are unaffected by the old cancellation.
func (s *Scope) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	wg := s.wg

	ctx, newCancel := context.WithCancel(context.Background())
	s.ctx = ctx
	s.cancel = newCancel
	s.wg = &sync.WaitGroup{}
	s.mu.Unlock()

	cancel()
	wg.Wait()
	s.logger.Debug().Msg("scope reset, previous generation drained")
}

// Shutdown cancels the current generation and waits for it. The scope
// accepts no further tasks.
func (s *Scope) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	wg := s.wg
	s.mu.Unlock()

	cancel()
	wg.Wait()
}

// Context returns the current generation's context, for callers that
// need to derive their own short-lived contexts from the scope.
func (s *Scope) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
