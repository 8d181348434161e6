package service

import (
	"context"
	"fmt"

	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// Authenticator answers whether a usable session is present.
// Satisfied by session.Manager.
type Authenticator interface {
	IsAuthenticated() bool
}

// PostAuthInitializer runs the sync pipeline that follows a successful
// sign-in or app launch with a restored session: populate the local
// cache, replay the queue, verify counts against the server, and
// repair any divergence by refetching the affected kinds.
type PostAuthInitializer struct {
	auth     Authenticator
	fetcher  *DataFetcher
	driver   *Driver
	checker  *IntegrityChecker
	handlers *Handlers
	notices  *watch.Value[models.Notice]
	logger   *logger.Logger
}

func NewPostAuthInitializer(
	auth Authenticator,
	fetcher *DataFetcher,
	driver *Driver,
	checker *IntegrityChecker,
	handlers *Handlers,
	log *logger.Logger,
) *PostAuthInitializer {
	return &PostAuthInitializer{
		auth:     auth,
		fetcher:  fetcher,
		driver:   driver,
		checker:  checker,
		handlers: handlers,
		notices:  watch.NewValue(models.Notice{}),
		logger:   log,
	}
}

// Notices exposes repair notifications as an observable.
func (p *PostAuthInitializer) Notices() *watch.Value[models.Notice] { return p.notices }

// Run executes the post-auth pipeline. Without an authenticated
// session it is a no-op: nothing here is worth doing anonymously.
func (p *PostAuthInitializer) Run(ctx context.Context) error {
	if !p.auth.IsAuthenticated() {
		p.logger.Debug().Msg("post-auth initialization skipped: not authenticated")
		return nil
	}

	p.fetcher.EnsureDataFetched(ctx)

	if err := p.driver.Drain(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn().Err(err).Msg("queue drain incomplete during initialization")
	}

	report, err := p.checker.VerifyAll(ctx)
	if err != nil {
		return fmt.Errorf("verify integrity: %w", err)
	}

	if report.CanResolve() {
		p.resolveDiscrepancies(ctx, report)
	}
	return nil
}

// resolveDiscrepancies refetches every diverged kind from the server.
// The server state is authoritative, so replacing the cached rows is
// both the cheapest and the correct repair.
func (p *PostAuthInitializer) resolveDiscrepancies(ctx context.Context, report models.IntegrityReport) {
	repaired := 0
	for _, entityType := range report.MismatchedKinds() {
		handler, err := p.handlers.ForType(entityType)
		if err != nil {
			p.logger.Err(err).Msg("cannot repair unknown entity kind")
			continue
		}
		if err := handler.Refetch(ctx); err != nil {
			p.logger.Warn().Err(err).Str("entity_type", string(entityType)).Msg("repair refetch failed")
			continue
		}
		repaired++
	}

	if repaired > 0 {
		p.notices.Set(models.Notice{
			Title: "Data refreshed",
			Body:  "Some of your data was out of date and has been refreshed from the server.",
		})
	}
}
