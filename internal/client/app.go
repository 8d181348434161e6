// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Finsible

package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsible/sync-core/internal/adapter"
	"github.com/finsible/sync-core/internal/config"
	"github.com/finsible/sync-core/internal/logger"
	"github.com/finsible/sync-core/internal/service"
	"github.com/finsible/sync-core/internal/session"
	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/internal/watch"
	"github.com/finsible/sync-core/models"
)

// App is the assembled sync core.
type App struct {
	cfg    *config.StructuredConfig
	logger *logger.Logger

	storages *store.Storages
	services *adapter.Services
	session  *session.Manager

	localIDs     service.LocalIDGenerator
	handlers     *service.Handlers
	driver       *service.Driver
	resolver     *service.ConflictResolver
	checker      *service.IntegrityChecker
	fetcher      *service.DataFetcher
	connectivity *service.ConnectivityObserver
	initializer  *service.PostAuthInitializer
	scope        *service.Scope
	syncJob      *service.SyncJob
}

func NewApp(cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	sessions := session.NewManager(storages.Session, log)

	httpClient := adapter.NewClient(adapter.HTTPClientConfig{
		BaseURL:          cfg.Remote.BaseURL,
		Timeout:          cfg.Remote.RequestTimeout,
		TransportRetries: cfg.Remote.TransportRetries,
	}, sessions)
	services := adapter.NewServices(httpClient)

	handlers := service.NewHandlers(services, storages, log)
	driver := service.NewDriver(storages.Pending, handlers, cfg.Sync.MaxRowRetries, log)
	checker := service.NewIntegrityChecker(services.Snapshot, storages, log)
	fetcher := service.NewDataFetcher(handlers, storages, log)
	connectivity := service.NewConnectivityObserver(log)
	initializer := service.NewPostAuthInitializer(sessions, fetcher, driver, checker, handlers, log)

	return &App{
		cfg:          cfg,
		logger:       log,
		storages:     storages,
		services:     services,
		session:      sessions,
		localIDs:     service.NewLocalIDGenerator(storages.Counter, log),
		handlers:     handlers,
		driver:       driver,
		resolver:     service.NewConflictResolver(storages.Pending, handlers, log),
		checker:      checker,
		fetcher:      fetcher,
		connectivity: connectivity,
		initializer:  initializer,
		scope:        service.NewScope(log),
		syncJob:      service.NewSyncJob(driver, sessions, connectivity, cfg.Sync.Interval, log),
	}, nil
}

// Start restores a persisted session and launches the background
// work: the periodic sync job, the connectivity watcher, and the
// post-auth pipeline when a session was restored.
func (a *App) Start(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	if _, err := a.scope.Go("sync-job", a.syncJob.Run); err != nil {
		return err
	}
	if _, err := a.scope.Go("connectivity", func(ctx context.Context) error {
		a.connectivity.Run(ctx, func(context.Context) {
			a.drainNow()
		})
		return nil
	}); err != nil {
		return err
	}

	if a.session.IsAuthenticated() {
		if _, err := a.scope.Go("post-auth", a.initializer.Run); err != nil {
			return err
		}
	}
	return nil
}

// SignIn stores the session token and runs the post-auth pipeline in
// the background.
func (a *App) SignIn(ctx context.Context, token string) error {
	if err := a.session.SignIn(ctx, token); err != nil {
		return err
	}
	_, err := a.scope.Go("post-auth", a.initializer.Run)
	return err
}

// SignOut cancels all background work of the current session, waits
// for it to stop, then clears the session. Background jobs are
// restarted for the next sign-in.
func (a *App) SignOut(ctx context.Context) error {
	a.scope.Reset()
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	return a.Start(ctx)
}

// Shutdown stops all background work and closes the local database.
func (a *App) Shutdown() error {
	a.scope.Shutdown()
	return a.storages.Close()
}

// Sync triggers an immediate queue drain followed by an integrity
// verification. Blocking; intended for a user-initiated "sync now".
func (a *App) Sync(ctx context.Context) (models.IntegrityReport, error) {
	if err := a.driver.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn().Err(err).Msg("manual drain finished with errors")
	}
	return a.checker.VerifyAll(ctx)
}

// ApplyServerDeltas feeds server-pushed changes (from a push channel
// or a poll) into the conflict resolver.
func (a *App) ApplyServerDeltas(ctx context.Context, deltas []models.EntityDelta) ([]models.Notice, error) {
	return a.resolver.Apply(ctx, deltas)
}

// RefreshData force-refetches every entity kind from the server.
func (a *App) RefreshData(ctx context.Context) {
	a.fetcher.RefreshData(ctx)
}

// SetOnline reports the platform's connectivity state. An
// offline-to-online transition triggers a background drain.
func (a *App) SetOnline(online bool) {
	a.connectivity.SetOnline(online)
}

// Observables for the presentation layer.

func (a *App) PendingCount() *watch.Value[int] { return a.driver.PendingCount() }
func (a *App) SyncState() *watch.Value[models.SyncState] { return a.driver.State() }
func (a *App) Online() *watch.Value[bool] { return a.connectivity.Online() }
func (a *App) ConflictNotices() *watch.Value[models.Notice] { return a.resolver.Notices() }
func (a *App) RepairNotices() *watch.Value[models.Notice] { return a.initializer.Notices() }
func (a *App) Changes() *watch.Value[store.ChangeEvent] { return a.storages.Events }

func (a *App) IsAuthenticated() bool { return a.session.IsAuthenticated() }

// Local reads. The UI always renders from the local store; the sync
// machinery keeps it converged with the server.

func (a *App) Accounts(ctx context.Context) ([]models.Account, error) {
	return a.storages.Accounts.List(ctx)
}

func (a *App) AccountGroups(ctx context.Context) ([]models.AccountGroup, error) {
	return a.storages.AccountGroups.List(ctx)
}

func (a *App) Categories(ctx context.Context) ([]models.Category, error) {
	return a.storages.Categories.List(ctx)
}

func (a *App) Transactions(ctx context.Context) ([]models.Transaction, error) {
	return a.storages.Transactions.List(ctx)
}

// drainNow runs a queue drain on the scope, dropping the handle. Used
// by fire-and-forget triggers.
func (a *App) drainNow() {
	if !a.session.IsAuthenticated() || !a.connectivity.IsOnline() {
		return
	}
	if _, err := a.scope.Go("drain", a.driver.Drain); err != nil {
		a.logger.Debug().Err(err).Msg("drain not scheduled")
	}
}
