package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/finsible/sync-core/internal/store"
	"github.com/finsible/sync-core/models"
)

// In-memory doubles for the repository and remote-service contracts.
// Plain stubs rather than mockgen output: these tests care about
// end-state, not call choreography.

type memEntityRepo[E any] struct {
	mu       sync.Mutex
	rows     map[int64]E
	id       func(E) int64
	remaps   [][2]int64
	countErr error
}

func newMemEntityRepo[E any](id func(E) int64, seed ...E) *memEntityRepo[E] {
	repo := &memEntityRepo[E]{rows: make(map[int64]E), id: id}
	for _, row := range seed {
		repo.rows[id(row)] = row
	}
	return repo
}

func (r *memEntityRepo[E]) Get(_ context.Context, id int64) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		var zero E
		return zero, store.ErrNotFound
	}
	return row, nil
}

func (r *memEntityRepo[E]) List(_ context.Context) ([]E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	rows := make([]E, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, r.rows[id])
	}
	return rows, nil
}

func (r *memEntityRepo[E]) Upsert(_ context.Context, entity E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[r.id(entity)] = entity
	return nil
}

func (r *memEntityRepo[E]) RemoveByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memEntityRepo[E]) RemapID(_ context.Context, oldID, newID int64, updated E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, oldID)
	r.rows[newID] = updated
	r.remaps = append(r.remaps, [2]int64{oldID, newID})
	return nil
}

func (r *memEntityRepo[E]) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	return int64(len(r.rows)), nil
}

// memPending is a slice-backed PendingOperationRepository.
type memPending struct {
	mu        sync.Mutex
	nextLocal int64
	rows      []*models.PendingOperation
}

func (p *memPending) Append(_ context.Context, op models.PendingOperation) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextLocal++
	op.LocalID = p.nextLocal
	p.rows = append(p.rows, &op)
	return op.LocalID, nil
}

func (p *memPending) ListPending(_ context.Context) ([]models.PendingOperation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var pending []models.PendingOperation
	for _, row := range p.rows {
		if row.Status == models.StatusPending {
			pending = append(pending, *row)
		}
	}
	return pending, nil
}

func (p *memPending) CountPending(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, row := range p.rows {
		if row.Status == models.StatusPending {
			count++
		}
	}
	return count, nil
}

func (p *memPending) CountPendingByKind(_ context.Context, opType models.OperationType, entityType models.EntityType) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var count int64
	for _, row := range p.rows {
		if row.Status == models.StatusPending && row.OperationType == opType && row.EntityType == entityType {
			count++
		}
	}
	return count, nil
}

func (p *memPending) HasPendingForEntity(_ context.Context, entityType models.EntityType, entityID int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, row := range p.rows {
		if row.Status != models.StatusPending || row.EntityType != entityType {
			continue
		}
		if row.EntityID == entityID || row.LocalEntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

func (p *memPending) MarkCompleted(_ context.Context, localID int64) error {
	return p.setStatus(localID, models.StatusCompleted, "")
}

func (p *memPending) MarkFailed(_ context.Context, localID int64, lastError string) error {
	return p.setStatus(localID, models.StatusFailed, lastError)
}

func (p *memPending) setStatus(localID int64, status models.OperationStatus, lastError string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, row := range p.rows {
		if row.LocalID == localID && row.Status == models.StatusPending {
			row.Status = status
			row.LastError = lastError
			row.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return store.ErrNotFound
}

func (p *memPending) IncrementAttempts(_ context.Context, localID int64, lastError string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, row := range p.rows {
		if row.LocalID == localID && row.Status == models.StatusPending {
			row.Attempts++
			row.LastError = lastError
			return nil
		}
	}
	return store.ErrNotFound
}

func (p *memPending) byLocalID(localID int64) models.PendingOperation {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, row := range p.rows {
		if row.LocalID == localID {
			return *row
		}
	}
	return models.PendingOperation{}
}

// memCounter is an in-memory CounterRepository recording every Store.
type memCounter struct {
	mu      sync.Mutex
	values  map[string]int64
	stores  int
	loadErr error
	saveErr error
}

func newMemCounter() *memCounter {
	return &memCounter{values: make(map[string]int64)}
}

func (c *memCounter) Load(_ context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return 0, c.loadErr
	}
	return c.values[name], nil
}

func (c *memCounter) Store(_ context.Context, name string, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	c.values[name] = value
	c.stores++
	return nil
}

// stubSnapshot returns a fixed snapshot or error.
type stubSnapshot struct {
	snapshot models.EntitySnapshot
	err      error
	calls    int
}

func (s *stubSnapshot) GetSnapshot(_ context.Context) (models.EntitySnapshot, error) {
	s.calls++
	if s.err != nil {
		return models.EntitySnapshot{}, s.err
	}
	return s.snapshot, nil
}

// stubCategoryRemote implements adapter.CategoryService with
// programmable behavior per method.
type stubCategoryRemote struct {
	mu      sync.Mutex
	nextID  int64
	created []models.CategoryCreateRequest

	createErr error
	updateFn  func(id int64, req models.CategoryUpdateRequest) (models.Category, error)
	deleteErr error
	deleted   []int64
	listRows  []models.Category
	listErr   error
	listCalls int
}

func (s *stubCategoryRemote) Create(_ context.Context, req models.CategoryCreateRequest) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return models.Category{}, s.createErr
	}
	s.nextID++
	s.created = append(s.created, req)
	return models.Category{
		ID:        s.nextID,
		Name:      req.Name,
		Kind:      req.Kind,
		Icon:      req.Icon,
		SortOrder: req.SortOrder,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *stubCategoryRemote) Update(_ context.Context, id int64, req models.CategoryUpdateRequest) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(id, req)
	}
	row := models.Category{ID: id}
	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.Icon != nil {
		row.Icon = *req.Icon
	}
	if req.SortOrder != nil {
		row.SortOrder = *req.SortOrder
	}
	return row, nil
}

func (s *stubCategoryRemote) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCategoryRemote) List(_ context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listRows, nil
}

func categoryID(c models.Category) int64 { return c.ID }
