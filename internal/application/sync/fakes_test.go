package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/domain/sync"
	"github.com/shopmirror/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// In-memory state repository
// ---------------------------------------------------------------------------

type stateKey struct {
	tenantID   uuid.UUID
	entityType sync.EntityType
}

// fakeStateRepo is an in-memory sync.StateRepository. All operations run
// under one mutex, so AcquireLock is a true compare-and-swap like the SQL
// implementation.
type fakeStateRepo struct {
	mu     gosync.Mutex
	states map[stateKey]*sync.State
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[stateKey]*sync.State)}
}

func (r *fakeStateRepo) get(tenantID uuid.UUID, entityType sync.EntityType) *sync.State {
	return r.states[stateKey{tenantID, entityType}]
}

func (r *fakeStateRepo) GetOrCreate(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stateKey{tenantID, entityType}
	if s, ok := r.states[key]; ok {
		cp := *s
		return &cp, nil
	}
	s := sync.NewState(tenantID, entityType)
	r.states[key] = s
	cp := *s
	return &cp, nil
}

func (r *fakeStateRepo) Get(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return nil, sync.ErrStateNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStateRepo) ListForTenant(_ context.Context, tenantID uuid.UUID) ([]sync.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sync.State
	for key, s := range r.states {
		if key.tenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeStateRepo) UpdateCursor(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, cursor, lastSyncedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	s.LastCursor = cursor
	s.LastSyncedID = lastSyncedID
	return nil
}

func (r *fakeStateRepo) UpdateMetrics(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, recordsThisRun int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	s.TotalRecordsSynced += recordsThisRun
	s.LastRunRecords = recordsThisRun
	return nil
}

func (r *fakeStateRepo) AcquireLock(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return false, nil
	}
	if s.IsLocked {
		return false, nil
	}
	lockState(s, now, ttl)
	return true, nil
}

func (r *fakeStateRepo) ForceAcquireLock(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	lockState(s, now, ttl)
	return nil
}

func lockState(s *sync.State, now time.Time, ttl time.Duration) {
	expires := now.Add(ttl)
	s.IsLocked = true
	s.LockedAt = &now
	s.LockExpiresAt = &expires
	s.Status = sync.StatusRunning
	s.LastStartedAt = &now
}

func (r *fakeStateRepo) ReleaseLockSuccess(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	s.IsLocked = false
	s.LockedAt = nil
	s.LockExpiresAt = nil
	s.Status = sync.StatusCompleted
	s.LastCompletedAt = &now
	s.ConsecutiveFailures = 0
	s.LastError = ""
	return nil
}

func (r *fakeStateRepo) ReleaseLockFailure(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType, now time.Time, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	s.IsLocked = false
	s.LockedAt = nil
	s.LockExpiresAt = nil
	s.Status = sync.StatusFailed
	s.LastFailedAt = &now
	s.ConsecutiveFailures++
	s.LastError = errMsg
	return nil
}

func (r *fakeStateRepo) ResetFailures(_ context.Context, tenantID uuid.UUID, entityType sync.EntityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[stateKey{tenantID, entityType}]
	if !ok {
		return sync.ErrStateNotFound
	}
	resetState(s)
	return nil
}

func (r *fakeStateRepo) ResetAll(_ context.Context, tenantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, s := range r.states {
		if key.tenantID == tenantID {
			resetState(s)
		}
	}
	return nil
}

func resetState(s *sync.State) {
	s.IsLocked = false
	s.LockedAt = nil
	s.LockExpiresAt = nil
	s.Status = sync.StatusIdle
	s.LastCursor = ""
	s.LastSyncedID = ""
	s.ConsecutiveFailures = 0
	s.LastError = ""
}

var _ sync.StateRepository = (*fakeStateRepo)(nil)

// ---------------------------------------------------------------------------
// In-memory tenant repository
// ---------------------------------------------------------------------------

type fakeTenantRepo struct {
	mu      gosync.Mutex
	tenants map[uuid.UUID]*tenant.Tenant
}

func newFakeTenantRepo(tenants ...*tenant.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{tenants: make(map[uuid.UUID]*tenant.Tenant)}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *fakeTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) FindActive(_ context.Context) ([]tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tenant.Tenant
	for _, t := range r.tenants {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) Save(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tenants[t.ID] = &cp
	return nil
}

func (r *fakeTenantRepo) UpdateLastSyncAt(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.LastSyncAt = &at
	return nil
}

var _ tenant.Repository = (*fakeTenantRepo)(nil)

// ---------------------------------------------------------------------------
// Recording queue
// ---------------------------------------------------------------------------

type enqueued struct {
	queueName string
	job       *sync.Job
}

type fakeQueue struct {
	mu   gosync.Mutex
	jobs []enqueued
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, queueName string, job *sync.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, enqueued{queueName, job})
	return nil
}

func (q *fakeQueue) all() []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueued(nil), q.jobs...)
}

var _ sync.Queue = (*fakeQueue)(nil)

// ---------------------------------------------------------------------------
// Scripted platform client
// ---------------------------------------------------------------------------

type fakePlatformClient struct {
	mu gosync.Mutex

	customerPages map[string]*platform.CustomerPage
	productPages  map[string]*platform.ProductPage
	orderBatches  map[string][]*mirror.Order

	customerCalls int
	productCalls  int
	orderCalls    int

	err error
}

func newFakePlatformClient() *fakePlatformClient {
	return &fakePlatformClient{
		customerPages: make(map[string]*platform.CustomerPage),
		productPages:  make(map[string]*platform.ProductPage),
		orderBatches:  make(map[string][]*mirror.Order),
	}
}

func (c *fakePlatformClient) FetchCustomersPage(_ context.Context, _ tenant.Credentials, afterCursor string, _ int) (*platform.CustomerPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customerCalls++
	if c.err != nil {
		return nil, c.err
	}
	page, ok := c.customerPages[afterCursor]
	if !ok {
		return &platform.CustomerPage{}, nil
	}
	return page, nil
}

func (c *fakePlatformClient) FetchProductsPage(_ context.Context, _ tenant.Credentials, afterCursor string, _ int) (*platform.ProductPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.productCalls++
	if c.err != nil {
		return nil, c.err
	}
	page, ok := c.productPages[afterCursor]
	if !ok {
		return &platform.ProductPage{}, nil
	}
	return page, nil
}

func (c *fakePlatformClient) FetchOrdersSince(_ context.Context, _ tenant.Credentials, sinceID string, _ int) ([]*mirror.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.orderBatches[sinceID], nil
}

var _ platform.Client = (*fakePlatformClient)(nil)

// ---------------------------------------------------------------------------
// In-memory mirror repositories
// ---------------------------------------------------------------------------

type fakeCustomerRepo struct {
	mu        gosync.Mutex
	customers map[string]*mirror.Customer // keyed by external ID
	upserts   int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]*mirror.Customer)}
}

func (r *fakeCustomerRepo) Upsert(ctx context.Context, c *mirror.Customer) error {
	return r.UpsertBatch(ctx, []*mirror.Customer{c})
}

func (r *fakeCustomerRepo) UpsertBatch(_ context.Context, customers []*mirror.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range customers {
		if existing, ok := r.customers[c.ExternalID]; ok {
			c.ID = existing.ID
		}
		cp := *c
		r.customers[c.ExternalID] = &cp
		r.upserts++
	}
	return nil
}

func (r *fakeCustomerRepo) FindByExternalID(_ context.Context, _ uuid.UUID, externalID string) (*mirror.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) CountForTenant(_ context.Context, _ uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.customers)), nil
}

var _ mirror.CustomerRepository = (*fakeCustomerRepo)(nil)

type fakeProductRepo struct {
	mu       gosync.Mutex
	products map[string]*mirror.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*mirror.Product)}
}

func (r *fakeProductRepo) Upsert(ctx context.Context, p *mirror.Product) error {
	return r.UpsertBatch(ctx, []*mirror.Product{p})
}

func (r *fakeProductRepo) UpsertBatch(_ context.Context, products []*mirror.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		cp := *p
		r.products[p.ExternalID] = &cp
	}
	return nil
}

func (r *fakeProductRepo) FindByExternalID(_ context.Context, _ uuid.UUID, externalID string) (*mirror.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) CountForTenant(_ context.Context, _ uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

var _ mirror.ProductRepository = (*fakeProductRepo)(nil)

type fakeOrderRepo struct {
	mu     gosync.Mutex
	orders map[string]*mirror.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*mirror.Order)}
}

func (r *fakeOrderRepo) Upsert(ctx context.Context, o *mirror.Order) error {
	return r.UpsertBatch(ctx, []*mirror.Order{o})
}

func (r *fakeOrderRepo) UpsertBatch(_ context.Context, orders []*mirror.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		cp := *o
		r.orders[o.ExternalID] = &cp
	}
	return nil
}

func (r *fakeOrderRepo) FindByExternalID(_ context.Context, _ uuid.UUID, externalID string) (*mirror.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[externalID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) CountForTenant(_ context.Context, _ uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

var _ mirror.OrderRepository = (*fakeOrderRepo)(nil)
