package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rl1809/stockroom/internal/core/domain"
	"github.com/rl1809/stockroom/internal/port"
)

// Mock DatabaseRepository with compare-and-swap updates
type mockDatabaseRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]domain.Product
	creates  int
	deletes  int
}

func newMockDatabaseRepo() *mockDatabaseRepo {
	return &mockDatabaseRepo{products: make(map[int64]domain.Product)}
}

func (m *mockDatabaseRepo) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.creates++
	p.ID = m.nextID
	p.Version = 1
	m.products[p.ID] = p
	return p.ID, nil
}

func (m *mockDatabaseRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockDatabaseRepo) ListProducts(ctx context.Context, categoryFilter string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(categoryFilter))
	var out []domain.Product
	for _, p := range m.products {
		if needle == "" || strings.Contains(strings.ToLower(p.Category), needle) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDatabaseRepo) UpdateProduct(ctx context.Context, p domain.Product, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.products[p.ID]
	if !ok || cur.Version != expectedVersion {
		return port.ErrVersionConflict
	}
	p.Version = expectedVersion + 1
	m.products[p.ID] = p
	return nil
}

func (m *mockDatabaseRepo) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return port.ErrRecordNotFound
	}
	m.deletes++
	delete(m.products, id)
	return nil
}

func (m *mockDatabaseRepo) Ping(ctx context.Context) error { return nil }

func (m *mockDatabaseRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products)
}

// Scripted DatabaseRepository for failure paths
type scriptedDatabaseRepo struct {
	mock.Mock
}

func (m *scriptedDatabaseRepo) CreateProduct(ctx context.Context, p domain.Product) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *scriptedDatabaseRepo) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *scriptedDatabaseRepo) ListProducts(ctx context.Context, categoryFilter string) ([]domain.Product, error) {
	args := m.Called(ctx, categoryFilter)
	p, _ := args.Get(0).([]domain.Product)
	return p, args.Error(1)
}

func (m *scriptedDatabaseRepo) UpdateProduct(ctx context.Context, p domain.Product, expectedVersion int64) error {
	return m.Called(ctx, p, expectedVersion).Error(0)
}

func (m *scriptedDatabaseRepo) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *scriptedDatabaseRepo) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       []string
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}
