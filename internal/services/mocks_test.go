package services

import (
	"context"
	"io"
	"sync"
	"time"

	"catalogd/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByProduct(ctx context.Context, productID int64) (*models.Inventory, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) Create(ctx context.Context, inventory *models.Inventory) error {
	args := m.Called(ctx, inventory)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockInventoryRepository) DecrementIfAvailable(ctx context.Context, productID int64, amount int) (bool, error) {
	args := m.Called(ctx, productID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) ListBelow(ctx context.Context, threshold int) ([]*models.Inventory, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Inventory), args.Error(1)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Store(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error) {
	args := m.Called(ctx, reader, size, fileName, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) Load(ctx context.Context, fileName string) (io.ReadCloser, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockObjectStorage) SignedURL(ctx context.Context, fileName string) (string, error) {
	args := m.Called(ctx, fileName)
	return args.String(0), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCacheService) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	args := m.Called(ctx, product, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteProduct(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockCacheService) MarkAdjustmentApplied(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, messageID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) DeleteAdjustmentMarker(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryInventoryRepo backs the sequencing and concurrency tests with real
// conditional-decrement semantics.
type memoryInventoryRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.Inventory
	nextID int64
}

func newMemoryInventoryRepo() *memoryInventoryRepo {
	return &memoryInventoryRepo{rows: make(map[int64]*models.Inventory)}
}

func (r *memoryInventoryRepo) FindByProduct(_ context.Context, productID int64) (*models.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[productID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *memoryInventoryRepo) Create(_ context.Context, inventory *models.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	inventory.ID = r.nextID
	copied := *inventory
	r.rows[inventory.ProductID] = &copied
	return nil
}

func (r *memoryInventoryRepo) UpdateQuantity(_ context.Context, id int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			row.Quantity = quantity
		}
	}
	return nil
}

func (r *memoryInventoryRepo) DecrementIfAvailable(_ context.Context, productID int64, amount int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[productID]
	if !ok || row.Quantity < amount {
		return false, nil
	}
	row.Quantity -= amount
	return true, nil
}

func (r *memoryInventoryRepo) ListBelow(_ context.Context, threshold int) ([]*models.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Inventory
	for _, row := range r.rows {
		if row.Quantity <= threshold {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}
