package repositories

import (
	"context"
	"sync"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	seq    int64
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create stores a new order. The sequence is advanced under the same lock
// as the write, so concurrent creates never share an OrderIDNum.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	r.seq++
	order.OrderIDNum = r.seq
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// List returns all orders in the requested order.
func (r *MockOrderRepository) List(_ context.Context, sortBy models.OrderSort) ([]models.Order, error) {
	r.mu.RLock()
	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	r.mu.RUnlock()

	SortOrders(orderList, sortBy)
	return orderList, nil
}

// Update applies mutate to a copy of the stored order and saves the result.
func (r *MockOrderRepository) Update(_ context.Context, id string, mutate OrderMutation) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	original, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := original
	if err := mutate(&order); err != nil {
		return nil, err
	}
	keepIdentity(&order, original)
	order.UpdatedAt = time.Now().UTC()
	r.orders[original.ID] = order
	return &order, nil
}

// Delete removes an order by its ID.
func (r *MockOrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}
