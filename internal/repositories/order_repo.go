package repositories

import (
	"context"
	"errors"
	"sort"

	"orderdesk/internal/models"
)

// ErrOrderNotFound is returned when an order key does not resolve.
var ErrOrderNotFound = errors.New("order not found")

// OrderMutation edits a loaded order in place before it is written back.
type OrderMutation func(order *models.Order) error

// OrderRepository defines the interface for order data access.
//
// Implementations own the persistence key, OrderIDNum and the timestamps:
// Create assigns all of them, Update never lets a mutation change them.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, sortBy models.OrderSort) ([]models.Order, error)
	Update(ctx context.Context, id string, mutate OrderMutation) (*models.Order, error)
	Delete(ctx context.Context, id string) error
}

// SortOrders orders a slice in place the same way the database-backed
// repositories order their queries.
func SortOrders(orders []models.Order, sortBy models.OrderSort) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		switch sortBy {
		case models.SortDateDesc:
			if a.OrderDate != b.OrderDate {
				return a.OrderDate > b.OrderDate
			}
		case models.SortDateAsc:
			if a.OrderDate != b.OrderDate {
				return a.OrderDate < b.OrderDate
			}
		case models.SortPriceDesc:
			if a.TotalPrice != b.TotalPrice {
				return a.TotalPrice > b.TotalPrice
			}
		case models.SortPriceAsc:
			if a.TotalPrice != b.TotalPrice {
				return a.TotalPrice < b.TotalPrice
			}
		}
		return newerFirst(a, b)
	})
}

func newerFirst(a, b models.Order) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.OrderIDNum > b.OrderIDNum
}

// keepIdentity restores the fields a mutation is not allowed to touch.
func keepIdentity(order *models.Order, original models.Order) {
	order.ID = original.ID
	order.OrderIDNum = original.OrderIDNum
	order.CreatedAt = original.CreatedAt
}
