package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultStoreTimeout bounds a single repository call when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB, timeout time.Duration) *GORMOrderRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &GORMOrderRepository{
		db:      db,
		timeout: timeout,
	}
}

// Create inserts a new order. The next OrderIDNum is taken from the counters
// table inside the same transaction, with the counter row locked for update.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, models.OrderSequence)
		if err != nil {
			return err
		}
		order.OrderIDNum = seq
		now := time.Now().UTC()
		order.CreatedAt = now
		order.UpdatedAt = now
		return tx.Create(order).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID from the database.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// List retrieves all orders from the database in the requested order.
func (r *GORMOrderRepository) List(ctx context.Context, sortBy models.OrderSort) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := r.db.WithContext(ctx)
	for _, col := range orderColumns(sortBy) {
		query = query.Order(col)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Update loads the order under a row lock, applies mutate and saves every
// column back in one transaction.
func (r *GORMOrderRepository) Update(ctx context.Context, id string, mutate OrderMutation) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		original := order
		if err := mutate(&order); err != nil {
			return err
		}
		keepIdentity(&order, original)
		order.UpdatedAt = time.Now().UTC()
		return tx.Save(&order).Error
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return &order, nil
}

// Delete deletes an order by its ID from the database.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// SyncOrderSequence makes sure the order counter exists and is not behind
// the highest OrderIDNum already stored, e.g. after importing orders.
func SyncOrderSequence(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCounter(tx, models.OrderSequence); err != nil {
			return err
		}
		var highest int64
		if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(order_id_num), 0)").Scan(&highest).Error; err != nil {
			return fmt.Errorf("failed to read highest order number: %w", err)
		}
		return tx.Model(&models.Counter{}).
			Where("name = ? AND current_value < ?", models.OrderSequence, highest).
			Update("current_value", highest).Error
	})
}

func nextSequence(tx *gorm.DB, name string) (int64, error) {
	if err := ensureCounter(tx, name); err != nil {
		return 0, err
	}
	var counter models.Counter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&counter, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("failed to lock counter %s: %w", name, err)
	}
	counter.Value++
	if err := tx.Model(&models.Counter{}).Where("name = ?", name).Update("current_value", counter.Value).Error; err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
	}
	return counter.Value, nil
}

func ensureCounter(tx *gorm.DB, name string) error {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Counter{Name: name}).Error
	if err != nil {
		return fmt.Errorf("failed to initialise counter %s: %w", name, err)
	}
	return nil
}

func orderColumns(sortBy models.OrderSort) []string {
	tail := []string{"created_at DESC", "order_id_num DESC"}
	switch sortBy {
	case models.SortDateDesc:
		return append([]string{"order_date DESC"}, tail...)
	case models.SortDateAsc:
		return append([]string{"order_date ASC"}, tail...)
	case models.SortPriceDesc:
		return append([]string{"total_price DESC"}, tail...)
	case models.SortPriceAsc:
		return append([]string{"total_price ASC"}, tail...)
	}
	return tail
}
