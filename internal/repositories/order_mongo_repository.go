package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection   = "orders"
	countersCollection = "counters"
)

// MongoOrderRepository stores orders as documents in MongoDB.
type MongoOrderRepository struct {
	orders   *mongo.Collection
	counters *mongo.Collection
	timeout  time.Duration
}

// NewMongoOrderRepository creates a new instance of MongoOrderRepository.
func NewMongoOrderRepository(db *mongo.Database, timeout time.Duration) *MongoOrderRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &MongoOrderRepository{
		orders:   db.Collection(ordersCollection),
		counters: db.Collection(countersCollection),
		timeout:  timeout,
	}
}

// EnsureIndexes creates the unique OrderIDNum index and the listing indexes,
// then brings the order counter up to the highest stored OrderIDNum.
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderIdNum", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "orderDate", Value: -1}}},
		{Keys: bson.D{{Key: "totalPrice", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	var last models.Order
	err = r.orders.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "orderIdNum", Value: -1}})).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to read highest order number: %w", err)
	}
	_, err = r.counters.UpdateOne(ctx,
		bson.M{"_id": models.OrderSequence},
		bson.M{"$max": bson.M{"value": last.OrderIDNum}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to sync order counter: %w", err)
	}
	return nil
}

// Create inserts a new order document. OrderIDNum comes from an atomic $inc
// on the counters collection.
func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var counter models.Counter
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": models.OrderSequence},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return fmt.Errorf("failed to allocate order number: %w", err)
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.OrderIDNum = counter.Value
	// BSON dates keep millisecond precision.
	now := time.Now().UTC().Truncate(time.Millisecond)
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order document by its ID.
func (r *MongoOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var order models.Order
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// List retrieves all order documents in the requested order.
func (r *MongoOrderRepository) List(ctx context.Context, sortBy models.OrderSort) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.orders.Find(ctx, bson.M{}, options.Find().SetSort(orderSortDoc(sortBy)))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// Update reads the document, applies mutate and replaces it. Concurrent
// updates to the same order are last-writer-wins.
func (r *MongoOrderRepository) Update(ctx context.Context, id string, mutate OrderMutation) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var order models.Order
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	original := order
	if err := mutate(&order); err != nil {
		return nil, err
	}
	keepIdentity(&order, original)
	order.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := r.orders.ReplaceOne(ctx, bson.M{"_id": id}, order)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

// Delete removes an order document by its ID.
func (r *MongoOrderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func orderSortDoc(sortBy models.OrderSort) bson.D {
	tail := bson.D{{Key: "createdAt", Value: -1}, {Key: "orderIdNum", Value: -1}}
	switch sortBy {
	case models.SortDateDesc:
		return append(bson.D{{Key: "orderDate", Value: -1}}, tail...)
	case models.SortDateAsc:
		return append(bson.D{{Key: "orderDate", Value: 1}}, tail...)
	case models.SortPriceDesc:
		return append(bson.D{{Key: "totalPrice", Value: -1}}, tail...)
	case models.SortPriceAsc:
		return append(bson.D{{Key: "totalPrice", Value: 1}}, tail...)
	}
	return tail
}
