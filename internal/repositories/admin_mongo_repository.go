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

// MongoAdminRepository stores admins in the "admins" collection.
type MongoAdminRepository struct {
	admins *mongo.Collection
}

// NewMongoAdminRepository creates a new instance of MongoAdminRepository.
func NewMongoAdminRepository(db *mongo.Database) *MongoAdminRepository {
	return &MongoAdminRepository{admins: db.Collection("admins")}
}

// EnsureIndexes makes usernames unique.
func (r *MongoAdminRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.admins.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin indexes: %w", err)
	}
	return nil
}

// Create inserts a new admin document.
func (r *MongoAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	admin.CreatedAt = now
	admin.UpdatedAt = now
	if _, err := r.admins.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// GetByUsername retrieves an admin document by username.
func (r *MongoAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := r.admins.FindOne(ctx, bson.M{"username": username}).Decode(&admin); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin by username %s: %w", username, err)
	}
	return &admin, nil
}

// UpdatePassword replaces the stored password hash of an admin.
func (r *MongoAdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.admins.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAdminNotFound
	}
	return nil
}
