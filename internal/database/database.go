// Package database opens the configured store and hands out the
// repositories built on it.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/models"
	"orderdesk/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles the repositories of one backing store.
type Store struct {
	Orders repositories.OrderRepository
	Admins repositories.AdminRepository

	close func(ctx context.Context) error
}

// Close releases the underlying connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the store selected by cfg.StorageDriver and prepares its
// schema or indexes.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Println("Using in-memory storage; data is lost on restart")
		return &Store{
			Orders: repositories.NewMockOrderRepository(),
			Admins: repositories.NewMockAdminRepository(),
		}, nil
	case config.DriverMongo:
		return openMongoStore(ctx, cfg)
	default:
		db, err := OpenGORM(cfg.StorageDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, db); err != nil {
			closeGORM(db)
			return nil, err
		}
		return &Store{
			Orders: repositories.NewGORMOrderRepository(db, cfg.StoreTimeout),
			Admins: repositories.NewGORMAdminRepository(db),
			close: func(context.Context) error {
				return closeGORM(db)
			},
		}, nil
	}
}

// OpenGORM returns a gorm DB for one of the SQL drivers.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", driver)
	}

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	if driver == config.DriverSQLite {
		// sqlite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	return gdb, nil
}

// Migrate creates or updates the tables and aligns the order counter with
// any orders already stored.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.Order{}, &models.Admin{}, &models.Counter{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	if err := repositories.SyncOrderSequence(ctx, db); err != nil {
		return err
	}
	return nil
}

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = repositories.DefaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func openMongoStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := OpenMongo(ctx, cfg.MongoURI, cfg.StoreTimeout)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	orders := repositories.NewMongoOrderRepository(db, cfg.StoreTimeout)
	if err := orders.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	admins := repositories.NewMongoAdminRepository(db)
	if err := admins.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Printf("Connected to MongoDB database %q", cfg.MongoDatabase)
	return &Store{
		Orders: orders,
		Admins: admins,
		close:  client.Disconnect,
	}, nil
}

func closeGORM(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
