package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLStorage keeps orders and results in a SQL database through GORM
type SQLStorage struct {
	db    *gorm.DB
	codec codec
	runID string
}

// FromSQLite opens a sqlite database file, ":memory:" for a transient one
func FromSQLite(path string, assets core.AssetResolver, opts ...Option) (*SQLStorage, error) {
	return FromSQL(sqlite.Open(path), assets, opts...)
}

// FromSQL creates a new SQL storage instance
func FromSQL(dialect gorm.Dialector, assets core.AssetResolver, opts ...Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// one connection, so a ":memory:" database is shared by every query
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err = db.AutoMigrate(&OrderRecord{}, &ResultRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{
		db:    db,
		codec: codec{assets: assets},
		runID: newOptions(opts).runID,
	}, nil
}

// RunID returns the run the orders are stored under
func (s *SQLStorage) RunID() string { return s.runID }

// CreateOrder creates a new order in the SQL database
func (s *SQLStorage) CreateOrder(order *core.Order) error {
	record := s.codec.encodeOrder(s.runID, order)
	if result := s.db.Create(&record); result.Error != nil {
		return fmt.Errorf("failed to create order: %w", result.Error)
	}

	return nil
}

// UpdateOrder updates an existing order in the SQL database
func (s *SQLStorage) UpdateOrder(order *core.Order) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing OrderRecord
		result := tx.Where("run_id = ? AND id = ?", s.runID, order.ID).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrOrderNotFound, order.ID)
		}
		if result.Error != nil {
			return result.Error
		}

		record := s.codec.encodeOrder(s.runID, order)
		if result = tx.Save(&record); result.Error != nil {
			return fmt.Errorf("failed to update order: %w", result.Error)
		}

		return nil
	})
}

// Orders retrieves the orders of the run ordered by last update
func (s *SQLStorage) Orders(filters ...core.OrderFilter) ([]*core.Order, error) {
	return s.OrdersWithQuery(func(db *gorm.DB) *gorm.DB { return db }, filters...)
}

// OrdersWithQuery narrows the run orders with a GORM query before the
// in-memory filters are applied
func (s *SQLStorage) OrdersWithQuery(query func(*gorm.DB) *gorm.DB, filters ...core.OrderFilter) ([]*core.Order, error) {
	var records []OrderRecord

	result := query(s.db.Where("run_id = ?", s.runID)).
		Order("updated_at, id").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", result.Error)
	}

	orders := make([]*core.Order, 0, len(records))
	for _, record := range records {
		order, err := s.codec.decodeOrder(record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return lo.Filter(orders, func(order *core.Order, _ int) bool {
		for _, filter := range filters {
			if !filter(*order) {
				return false
			}
		}
		return true
	}), nil
}

// SaveResult appends a step result to a run, replacing a result stored for the same time
func (s *SQLStorage) SaveResult(runID string, result core.Result) error {
	record := s.codec.encodeResult(runID, result)
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Results lists the results of a run ordered by time
func (s *SQLStorage) Results(runID string) ([]core.Result, error) {
	var records []ResultRecord
	if err := s.db.Where("run_id = ?", runID).Order("time").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}

	results := make([]core.Result, 0, len(records))
	for _, record := range records {
		result, err := s.codec.decodeResult(record)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
