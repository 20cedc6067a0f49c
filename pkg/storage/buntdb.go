package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/tidwall/buntdb"
)

// ErrOrderNotFound is returned when updating an order that was never created
var ErrOrderNotFound = errors.New("order not found")

// Option configures a storage
type Option func(*options)

type options struct {
	runID string
}

// WithRunID scopes the orders of a storage to a backtest run
func WithRunID(runID string) Option {
	return func(o *options) {
		o.runID = runID
	}
}

func newOptions(opts []Option) options {
	settings := options{runID: "default"}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

// BuntStorage keeps orders and results in a BuntDB key/value store
type BuntStorage struct {
	db    *buntdb.DB
	codec codec
	runID string
}

// FromMemory creates an in-memory storage
func FromMemory(assets core.AssetResolver, opts ...Option) (*BuntStorage, error) {
	return NewBuntStorage(":memory:", assets, opts...)
}

// FromFile creates a file-based storage
func FromFile(file string, assets core.AssetResolver, opts ...Option) (*BuntStorage, error) {
	return NewBuntStorage(file, assets, opts...)
}

// NewBuntStorage opens a BuntDB database. Orders are written with the ids
// the paper wallet assigned.
func NewBuntStorage(sourceFile string, assets core.AssetResolver, opts ...Option) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	err = db.CreateIndex("update_index", "order:*", buntdb.IndexJSON("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStorage{
		db:    db,
		codec: codec{assets: assets},
		runID: newOptions(opts).runID,
	}, nil
}

// RunID returns the run the orders are stored under
func (b *BuntStorage) RunID() string { return b.runID }

func orderKey(runID string, id int64) string {
	return fmt.Sprintf("order:%s:%020d", runID, id)
}

func resultKey(runID string, result core.Result) string {
	return fmt.Sprintf("result:%s:%020d", runID, result.Time.UnixNano())
}

func (b *BuntStorage) setOrder(tx *buntdb.Tx, order *core.Order) error {
	content, err := json.Marshal(b.codec.encodeOrder(b.runID, order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	if _, _, err = tx.Set(orderKey(b.runID, order.ID), string(content), nil); err != nil {
		return fmt.Errorf("failed to store order: %w", err)
	}

	return nil
}

// CreateOrder stores a new order in the database
func (b *BuntStorage) CreateOrder(order *core.Order) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		return b.setOrder(tx, order)
	})
}

// UpdateOrder updates an existing order in the database
func (b *BuntStorage) UpdateOrder(order *core.Order) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(orderKey(b.runID, order.ID)); err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrOrderNotFound, order.ID)
			}
			return err
		}

		return b.setOrder(tx, order)
	})
}

// Orders retrieves the orders of the run ordered by last update
func (b *BuntStorage) Orders(filters ...core.OrderFilter) ([]*core.Order, error) {
	orders := make([]*core.Order, 0)
	prefix := "order:" + b.runID + ":"

	var decodeErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("update_index", func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}

			var record OrderRecord
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal order %s: %w", key, err)
				return false
			}

			order, err := b.codec.decodeOrder(record)
			if err != nil {
				decodeErr = err
				return false
			}

			for _, filter := range filters {
				if !filter(*order) {
					return true
				}
			}

			orders = append(orders, order)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over orders: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	return orders, nil
}

// SaveResult appends a step result to a run
func (b *BuntStorage) SaveResult(runID string, result core.Result) error {
	content, err := json.Marshal(b.codec.encodeResult(runID, result))
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(resultKey(runID, result), string(content), nil)
		return err
	})
}

// Results lists the results of a run ordered by time
func (b *BuntStorage) Results(runID string) ([]core.Result, error) {
	results := make([]core.Result, 0)

	var decodeErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("result:"+runID+":*", func(key, value string) bool {
			var record ResultRecord
			if err := json.Unmarshal([]byte(value), &record); err != nil {
				decodeErr = fmt.Errorf("failed to unmarshal result %s: %w", key, err)
				return false
			}

			result, err := b.codec.decodeResult(record)
			if err != nil {
				decodeErr = err
				return false
			}

			results = append(results, result)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over results: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	return results, nil
}

// Close closes the database connection
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
