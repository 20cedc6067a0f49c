package exchange

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AssetRecord is the JSON shape of one asset entry
type AssetRecord struct {
	Name    string `json:"name"`
	MinSize string `json:"min_size"`
}

//go:embed assets/assets.json
var embeddedAssets []byte

// AssetRegistry resolves asset metadata by symbol and caches the parsed assets.
// Build one per run and pass it to whoever needs it.
type AssetRegistry struct {
	mu      sync.RWMutex
	records map[string]AssetRecord
	cache   map[string]core.Asset
}

// NewAssetRegistry creates a registry from JSON layers; later layers override earlier ones
func NewAssetRegistry(layers ...[]byte) (*AssetRegistry, error) {
	registry := &AssetRegistry{
		records: make(map[string]AssetRecord),
		cache:   make(map[string]core.Asset),
	}

	for _, layer := range layers {
		if err := registry.Load(layer); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// DefaultAssetRegistry creates a registry with the embedded asset list
func DefaultAssetRegistry() (*AssetRegistry, error) {
	return NewAssetRegistry(embeddedAssets)
}

// Load merges a JSON document of asset records into the registry
func (r *AssetRegistry) Load(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	records := make(map[string]AssetRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal assets data: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for symbol, record := range records {
		if _, err := decimal.NewFromString(record.MinSize); err != nil {
			return fmt.Errorf("asset %s: invalid min_size %q: %w", symbol, record.MinSize, err)
		}

		symbol = strings.ToUpper(symbol)
		r.records[symbol] = record
		delete(r.cache, symbol)
	}

	return nil
}

// LoadFile merges the asset records of a JSON file
func (r *AssetRegistry) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read assets file: %w", err)
	}
	return r.Load(content)
}

// Register adds or replaces an asset
func (r *AssetRegistry) Register(asset core.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[asset.Symbol] = AssetRecord{Name: asset.Name, MinSize: asset.LotSize.String()}
	r.cache[asset.Symbol] = asset
}

// Resolve returns the asset for symbol or ErrUnknownAsset
func (r *AssetRegistry) Resolve(symbol string) (core.Asset, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	r.mu.RLock()
	asset, cached := r.cache[symbol]
	record, known := r.records[symbol]
	r.mu.RUnlock()

	if cached {
		return asset, nil
	}

	if !known {
		return core.Asset{}, fmt.Errorf("%w: %s", core.ErrUnknownAsset, symbol)
	}

	asset = core.NewAsset(symbol, record.Name, decimal.RequireFromString(record.MinSize))

	r.mu.Lock()
	r.cache[symbol] = asset
	r.mu.Unlock()

	return asset, nil
}

// Pair resolves both legs of a pair
func (r *AssetRegistry) Pair(base, quote string) (core.Pair, error) {
	baseAsset, err := r.Resolve(base)
	if err != nil {
		return core.Pair{}, err
	}

	quoteAsset, err := r.Resolve(quote)
	if err != nil {
		return core.Pair{}, err
	}

	return core.NewPair(baseAsset, quoteAsset), nil
}

// Symbols lists the known symbols in alphabetical order
func (r *AssetRegistry) Symbols() []string {
	r.mu.RLock()
	symbols := lo.Keys(r.records)
	r.mu.RUnlock()

	sort.Strings(symbols)
	return symbols
}

// SaveToFile writes every known record to a JSON file
func (r *AssetRegistry) SaveToFile(filename string) error {
	r.mu.RLock()
	content, err := json.MarshalIndent(r.records, "", "  ")
	r.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal assets: %w", err)
	}

	if err := os.WriteFile(filename, content, 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
