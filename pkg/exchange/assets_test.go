package exchange

import (
	"path/filepath"
	"testing"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestAssetRegistry(t *testing.T) {
	registry, err := DefaultAssetRegistry()
	require.NoError(t, err)

	t.Run("resolve", func(t *testing.T) {
		asset, err := registry.Resolve("btc")
		require.NoError(t, err)
		require.Equal(t, "BTC", asset.Symbol)
		require.Equal(t, int32(8), asset.Places())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := registry.Resolve("XYZ")
		require.ErrorIs(t, err, core.ErrUnknownAsset)

		_, err = registry.Pair("BTC", "XYZ")
		require.ErrorIs(t, err, core.ErrUnknownAsset)
	})

	t.Run("pair", func(t *testing.T) {
		pair, err := registry.Pair("ETH", "USDT")
		require.NoError(t, err)
		require.Equal(t, "ETHUSDT", pair.Symbol())
	})

	t.Run("override layer", func(t *testing.T) {
		registry, err := NewAssetRegistry(embeddedAssets, []byte(`{"usd": {"name": "Dollar", "min_size": "1"}}`))
		require.NoError(t, err)

		asset, err := registry.Resolve("USD")
		require.NoError(t, err)
		require.Equal(t, "Dollar", asset.Name)
		require.Equal(t, int32(0), asset.Places())
	})

	t.Run("invalid layer", func(t *testing.T) {
		_, err := NewAssetRegistry([]byte(`{"USD": {"name": "Dollar", "min_size": "one"}}`))
		require.Error(t, err)
	})

	t.Run("save and load", func(t *testing.T) {
		registry, err := NewAssetRegistry()
		require.NoError(t, err)
		registry.Register(core.NewAsset("abc", "Alphabet", dec("0.001")))

		path := filepath.Join(t.TempDir(), "assets.json")
		require.NoError(t, registry.SaveToFile(path))

		loaded, err := NewAssetRegistry()
		require.NoError(t, err)
		require.NoError(t, loaded.LoadFile(path))
		require.Equal(t, []string{"ABC"}, loaded.Symbols())

		asset, err := loaded.Resolve("ABC")
		require.NoError(t, err)
		require.Equal(t, int32(3), asset.Places())
	})
}
