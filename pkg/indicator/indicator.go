package indicator

import (
	"fmt"
	"strings"

	"github.com/markcheno/go-talib"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/samber/lo"
)

// MaType represents moving average type
type MaType = talib.MaType

// Moving average type constants
const (
	TypeSMA  = talib.SMA  // Simple Moving Average
	TypeEMA  = talib.EMA  // Exponential Moving Average
	TypeWMA  = talib.WMA  // Weighted Moving Average
	TypeDEMA = talib.DEMA // Double Exponential Moving Average
	TypeTEMA = talib.TEMA // Triple Exponential Moving Average
)

var maTypes = map[string]MaType{
	"SMA":  TypeSMA,
	"EMA":  TypeEMA,
	"WMA":  TypeWMA,
	"DEMA": TypeDEMA,
	"TEMA": TypeTEMA,
}

// ParseMaType converts a name such as "ema" into a moving average type
func ParseMaType(name string) (MaType, error) {
	maType, ok := maTypes[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown moving average type %q", name)
	}
	return maType, nil
}

// MA calculates Moving Average with specified type
func MA(input []float64, period int, maType MaType) []float64 {
	return talib.Ma(input, period, maType)
}

// EMA calculates Exponential Moving Average
func EMA(input []float64, period int) []float64 {
	return talib.Ema(input, period)
}

// SMA calculates Simple Moving Average
func SMA(input []float64, period int) []float64 {
	return talib.Sma(input, period)
}

// RSI calculates Relative Strength Index
func RSI(input []float64, period int) []float64 {
	return talib.Rsi(input, period)
}

// Closes extracts close prices as floats, the input format of the indicators
func Closes(candles []core.Candle) core.Series[float64] {
	return lo.Map(candles, func(candle core.Candle, _ int) float64 {
		return candle.Close.InexactFloat64()
	})
}
