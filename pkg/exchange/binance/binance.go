package binance

import (
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidPair     = errors.New("invalid pair")
	ErrMalformedKline  = errors.New("malformed kline")
	ErrMissingEndpoint = errors.New("missing url parameters for custom endpoint configuration")
)

// quoteAssets are tried in order when splitting a pair symbol
var quoteAssets = []string{"USDT", "BUSD", "USDC", "FDUSD", "BTC", "ETH", "BNB", "EUR", "USD"}

// SplitAssetQuote splits a trading pair into asset and quote parts
func SplitAssetQuote(pair string) (asset, quote string, err error) {
	for _, quote = range quoteAssets {
		if len(pair) > len(quote) && pair[len(pair)-len(quote):] == quote {
			return pair[:len(pair)-len(quote)], quote, nil
		}
	}

	return "", "", fmt.Errorf("%w: %s", ErrInvalidPair, pair)
}

// setupBackoffRetry creates a backoff with sensible defaults
func setupBackoffRetry() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// lotSize converts a precision in digits into the smallest representable amount
func lotSize(precision int) decimal.Decimal {
	return decimal.New(1, int32(-precision))
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", ErrMalformedKline, field, value)
	}
	return parsed, nil
}
