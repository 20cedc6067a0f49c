package binance

import (
	"context"

	"github.com/raykavin/backsim/pkg/logger"
)

// Config represents the configuration of the Binance market data client
type Config struct {
	// API credentials, optional for public market data
	APIKey    string
	APISecret string

	UseTestnet bool

	// Retries is how many times a failed request is repeated
	Retries int

	CustomMainAPI    CustomEndpoint
	CustomTestnetAPI CustomEndpoint
}

// CustomEndpoint represents custom API endpoints
type CustomEndpoint struct {
	API       string
	WebSocket string
	Combined  string
}

// NewExchange creates a spot client from the provided configuration
func NewExchange(ctx context.Context, log logger.Logger, config Config) (*Spot, error) {
	options := []SpotOption{WithLogger(log)}

	if config.APIKey != "" && config.APISecret != "" {
		options = append(options, WithCredentials(config.APIKey, config.APISecret))
	}

	if config.UseTestnet {
		options = append(options, WithTestNet())
	}

	if config.Retries > 0 {
		options = append(options, WithRetries(config.Retries))
	}

	if config.CustomMainAPI.API != "" {
		options = append(options, WithCustomMainAPIEndpoint(
			config.CustomMainAPI.API,
			config.CustomMainAPI.WebSocket,
			config.CustomMainAPI.Combined,
		))
	}

	if config.CustomTestnetAPI.API != "" {
		options = append(options, WithCustomTestnetAPIEndpoint(
			config.CustomTestnetAPI.API,
			config.CustomTestnetAPI.WebSocket,
			config.CustomTestnetAPI.Combined,
		))
	}

	return NewSpot(ctx, options...)
}
