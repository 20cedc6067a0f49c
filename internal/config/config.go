// Package config loads the settings of a backtest run using Viper
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding file settings,
// e.g. BACKSIM_FEE_PERCENT or BACKSIM_TELEGRAM_TOKEN
const EnvPrefix = "BACKSIM"

const dateLayout = "2006-01-02"

var (
	ErrMissingPair  = errors.New("pair base and quote are required")
	ErrMissingFeeds = errors.New("at least one candle feed is required")
	ErrInvalidDate  = errors.New("invalid date")
)

// PairConfig names the traded pair by asset symbols
type PairConfig struct {
	Base  string `mapstructure:"base"`
	Quote string `mapstructure:"quote"`
}

// FeedConfig points to a CSV file of candles
type FeedConfig struct {
	Pair      string `mapstructure:"pair"`
	File      string `mapstructure:"file"`
	Timeframe string `mapstructure:"timeframe"`
}

// StrategyConfig selects a registered strategy and its parameters
type StrategyConfig struct {
	Name   string         `mapstructure:"name"`
	Params map[string]any `mapstructure:"params"`
}

// StorageConfig selects where orders and results are kept
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory, buntdb or sqlite
	Path   string `mapstructure:"path"`
}

// LogConfig describes the console logger
type LogConfig struct {
	Level      string `mapstructure:"level"`
	TimeFormat string `mapstructure:"time_format"`
	Colored    bool   `mapstructure:"colored"`
	JSON       bool   `mapstructure:"json"`
}

// TelegramConfig holds the Telegram notifier settings
type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	Users   []int  `mapstructure:"users"`
	Orders  bool   `mapstructure:"orders"` // also notify every filled order
}

// MailConfig holds the mail notifier settings
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	Password string `mapstructure:"password"`
}

// Config is the full description of a backtest run
type Config struct {
	Pair                 PairConfig        `mapstructure:"pair"`
	Start                string            `mapstructure:"start"`
	End                  string            `mapstructure:"end"`
	Period               string            `mapstructure:"period"`
	FeePercent           float64           `mapstructure:"fee_percent"`
	AllowNegativeBalance bool              `mapstructure:"allow_negative_balance"`
	ReferenceAsset       string            `mapstructure:"reference_asset"`
	InitialBalance       map[string]string `mapstructure:"initial_balance"`
	Feeds                []FeedConfig      `mapstructure:"feeds"`
	AssetsFile           string            `mapstructure:"assets_file"`
	Strategy             StrategyConfig    `mapstructure:"strategy"`
	Storage              StorageConfig     `mapstructure:"storage"`
	Log                  LogConfig         `mapstructure:"log"`
	Telegram             TelegramConfig    `mapstructure:"telegram"`
	Mail                 MailConfig        `mapstructure:"mail"`
}

// DefaultInitialBalance is used when the configuration sets no balance
func DefaultInitialBalance() map[string]string {
	return map[string]string{"BTC": "0.1", "USD": "1000"}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pair.base", "")
	v.SetDefault("pair.quote", "")
	v.SetDefault("start", "")
	v.SetDefault("end", "")
	v.SetDefault("period", "1h")
	v.SetDefault("fee_percent", 0.24)
	v.SetDefault("allow_negative_balance", true)
	v.SetDefault("reference_asset", "USD")
	v.SetDefault("assets_file", "")
	v.SetDefault("strategy.name", "hold")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.time_format", time.DateTime)
	v.SetDefault("log.colored", true)
	v.SetDefault("log.json", false)
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.orders", false)
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.server", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.password", "")
}

// Load reads the configuration file at path (YAML, TOML or JSON), when given,
// and applies BACKSIM_* environment overrides. A .env file in the working
// directory is loaded first if present. The result is not validated.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(config.InitialBalance) == 0 {
		config.InitialBalance = DefaultInitialBalance()
	}

	return config, nil
}

// Validate checks the settings needed to start a run
func (c *Config) Validate() error {
	if c.Pair.Base == "" || c.Pair.Quote == "" {
		return ErrMissingPair
	}
	if len(c.Feeds) == 0 {
		return ErrMissingFeeds
	}
	for i, feed := range c.Feeds {
		if feed.Pair == "" || feed.File == "" {
			return fmt.Errorf("feed %d needs a pair and a file", i)
		}
	}

	start, end, err := c.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidDate, c.End, c.Start)
	}

	if _, err := c.Interval(); err != nil {
		return err
	}
	if c.FeePercent < 0 || c.FeePercent >= 100 {
		return fmt.Errorf("fee_percent must be in [0, 100), got %v", c.FeePercent)
	}
	if c.ReferenceAsset == "" {
		return errors.New("reference_asset is required")
	}
	for symbol, amount := range c.InitialBalance {
		if _, err := decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("initial balance of %s: %w", symbol, err)
		}
	}
	if c.Strategy.Name == "" {
		return errors.New("strategy.name is required")
	}

	switch c.Storage.Driver {
	case "memory":
	case "buntdb", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required by the %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return errors.New("telegram.token is required when telegram is enabled")
	}
	if c.Mail.Enabled && (c.Mail.Server == "" || c.Mail.To == "") {
		return errors.New("mail.server and mail.to are required when mail is enabled")
	}

	return nil
}

// ParseTime accepts RFC3339 timestamps or plain dates, read as UTC
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: use RFC3339 or %s", ErrInvalidDate, value, dateLayout)
	}
	return t, nil
}

// Range returns the parsed start and end of the run
func (c *Config) Range() (start, end time.Time, err error) {
	if start, err = ParseTime(c.Start); err != nil {
		return start, end, fmt.Errorf("start: %w", err)
	}
	if end, err = ParseTime(c.End); err != nil {
		return start, end, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// Interval returns the step period of the run
func (c *Config) Interval() (core.Period, error) {
	return core.ParsePeriod(c.Period)
}

// Fee returns the fill fee as a percentage
func (c *Config) Fee() decimal.Decimal {
	return decimal.NewFromFloat(c.FeePercent)
}

// Initial resolves the initial balance into quantities
func (c *Config) Initial(assets core.AssetResolver) ([]core.Quantity, error) {
	initial := make([]core.Quantity, 0, len(c.InitialBalance))
	for symbol, amount := range c.InitialBalance {
		asset, err := assets.Resolve(symbol)
		if err != nil {
			return nil, err
		}

		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("initial balance of %s: %w", symbol, err)
		}

		initial = append(initial, core.NewQuantity(asset, value))
	}
	return initial, nil
}

// TelegramSettings converts the Telegram section for the notifier
func (c *Config) TelegramSettings() core.TelegramSettings {
	return core.TelegramSettings{
		Enabled: c.Telegram.Enabled,
		Token:   c.Telegram.Token,
		Users:   c.Telegram.Users,
	}
}
