package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	tb "gopkg.in/tucnak/telebot.v2"
)

// sender is the part of the telebot client used to deliver messages
type sender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

// Telegram sends run notifications to a fixed list of users
type Telegram struct {
	settings core.TelegramSettings
	client   sender
	log      logger.Logger
	orders   bool
}

// Option is a function that configures a Telegram instance
type Option func(telegram *Telegram)

// WithLogger sets the logger used to report delivery failures
func WithLogger(log logger.Logger) Option {
	return func(telegram *Telegram) {
		telegram.log = log
	}
}

// WithOrders also sends a message for every filled order
func WithOrders(enabled bool) Option {
	return func(telegram *Telegram) {
		telegram.orders = enabled
	}
}

// NewTelegram creates a Telegram notifier from the bot settings
func NewTelegram(settings core.TelegramSettings, options ...Option) (*Telegram, error) {
	if settings.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	client, err := tb.NewBot(tb.Settings{
		ParseMode: tb.ModeMarkdown,
		Token:     settings.Token,
		Poller:    &tb.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegram(client, settings, options...), nil
}

func newTelegram(client sender, settings core.TelegramSettings, options ...Option) *Telegram {
	telegram := &Telegram{
		settings: settings,
		client:   client,
		log:      zerolog.Nop(),
	}

	for _, option := range options {
		option(telegram)
	}

	return telegram
}

// Notify sends a message to all authorized users
func (t *Telegram) Notify(text string) {
	for _, user := range t.settings.Users {
		if _, err := t.client.Send(&tb.User{ID: int64(user)}, text); err != nil {
			t.log.WithError(err).WithField("user", user).Error("failed to send notification")
		}
	}
}

// OnOrder notifies users about a filled order when order messages are enabled
func (t *Telegram) OnOrder(order core.Order) {
	if !t.orders {
		return
	}
	t.Notify(fmt.Sprintf("%s\n-----\n`%s`", orderTitle(order), orderBody(order)))
}

// OnError notifies users about errors
func (t *Telegram) OnError(err error) {
	t.Notify(errorMessage(err))
}

// Summary sends a rendered report as a code block
func (t *Telegram) Summary(title, report string) {
	t.Notify(fmt.Sprintf("*%s*\n```\n%s\n```", title, strings.TrimSpace(report)))
}
