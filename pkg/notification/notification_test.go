package notification

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tb "gopkg.in/tucnak/telebot.v2"
)

type sent struct {
	to   string
	text string
}

type fakeSender struct {
	messages []sent
	err      error
}

func (f *fakeSender) Send(to tb.Recipient, what interface{}, _ ...interface{}) (*tb.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.messages = append(f.messages, sent{to: to.Recipient(), text: fmt.Sprint(what)})
	return &tb.Message{}, nil
}

func closedOrder() core.Order {
	usd := core.NewAsset("USD", "United States Dollar", decimal.RequireFromString("0.01"))
	btc := core.NewAsset("BTC", "Bitcoin", decimal.RequireFromString("0.00000001"))
	pair := core.NewPair(btc, usd)
	price := core.NewPrice(pair, decimal.NewFromInt(100))

	return core.Order{
		ID:             3,
		Pair:           pair,
		Direction:      core.DirectionBuy,
		Kind:           core.OrderKindMarket,
		Status:         core.OrderStatusClosed,
		Quantity:       core.NewQuantity(btc, decimal.NewFromInt(1)),
		ExecutionPrice: &price,
		Fee:            core.NewQuantity(btc, decimal.RequireFromString("0.0024")),
		UpdatedAt:      time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC),
	}
}

func TestTelegram(t *testing.T) {
	client := &fakeSender{}
	telegram := newTelegram(client, core.TelegramSettings{Users: []int{10, 20}}, WithOrders(true))

	telegram.Notify("hello")
	require.Len(t, client.messages, 2)
	require.Equal(t, "10", client.messages[0].to)
	require.Equal(t, "20", client.messages[1].to)

	telegram.OnOrder(closedOrder())
	require.Len(t, client.messages, 4)
	require.Contains(t, client.messages[2].text, "ORDER FILLED - BTC/USD")
	require.Contains(t, client.messages[2].text, "Fee: 0.00240000 BTC")
	require.Contains(t, client.messages[2].text, "Price: 1 BTC = 100.00 USD")

	telegram.Summary("Report", "  table  \n")
	require.Equal(t, "*Report*\n```\ntable\n```", client.messages[4].text)
}

func TestTelegramSkipsOrders(t *testing.T) {
	client := &fakeSender{}
	telegram := newTelegram(client, core.TelegramSettings{Users: []int{10}})

	telegram.OnOrder(closedOrder())
	require.Empty(t, client.messages)

	telegram.OnError(errors.New("boom"))
	require.Len(t, client.messages, 1)
	require.True(t, strings.HasSuffix(client.messages[0].text, "boom"))
}

func TestTelegramSendFailure(t *testing.T) {
	client := &fakeSender{err: errors.New("network")}
	telegram := newTelegram(client, core.TelegramSettings{Users: []int{10}})

	require.NotPanics(t, func() { telegram.Notify("hello") })
}

func TestNewTelegramRequiresToken(t *testing.T) {
	_, err := NewTelegram(core.TelegramSettings{})
	require.Error(t, err)
}

func TestMail(t *testing.T) {
	var (
		addr    string
		to      []string
		message string
	)

	mail := NewMail(MailParams{
		SMTPServerPort:    587,
		SMTPServerAddress: "smtp.example.com",
		To:                "me@example.com",
		From:              "bot@example.com",
		Password:          "secret",
	})
	mail.send = func(a string, _ smtp.Auth, _ string, recipients []string, msg []byte) error {
		addr, to, message = a, recipients, string(msg)
		return nil
	}

	mail.OnOrder(closedOrder())
	require.Equal(t, "smtp.example.com:587", addr)
	require.Equal(t, []string{"me@example.com"}, to)
	require.Contains(t, message, "Subject: ✅ ORDER FILLED - BTC/USD\r\n\r\nID: 3\n")

	mail.OnError(errors.New("disk full"))
	require.Contains(t, message, "Subject: 🛑 ERROR")
	require.Contains(t, message, "disk full")
}

func TestMulti(t *testing.T) {
	first, second := &fakeSender{}, &fakeSender{}
	multi := Multi{
		newTelegram(first, core.TelegramSettings{Users: []int{1}}),
		newTelegram(second, core.TelegramSettings{Users: []int{2}}),
	}

	multi.Notify("done")
	require.Len(t, first.messages, 1)
	require.Len(t, second.messages, 1)
}
