package exchange

import (
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DefaultFee is the fee percentage charged on the credited leg of every fill
var DefaultFee = decimal.RequireFromString("0.24")

// BalanceReaderFunc adapts a function to BalanceReader
type BalanceReaderFunc func(at time.Time, asset core.Asset) (core.Quantity, error)

// BalanceOf implements BalanceReader
func (f BalanceReaderFunc) BalanceOf(at time.Time, asset core.Asset) (core.Quantity, error) {
	return f(at, asset)
}

// PaperWallet is a simulated exchange. It fills orders against historical
// candles and keeps the resulting balances in a Ledger.
type PaperWallet struct {
	mu sync.Mutex

	log        logger.Logger
	ledger     *Ledger
	feeder     core.Feeder
	normalizer *Normalizer
	storage    core.OrderStorage
	reference  core.Asset
	fee        decimal.Decimal
	counter    int64
	orders     []*core.Order
}

// PaperWalletOption configures a PaperWallet
type PaperWalletOption func(*PaperWallet)

// WithPaperFee sets the fee percentage, e.g. 0.24 for 0.24%
func WithPaperFee(percent decimal.Decimal) PaperWalletOption {
	return func(wallet *PaperWallet) {
		wallet.fee = percent
	}
}

// WithOrderStorage persists every created or updated order
func WithOrderStorage(storage core.OrderStorage) PaperWalletOption {
	return func(wallet *PaperWallet) {
		wallet.storage = storage
	}
}

// WithPaperLogger sets the wallet logger
func WithPaperLogger(log logger.Logger) PaperWalletOption {
	return func(wallet *PaperWallet) {
		wallet.log = log
	}
}

// NewPaperWallet creates a wallet over ledger, pricing fills with feeder and
// valuing balances in reference
func NewPaperWallet(ledger *Ledger, feeder core.Feeder, reference core.Asset, options ...PaperWalletOption) *PaperWallet {
	wallet := &PaperWallet{
		log:       zerolog.Nop(),
		ledger:    ledger,
		feeder:    feeder,
		reference: reference,
		fee:       DefaultFee,
		orders:    make([]*core.Order, 0),
	}

	for _, option := range options {
		option(wallet)
	}

	wallet.normalizer = NewNormalizer(BalanceReaderFunc(wallet.balanceOf), wallet)

	wallet.log.WithFields(map[string]any{
		"fee":       wallet.fee.String() + "%",
		"reference": reference.Symbol,
		"negative":  ledger.AllowNegative(),
	}).Info("[SETUP] Using paper wallet")

	return wallet
}

// Ledger exposes the wallet ledger
func (p *PaperWallet) Ledger() *Ledger { return p.ledger }

// Reference returns the valuation asset
func (p *PaperWallet) Reference() core.Asset { return p.reference }

// Fee returns the fee percentage
func (p *PaperWallet) Fee() decimal.Decimal { return p.fee }

// InstantPrice returns the mean of the candle covering at
func (p *PaperWallet) InstantPrice(pair core.Pair, at time.Time) (core.Price, error) {
	candle, err := p.feeder.Candle(pair, at)
	if err != nil {
		return core.Price{}, err
	}
	return candle.MeanPrice(pair), nil
}

// RefreshStatus fills every open order whose condition is met by the candle at at
func (p *PaperWallet) RefreshStatus(at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refresh(at)
}

// refresh must run before any read or write. Reads older than the last ledger
// change do not fill anything.
func (p *PaperWallet) refresh(at time.Time) error {
	if at.IsZero() {
		return core.ErrMissingTimestamp
	}

	if at.Before(p.ledger.UpdatedAt()) {
		return nil
	}

	for _, order := range p.orders {
		if order.Status != core.OrderStatusOpen {
			continue
		}

		fill, err := p.shouldFill(order, at)
		if err != nil {
			return err
		}

		if !fill {
			continue
		}

		if err := p.applyBalanceEffect(order, at); err != nil {
			return err
		}

		order.Status = core.OrderStatusClosed
		order.UpdatedAt = at.UTC()

		if err := p.persist(order, false); err != nil {
			return err
		}

		p.log.WithField("order", order.ID).Debugf("filled %s at %s", order, order.ExecutionPrice)
	}

	return nil
}

// shouldFill checks an open order against the candle at at
func (p *PaperWallet) shouldFill(order *core.Order, at time.Time) (bool, error) {
	switch order.Kind {
	case core.OrderKindMarket:
		return true, nil
	case core.OrderKindLimit:
		if order.LimitPrice == nil {
			return false, newOrderError(fmt.Errorf("%w: limit order without limit price", core.ErrInvalidIntent), order)
		}

		candle, err := p.feeder.Candle(order.Pair, at)
		if err != nil {
			return false, newOrderError(err, order)
		}

		limit := order.LimitPrice.Value()
		if order.Direction == core.DirectionBuy {
			return limit.GreaterThanOrEqual(candle.Low), nil
		}
		return limit.LessThanOrEqual(candle.High), nil
	default:
		return false, newOrderError(fmt.Errorf("%w: %s", core.ErrUnsupportedOrderKind, order.Kind), order)
	}
}

// executionPrice is the candle mean for market orders and the limit for limit orders
func (p *PaperWallet) executionPrice(order *core.Order, at time.Time) (core.Price, error) {
	switch order.Kind {
	case core.OrderKindMarket:
		price, err := p.InstantPrice(order.Pair, at)
		if err != nil {
			return core.Price{}, newOrderError(err, order)
		}
		return price, nil
	case core.OrderKindLimit:
		if order.LimitPrice == nil {
			return core.Price{}, newOrderError(fmt.Errorf("%w: limit order without limit price", core.ErrInvalidIntent), order)
		}
		return *order.LimitPrice, nil
	default:
		return core.Price{}, newOrderError(fmt.Errorf("%w: %s", core.ErrUnsupportedOrderKind, order.Kind), order)
	}
}

// fees splits a credit into the fee and the net amount. Base credits are
// quantized once as credit * (1 - fee%), quote credits quantize the fee itself.
func (p *PaperWallet) fees(credit core.Quantity, direction core.Direction) (fee, net core.Quantity, err error) {
	rate := p.fee.Div(hundred)

	if direction == core.DirectionBuy {
		net = core.NewQuantity(credit.Asset(), credit.Amount().Mul(decimal.NewFromInt(1).Sub(rate)))
		fee, err = credit.Sub(net)
		return fee, net, err
	}

	fee = credit.Mul(rate)
	net, err = credit.Sub(fee)
	return fee, net, err
}

// ApplyBalanceEffect applies the ledger leg matching the order direction and status
func (p *PaperWallet) ApplyBalanceEffect(order *core.Order, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applyBalanceEffect(order, at)
}

// applyBalanceEffect applies one leg:
//
//	BUY  CREATED: debit quote by quantity * execution price
//	BUY  OPEN:    credit base quantity minus fee
//	SELL CREATED: debit base quantity
//	SELL OPEN:    credit quote by quantity * execution price minus fee
//
// The order is only updated when the ledger accepted the delta.
func (p *PaperWallet) applyBalanceEffect(order *core.Order, at time.Time) error {
	var (
		delta core.Quantity
		price *core.Price
		cost  = order.Cost
		fee   = order.Fee
		net   = order.Executed
	)

	switch {
	case order.Direction == core.DirectionBuy && order.Status == core.OrderStatusCreated:
		execution, err := p.executionPrice(order, at)
		if err != nil {
			return err
		}

		if cost, err = order.Quantity.MultiplyByPrice(execution); err != nil {
			return newOrderError(err, order)
		}
		delta, price = cost.Neg(), &execution

	case order.Direction == core.DirectionBuy && order.Status == core.OrderStatusOpen:
		var err error
		if fee, net, err = p.fees(order.Quantity, order.Direction); err != nil {
			return newOrderError(err, order)
		}
		delta = net

	case order.Direction == core.DirectionSell && order.Status == core.OrderStatusCreated:
		delta = order.Quantity.Neg()

	case order.Direction == core.DirectionSell && order.Status == core.OrderStatusOpen:
		execution, err := p.executionPrice(order, at)
		if err != nil {
			return err
		}

		if cost, err = order.Quantity.MultiplyByPrice(execution); err != nil {
			return newOrderError(err, order)
		}
		if fee, net, err = p.fees(cost, order.Direction); err != nil {
			return newOrderError(err, order)
		}
		delta, price = net, &execution

	case order.Direction != core.DirectionBuy && order.Direction != core.DirectionSell:
		return newOrderError(fmt.Errorf("%w: direction %s", core.ErrUnsupportedOrderKind, order.Direction), order)

	default:
		return newOrderError(fmt.Errorf("%w: %s", core.ErrUnsupportedOrderStatus, order.Status), order)
	}

	if err := p.ledger.ApplyDelta(delta, at); err != nil {
		return newOrderError(err, order)
	}

	order.Cost, order.Fee, order.Executed = cost, fee, net
	if price != nil {
		order.ExecutionPrice = price
	}

	return nil
}

// AddOrder places a resolved order. Holds and zero quantities are returned
// unchanged. Market orders are filled right away, limit orders stay open
// until a later refresh fills them.
func (p *PaperWallet) AddOrder(at time.Time, order *core.Order) (*core.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addOrder(at, order)
}

func (p *PaperWallet) addOrder(at time.Time, order *core.Order) (*core.Order, error) {
	if at.IsZero() {
		return nil, core.ErrMissingTimestamp
	}

	if order.IsHold() {
		return order, nil
	}

	if !order.IsResolved() {
		return nil, newOrderError(fmt.Errorf("%w: quantity is not resolved", core.ErrInvalidQuantity), order)
	}

	if order.Quantity.IsZero() {
		return order, nil
	}

	if order.Quantity.IsNegative() {
		return nil, newOrderError(core.ErrInvalidQuantity, order)
	}

	if order.Kind != core.OrderKindMarket && order.Kind != core.OrderKindLimit {
		return nil, newOrderError(fmt.Errorf("%w: %s", core.ErrUnsupportedOrderKind, order.Kind), order)
	}

	if err := p.refresh(at); err != nil {
		return nil, err
	}

	p.counter++
	order.ID = p.counter
	order.Status = core.OrderStatusCreated

	if err := p.applyBalanceEffect(order, at); err != nil {
		return nil, err
	}

	order.Status = core.OrderStatusOpen
	order.UpdatedAt = at.UTC()

	var fillErr error
	if order.Kind == core.OrderKindMarket {
		if fillErr = p.applyBalanceEffect(order, at); fillErr == nil {
			order.Status = core.OrderStatusClosed
		}
	}

	p.orders = append(p.orders, order)
	if err := p.persist(order, true); err != nil {
		return order, err
	}

	p.log.WithField("order", order.ID).Debugf("placed %s", order)
	return order, fillErr
}

// SubmitOrder normalizes the order quantity and places it
func (p *PaperWallet) SubmitOrder(at time.Time, order *core.Order) (*core.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if at.IsZero() {
		return nil, core.ErrMissingTimestamp
	}

	if order.IsHold() {
		return order, nil
	}

	if err := p.normalizer.Normalize(at, order); err != nil {
		return nil, err
	}

	return p.addOrder(at, order)
}

// CancelOrder cancels an open order and gives back its opening leg without fee
func (p *PaperWallet) CancelOrder(at time.Time, id int64) (core.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.refresh(at); err != nil {
		return core.Order{}, err
	}

	order, found := lo.Find(p.orders, func(order *core.Order) bool {
		return order.ID == id
	})
	if !found {
		return core.Order{}, fmt.Errorf("%w: %d", core.ErrOrderNotFound, id)
	}

	if order.Status != core.OrderStatusOpen {
		return core.Order{}, newOrderError(fmt.Errorf("%w: cannot cancel %s order", core.ErrUnsupportedOrderStatus, order.Status), order)
	}

	refund := order.Quantity
	if order.Direction == core.DirectionBuy {
		refund = order.Cost
	}

	if err := p.ledger.ApplyDelta(refund, at); err != nil {
		return core.Order{}, newOrderError(err, order)
	}

	order.Status = core.OrderStatusCanceled
	order.UpdatedAt = at.UTC()

	if err := p.persist(order, false); err != nil {
		return *order, err
	}

	p.log.WithField("order", order.ID).Debugf("canceled %s", order)
	return *order, nil
}

// Orders returns copies of the orders matching every filter
func (p *PaperWallet) Orders(at time.Time, filters ...core.OrderFilter) ([]core.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.refresh(at); err != nil {
		return nil, err
	}

	result := make([]core.Order, 0)
	for _, order := range p.orders {
		if lo.EveryBy(filters, func(filter core.OrderFilter) bool { return filter(*order) }) {
			result = append(result, *order)
		}
	}
	return result, nil
}

// OrdersInfo returns the orders with the given ids; unknown ids are ignored
func (p *PaperWallet) OrdersInfo(at time.Time, ids ...int64) ([]core.Order, error) {
	return p.Orders(at, core.WithIDs(ids...))
}

// OpenOrders returns the orders still waiting for a fill
func (p *PaperWallet) OpenOrders(at time.Time) ([]core.Order, error) {
	return p.Orders(at, core.WithStatus(core.OrderStatusOpen))
}

// Balance refreshes and returns a ledger snapshot valued in the reference asset
func (p *PaperWallet) Balance(at time.Time) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.refresh(at); err != nil {
		return core.Snapshot{}, err
	}

	return p.ledger.Snapshot(p.reference, p, at)
}

// BalanceOf refreshes and returns the balance of one asset
func (p *PaperWallet) BalanceOf(at time.Time, asset core.Asset) (core.Quantity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balanceOf(at, asset)
}

func (p *PaperWallet) balanceOf(at time.Time, asset core.Asset) (core.Quantity, error) {
	if err := p.refresh(at); err != nil {
		return core.Quantity{}, err
	}
	return p.ledger.Balance(asset), nil
}

func (p *PaperWallet) persist(order *core.Order, created bool) error {
	if p.storage == nil {
		return nil
	}

	var err error
	if created {
		err = p.storage.CreateOrder(order)
	} else {
		err = p.storage.UpdateOrder(order)
	}

	if err != nil {
		return fmt.Errorf("persist order %d: %w", order.ID, err)
	}
	return nil
}
