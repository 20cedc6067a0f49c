package core

import "errors"

var (
	ErrDimensionMismatch      = errors.New("dimension mismatch")
	ErrDivisionByZero         = errors.New("division by zero")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrUnsupportedOrderKind   = errors.New("unsupported order kind")
	ErrUnsupportedOrderStatus = errors.New("unsupported order status")
	ErrMissingTimestamp       = errors.New("missing timestamp")
	ErrUnknownAsset           = errors.New("unknown asset")
	ErrMissingCandle          = errors.New("missing candle")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidPeriod          = errors.New("invalid period")
	ErrInvalidIntent          = errors.New("invalid intent")
)
