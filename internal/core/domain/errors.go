package domain

import "errors"

var (
	ErrMalformedMessage     = errors.New("malformed message")
	ErrChannelNotRegistered = errors.New("channel not registered")
	ErrUnresolvedTarget     = errors.New("unresolved target server")
	ErrUnsupportedQuery     = errors.New("unsupported ledger query")
	ErrLedgerUnavailable    = errors.New("ledger unavailable")
	ErrTransportSend        = errors.New("transport send failed")
)
