package types

import "errors"

// Common errors
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownOutcome     = errors.New("unknown outcome")
	ErrSessionNotFound    = errors.New("session not found")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrContractError      = errors.New("contract error")
	ErrCountryNotFound    = errors.New("country not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrTransactionFailed  = errors.New("transaction reverted")
)
