package valuation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBalance is wrapped by every BalanceParseError
	ErrInvalidBalance = errors.New("invalid raw balance")

	// ErrUnknownHoldingKind is returned by ParseHoldingKind
	ErrUnknownHoldingKind = errors.New("unknown holding kind")
)

// BalanceParseError reports a raw balance that is not a non-negative integer
type BalanceParseError struct {
	ContractAddress string
	RawBalance      string
}

func (e *BalanceParseError) Error() string {
	return fmt.Sprintf("invalid raw balance %q for contract %s", e.RawBalance, e.ContractAddress)
}

func (e *BalanceParseError) Unwrap() error {
	return ErrInvalidBalance
}
