package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores and the ledger coordinator.
// Every kind except ErrStorageUnavailable reflects caller input and must
// never be retried; ErrStorageUnavailable is the one retryable kind.
var (
	ErrIDSpaceExhausted   = errors.New("account ID space exhausted")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid user or PIN")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrRecipientDisabled  = errors.New("recipient account is disabled")
	ErrSelfTransfer       = errors.New("cannot transfer to yourself")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports which registration field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
