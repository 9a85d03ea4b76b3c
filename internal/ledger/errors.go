package ledger

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/kivoro-ledger/internal/models"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// Error ties a ledger failure to the account it happened on.
type Error struct {
	Kind    models.ErrorKind
	Account string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Account, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind models.ErrorKind, account string, err error) *Error {
	return &Error{Kind: kind, Account: account, Err: err}
}

// storageError marks err as a storage failure while keeping it inspectable.
func storageError(account string, err error) *Error {
	return newError(models.KindStorageUnavailable, account, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}

// KindOf extracts the error kind, defaulting to storage for anything unclassified.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return models.KindNone
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return models.KindInsufficientFunds
	case errors.Is(err, ErrInvalidAmount):
		return models.KindInvalidAmount
	}
	return models.KindStorageUnavailable
}
