package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds
// Every well known error wraps exactly one kind, so callers may classify errors with errors.Is
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("action not allowed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
	ErrRemoteStore       = errors.New("remote store error")
)

var (
	ErrUserAlreadyExists = New(ErrConflict, "user already exists")
	ErrUserNotFound      = New(ErrNotFound, "user not found")
	ErrPasswordEmpty     = New(ErrValidation, "password must not be empty")

	ErrRefreshTokenNotFound = New(ErrUnauthenticated, "refresh token not found")
	ErrRefreshTokenIsUsed   = New(ErrUnauthenticated, "refresh token is used")
	ErrRefreshTokenExpired  = New(ErrUnauthenticated, "refresh token is expired")

	ErrProfileNotFound = New(ErrNotFound, "profile not found")
	ErrProfileConflict = New(ErrConflict, "profile was modified concurrently")

	ErrAmountNotPositive      = New(ErrValidation, "amount must be positive")
	ErrAmountPrecision        = New(ErrValidation, "amount must have at most two decimal places")
	ErrAmountTooLarge         = New(ErrValidation, "amount must not exceed 9999999999999.99")
	ErrTransactionTypeInvalid = New(ErrValidation, "transaction type must be deposit or withdraw")
	ErrTransactionNotFound    = New(ErrNotFound, "transaction not found")
	ErrTransactionNotPending  = New(ErrInvalidState, "transaction is not pending")
	ErrBalanceInsufficient    = New(ErrInsufficientFunds, "insufficient balance")
	ErrBalanceLimit           = New(ErrValidation, "deposit would exceed the balance limit")

	ErrNotificationNotFound = New(ErrNotFound, "notification not found")

	ErrTicketSubjectEmpty    = New(ErrValidation, "ticket subject must not be empty")
	ErrTicketPriorityInvalid = New(ErrValidation, "ticket priority must be low, medium or high")

	ErrActionForbidden = New(ErrForbidden, "admin role required")
	ErrSessionMissing  = New(ErrUnauthenticated, "no active session")
	ErrSessionLoading  = New(ErrInvalidState, "session is loading, try again later")
)

// Error is a user facing error of a well known kind
type Error struct {
	Kind error
	Msg  string
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Message returns the user facing message of the innermost well known error
// Unknown errors are never exposed as is
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}

// StoreError reports a remote store failure together with the step it happened on
type StoreError struct {
	Step string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failed at step %q: %v", e.Step, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrRemoteStore
}

var kinds = []error{
	ErrValidation,
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrInvalidState,
	ErrInsufficientFunds,
	ErrConflict,
}

// AtStep annotates err with the workflow step it happened on
// Errors of a well known kind keep it; everything else becomes *StoreError
func AtStep(step string, err error) error {
	if err == nil {
		return nil
	}

	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}

	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", step, err)
		}
	}

	return &StoreError{Step: step, Err: err}
}
