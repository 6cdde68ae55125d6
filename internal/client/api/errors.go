package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/sharefin/internal/apperrors"
)

var ErrTooManyRequests = errors.New("too many requests")

// Error is a non 2xx response of the server
// It unwraps to the well known error named by the message or to the kind of the status
type Error struct {
	Status  int
	Type    string
	Message string
	Fields  map[string]string

	kind error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with %d", e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Errors the server reports by message
var wellKnown = []*apperrors.Error{
	apperrors.ErrUserAlreadyExists,
	apperrors.ErrUserNotFound,
	apperrors.ErrRefreshTokenNotFound,
	apperrors.ErrProfileNotFound,
	apperrors.ErrProfileConflict,
	apperrors.ErrAmountNotPositive,
	apperrors.ErrAmountPrecision,
	apperrors.ErrAmountTooLarge,
	apperrors.ErrTransactionTypeInvalid,
	apperrors.ErrTransactionNotFound,
	apperrors.ErrTransactionNotPending,
	apperrors.ErrBalanceInsufficient,
	apperrors.ErrBalanceLimit,
	apperrors.ErrNotificationNotFound,
	apperrors.ErrTicketSubjectEmpty,
	apperrors.ErrTicketPriorityInvalid,
	apperrors.ErrActionForbidden,
	apperrors.ErrSessionMissing,
}

// Map status to error kind
func kindOf(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusPaymentRequired:
		return apperrors.ErrInsufficientFunds
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrInvalidState
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	default:
		return apperrors.ErrRemoteStore
	}
}

func newError(status int, body errorBody) *Error {
	e := &Error{
		Status:  status,
		Type:    body.Error,
		Message: body.Message,
		Fields:  body.Fields,
		kind:    kindOf(status),
	}

	for _, known := range wellKnown {
		if strings.EqualFold(known.Msg, body.Message) {
			e.kind = known
			break
		}
	}

	return e
}
