package errors

import (
	"errors"
	"fmt"
)

// Categories. Every specific error below wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrNilUser                = fmt.Errorf("%w: user is nil", ErrValidation)
	ErrUserNotFound           = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrUnknownUser            = fmt.Errorf("%w: unknown user", ErrValidation)
	ErrEmailExists            = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrUserHasLedger          = fmt.Errorf("%w: user has ledger history", ErrConflict)
	ErrNilTransaction         = fmt.Errorf("%w: transaction is nil", ErrValidation)
	ErrZeroAmount             = fmt.Errorf("%w: amount must be non-zero", ErrValidation)
	ErrInvalidTransactionType = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrNilRule                = fmt.Errorf("%w: rule is nil", ErrValidation)
	ErrRuleNotFound           = fmt.Errorf("%w: coin rule not found", ErrNotFound)
	ErrRuleConflict           = fmt.Errorf("%w: an active rule already exists for this action type", ErrConflict)
	ErrEmptyActionType        = fmt.Errorf("%w: action_type is required", ErrValidation)
	ErrEmptyRuleName          = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidCoins           = fmt.Errorf("%w: coins_awarded must be a non-zero integer", ErrValidation)
	ErrEventAlreadyProcessed  = fmt.Errorf("%w: event already processed", ErrConflict)
	ErrNotificationNotFound   = fmt.Errorf("%w: notification not found", ErrNotFound)
	ErrInvalidGoal            = fmt.Errorf("%w: invalid goal", ErrValidation)
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken           = fmt.Errorf("%w: invalid or revoked token", ErrUnauthorized)
	ErrAdminOnly              = fmt.Errorf("%w: admin access required", ErrForbidden)
)

// Code returns the wire code for err, used in {code, message} error bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "internal_error"
	}
}
