package errors

import "errors"

var (
	ErrRequestNotFound        = errors.New("request not found")
	ErrAssetNotFound          = errors.New("referenced asset batch not found")
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrInvalidRequestInput    = errors.New("invalid request input")
	ErrInsufficientStock      = errors.New("requested quantity exceeds remaining stock")
	ErrUnauthorized           = errors.New("caller role is not allowed to perform this action")
	ErrOutOfOrder             = errors.New("admin approval requires store approval first")
	ErrAlreadyProcessed       = errors.New("request has already been processed")
	ErrNotReady               = errors.New("request is not ready for issuance")
	ErrMovementUnauthorized   = errors.New("caller may not move this asset batch")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
)
