package errors

import "errors"

var (
	ErrAssetNotFound     = errors.New("asset batch not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("requested amount exceeds remaining stock")
	ErrInvalidAssetInput = errors.New("invalid asset batch input")
	ErrUnauthorized      = errors.New("caller is not authorized for this registry operation")
)
