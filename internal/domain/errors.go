package domain

import "errors"

var (
	ErrWeekNotFound     = errors.New("week not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidQuantity  = errors.New("quantity must be a finite number >= 0")
	ErrInvalidWeek      = errors.New("invalid ISO week")
	ErrInvalidDelivery  = errors.New("invalid delivery dates")
	ErrStorageDisabled  = errors.New("object storage is not configured")
	ErrImportFileFormat = errors.New("unrecognized import file format")
)
