package models

import "errors"

var (
	ErrInvalidSymbol    = errors.New("invalid symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidBar       = errors.New("invalid bar (high < low)")
	ErrPriceOutOfRange  = errors.New("invalid bar (open/close outside low-high range)")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrNonMonotonic     = errors.New("timestamps not strictly increasing")
	ErrInvalidInterval  = errors.New("invalid bar interval")
)
