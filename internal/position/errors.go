package position

import "errors"

// Terminal close-path failures
var (
	ErrPositionNotFound = errors.New("no open position found")
	ErrNoPositionSize   = errors.New("position has no size")
	ErrInvalidSide      = errors.New("invalid position side")
	ErrInvalidSymbol    = errors.New("invalid symbol")
)
