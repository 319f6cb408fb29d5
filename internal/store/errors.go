package store

import "errors"

var (
	ErrAccountExists     = errors.New("account already exists")
	ErrRecordNotFound    = errors.New("record not found")
	ErrAmountOutOfRange  = errors.New("amount exceeds the storable range")
	ErrInvalidStatus     = errors.New("invalid transfer status")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
