package service

import "errors"

var (
	ErrUnknownSender          = errors.New("unknown sender address")
	ErrInvalidTransfer        = errors.New("invalid transfer")
	ErrLedgerSubmissionFailed = errors.New("ledger submission failed")
	ErrLedgerUnavailable      = errors.New("ledger client not configured")
	ErrNoMetadata             = errors.New("transfer has no metadata reference")
	ErrInvalidSeed            = errors.New("invalid seed account")
	ErrInvalidFilter          = errors.New("invalid transfer filter")

	// ErrMetadataUploadFailed and ErrCacheWriteFailed never reach a caller;
	// they tag log entries for failures that do not fail the operation.
	ErrMetadataUploadFailed = errors.New("metadata upload failed")
	ErrCacheWriteFailed     = errors.New("cache write failed")
)
