package constants

const (
	// MetadataDocumentType tags every transfer annotation document.
	MetadataDocumentType = "MoneyToken Transfer"

	// ConfirmerCheckpoint names the sync_state row the confirmer advances.
	ConfirmerCheckpoint = "confirmer"

	// Submission result
	StatusSubmitted = "submitted"
	StatusSeeded    = "seeded"

	// Date Layout
	DateTimeFormat = "2006-01-02 15:04:05"
)
