package metadata

import (
	"errors"
	"time"

	"github.com/hance08/dtl/internal/constants"
)

var (
	ErrEmptyReference = errors.New("metadata reference is empty")
	ErrUnavailable    = errors.New("metadata store unavailable")
)

// Document is the annotation stored alongside a transfer. It is never
// consulted for balances or status.
type Document struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

func NewDocument(from, to string, amount uint64, at time.Time) Document {
	return Document{
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: at.UTC().Format(time.RFC3339),
		Type:      constants.MetadataDocumentType,
	}
}
