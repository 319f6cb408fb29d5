package model

import (
	"fmt"
	"strings"
)

type TransferStatus string

const (
	StatusPending   TransferStatus = "pending"
	StatusConfirmed TransferStatus = "confirmed"
)

// Rank orders statuses along the lifecycle; zero means unknown. The
// transfer upsert enforces the same order in SQL: a stored row never moves
// to a lower rank.
func (s TransferStatus) Rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusConfirmed:
		return 2
	default:
		return 0
	}
}

func (s TransferStatus) Valid() bool {
	return s.Rank() > 0
}

// ParseTransferStatus parses user input such as a list filter.
func ParseTransferStatus(s string) (TransferStatus, error) {
	status := TransferStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid transfer status '%s' (must be pending or confirmed)", s)
	}
	return status, nil
}

// Transfer is one ledger transfer as known to the cache. ID is the ledger
// transaction hash; no row exists before the ledger has assigned it.
type Transfer struct {
	ID          string         `json:"id"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Amount      uint64         `json:"amount"`
	Status      TransferStatus `json:"status"`
	MetadataRef string         `json:"metadata_reference,omitempty"`
	BlockNumber uint64         `json:"block_number,omitempty"`
	CreatedAt   int64          `json:"created_at"`
	UpdatedAt   int64          `json:"updated_at"`
}

// TransferFilter narrows a transfer history query.
type TransferFilter struct {
	Account string
	Status  TransferStatus
	Limit   int
}

// EventKey identifies one emitted ledger event.
type EventKey struct {
	TxHash      string
	LogIndex    uint
	BlockNumber uint64
}
