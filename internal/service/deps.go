package service

import (
	"context"

	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metadata"
)

// LedgerSubmitter sends signed transfers to the token contract.
type LedgerSubmitter interface {
	SubmitTransfer(ctx context.Context, cred ledger.Credential, to string, amount uint64) (string, error)
}

// EventSource yields the contract's Transfer events, live and historic.
type EventSource interface {
	SubscribeTransferEvents(ctx context.Context, contract string) (ledger.Subscription, error)
	TransferEventsSince(ctx context.Context, contract string, fromBlock uint64) ([]ledger.TransferEvent, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type MetadataStore interface {
	Put(ctx context.Context, doc metadata.Document) (string, error)
	Get(ctx context.Context, cid string) (metadata.Document, error)
}
