package store

import (
	"context"

	"github.com/hance08/dtl/internal/model"
)

type AccountRepository interface {
	GetAllAccounts(ctx context.Context) ([]*model.Account, error)
	GetAccount(ctx context.Context, address string) (*model.Account, error)
	SeedAccounts(ctx context.Context, seeds []model.AccountSeed) error
	ApplyBalanceTransfer(ctx context.Context, from, to string, amount uint64) error
}

type TransferRepository interface {
	UpsertTransaction(ctx context.Context, t *model.Transfer) error
	GetTransaction(ctx context.Context, id string) (*model.Transfer, error)
	ListTransactions(ctx context.Context, filter model.TransferFilter) ([]*model.Transfer, error)
}

// ProgressRepository tracks which ledger events have been applied and how
// far the event stream has been consumed.
type ProgressRepository interface {
	ApplyTransferEvent(ctx context.Context, key model.EventKey, from, to string, amount uint64) (bool, error)
	Checkpoint(ctx context.Context, name string) (uint64, bool, error)
	SaveCheckpoint(ctx context.Context, name string, block uint64) error
}

type Repository interface {
	AccountRepository
	TransferRepository
	ProgressRepository

	ExecTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
