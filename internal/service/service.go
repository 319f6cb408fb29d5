package service

import (
	"github.com/hance08/dtl/internal/config"
	"github.com/hance08/dtl/internal/ledger"
	"github.com/hance08/dtl/internal/metrics"
	"github.com/hance08/dtl/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	Account   *AccountService
	Transfer  *TransferService
	Submitter *Submitter
}

// Deps are the collaborators a Service is built from. Ledger and Metadata
// may be nil for commands that only read the cache.
type Deps struct {
	Repo        store.Repository
	Ledger      LedgerSubmitter
	Metadata    MetadataStore
	Credentials ledger.Credentials
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

func NewService(deps Deps, cfg *config.Config) *Service {
	return &Service{
		Account:   NewAccountService(deps.Repo, cfg.Seed, deps.Logger),
		Transfer:  NewTransferService(deps.Repo, deps.Metadata),
		Submitter: NewSubmitter(deps.Repo, deps.Ledger, deps.Metadata, deps.Credentials, deps.Logger, deps.Metrics),
	}
}
