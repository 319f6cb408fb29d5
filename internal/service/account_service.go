package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"github.com/hance08/dtl/internal/validation"
	"go.uber.org/zap"
)

type AccountService struct {
	repo   store.AccountRepository
	seeds  []model.AccountSeed
	logger *zap.Logger
}

func NewAccountService(repo store.AccountRepository, seeds []model.AccountSeed, logger *zap.Logger) *AccountService {
	return &AccountService{repo: repo, seeds: seeds, logger: logger.Named("accounts")}
}

func (as *AccountService) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	return as.repo.GetAllAccounts(ctx)
}

func (as *AccountService) GetAccount(ctx context.Context, address string) (*model.Account, error) {
	addr, err := validation.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return as.repo.GetAccount(ctx, addr)
}

// ConfiguredSeeds returns the bootstrap set Seed installs.
func (as *AccountService) ConfiguredSeeds() []model.AccountSeed {
	return as.seeds
}

// Seed replaces the cached account set with the configured seeds. It is a
// demo bootstrap: balances are not reconciled against the ledger.
func (as *AccountService) Seed(ctx context.Context) ([]*model.Account, error) {
	return as.SeedAccounts(ctx, as.seeds)
}

func (as *AccountService) SeedAccounts(ctx context.Context, seeds []model.AccountSeed) ([]*model.Account, error) {
	normalized := make([]model.AccountSeed, 0, len(seeds))
	seen := make(map[string]bool, len(seeds))

	for _, s := range seeds {
		addr, err := validation.NormalizeAddress(s.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		if seen[addr] {
			return nil, fmt.Errorf("%w: duplicate address %s", ErrInvalidSeed, addr)
		}
		if s.Balance < 0 {
			return nil, fmt.Errorf("%w: balance of %s can't be negative", ErrInvalidSeed, addr)
		}
		if err := validation.ValidateDisplayName(s.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		seen[addr] = true
		normalized = append(normalized, model.AccountSeed{Address: addr, Name: strings.TrimSpace(s.Name), Balance: s.Balance})
	}

	if err := as.repo.SeedAccounts(ctx, normalized); err != nil {
		return nil, fmt.Errorf("failed to seed accounts: %w", err)
	}
	as.logger.Info("accounts seeded", zap.Int("accounts", len(normalized)))

	return as.repo.GetAllAccounts(ctx)
}
