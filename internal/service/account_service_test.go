package service

import (
	"context"
	"testing"

	"github.com/hance08/dtl/internal/model"
	"github.com/hance08/dtl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedReplacesAccounts(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	logger, _ := observedLogger()

	svc := NewAccountService(repo, []model.AccountSeed{
		{Address: checksummed(alice), Name: " Alice ", Balance: 1200},
		{Address: bob, Name: "Bob", Balance: 1200},
	}, logger)

	require.NoError(t, repo.ApplyBalanceTransfer(ctx, mallory, bob, 5))

	accounts, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, alice, accounts[0].Address)
	assert.Equal(t, "Alice", accounts[0].DisplayName)
	assert.Equal(t, int64(1200), accounts[1].Balance)

	acc, err := svc.GetAccount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "Bob", acc.DisplayName)

	_, err = svc.GetAccount(ctx, mallory)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestSeedAccountsRejectsInvalidSeeds(t *testing.T) {
	repo := newTestStore(t)
	logger, _ := observedLogger()
	svc := NewAccountService(repo, nil, logger)

	tests := []struct {
		name  string
		seeds []model.AccountSeed
	}{
		{name: "bad address", seeds: []model.AccountSeed{{Address: "alice", Balance: 1}}},
		{name: "negative", seeds: []model.AccountSeed{{Address: alice, Balance: -1}}},
		{name: "duplicate", seeds: []model.AccountSeed{{Address: alice}, {Address: checksummed(alice)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SeedAccounts(context.Background(), tt.seeds)
			assert.ErrorIs(t, err, ErrInvalidSeed)
		})
	}
}
