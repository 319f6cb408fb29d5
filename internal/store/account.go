package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hance08/dtl/internal/model"
)

func (s *Store) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	rows, err := s.query(ctx, `
		SELECT id, address, name, balance, created_at, updated_at
		FROM accounts
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*model.Account{}
	for rows.Next() {
		acc := &model.Account{}
		err := rows.Scan(
			&acc.ID, &acc.Address, &acc.DisplayName,
			&acc.Balance, &acc.CreatedAt, &acc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, address string) (*model.Account, error) {
	row := s.queryRow(ctx, `
		SELECT id, address, name, balance, created_at, updated_at
		FROM accounts
		WHERE address = ?
	`, normalizeAddress(address))

	acc := &model.Account{}
	err := row.Scan(
		&acc.ID, &acc.Address, &acc.DisplayName,
		&acc.Balance, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account '%s': %w", address, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query account '%s' : %w", address, err)
	}

	return acc, nil
}

// SeedAccounts replaces the whole account set in one transaction.
func (s *Store) SeedAccounts(ctx context.Context, seeds []model.AccountSeed) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.exec(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("failed to clear accounts: %w", err)
		}

		now := tx.unixNow()
		for _, seed := range seeds {
			_, err := tx.exec(ctx, `
				INSERT INTO accounts (address, name, balance, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
			`, normalizeAddress(seed.Address), seed.Name, seed.Balance, now, now)
			if err != nil {
				if tx.dialect.isUniqueViolation(err) {
					return fmt.Errorf("seed address '%s': %w", seed.Address, ErrAccountExists)
				}
				return fmt.Errorf("failed to insert seed account '%s': %w", seed.Address, err)
			}
		}
		return nil
	})
}

// ApplyBalanceTransfer debits from and credits to as one unit. Sufficient
// balance is not checked: the ledger has already validated the transfer.
func (s *Store) ApplyBalanceTransfer(ctx context.Context, from, to string, amount uint64) error {
	delta, err := toStoredAmount(amount)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *Store) error {
		return tx.applyDelta(ctx, normalizeAddress(from), normalizeAddress(to), delta)
	})
}

func (s *Store) applyDelta(ctx context.Context, from, to string, delta int64) error {
	now := s.unixNow()

	for _, addr := range []string{from, to} {
		_, err := s.exec(ctx, `
			INSERT INTO accounts (address, name, balance, created_at, updated_at)
			VALUES (?, '', 0, ?, ?)
			ON CONFLICT (address) DO NOTHING
		`, addr, now, now)
		if err != nil {
			return fmt.Errorf("failed to ensure account '%s': %w", addr, err)
		}
	}

	if err := s.adjustBalance(ctx, from, -delta, now); err != nil {
		return fmt.Errorf("failed to debit '%s': %w", from, err)
	}
	if err := s.adjustBalance(ctx, to, delta, now); err != nil {
		return fmt.Errorf("failed to credit '%s': %w", to, err)
	}
	return nil
}

func (s *Store) adjustBalance(ctx context.Context, address string, delta int64, now int64) error {
	result, err := s.exec(ctx, `
		UPDATE accounts
		SET balance = balance + ?, updated_at = ?
		WHERE address = ?
	`, delta, now, address)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account '%s': %w", address, ErrRecordNotFound)
	}
	return nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
