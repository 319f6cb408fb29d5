package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hance08/dtl/internal/model"
)

const defaultListLimit = 100

// UpsertTransaction inserts t or merges it into the existing row with the
// same id. The merge never lowers the status rank and never replaces a
// reference with a blank one, so the submitter's pending write and the
// confirmer's confirmed write converge whichever lands first.
func (s *Store) UpsertTransaction(ctx context.Context, t *model.Transfer) error {
	if !t.Status.Valid() {
		return fmt.Errorf("%w: '%s'", ErrInvalidStatus, t.Status)
	}
	if t.ID == "" {
		return fmt.Errorf("transfer id is required")
	}

	amount, err := toStoredAmount(t.Amount)
	if err != nil {
		return err
	}

	now := s.unixNow()
	_, err = s.exec(ctx, `
		INSERT INTO transfers (id, from_addr, to_addr, amount, status, metadata_ref, block_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = CASE
				WHEN transfers.status = 'confirmed' THEN transfers.status
				ELSE excluded.status
			END,
			metadata_ref = COALESCE(excluded.metadata_ref, transfers.metadata_ref),
			block_number = CASE
				WHEN excluded.block_number > transfers.block_number THEN excluded.block_number
				ELSE transfers.block_number
			END,
			updated_at = excluded.updated_at
	`,
		normalizeHash(t.ID),
		normalizeAddress(t.From),
		normalizeAddress(t.To),
		amount,
		string(t.Status),
		nullIfEmpty(t.MetadataRef),
		int64(t.BlockNumber),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transfer '%s': %w", t.ID, err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*model.Transfer, error) {
	row := s.queryRow(ctx, `
		SELECT id, from_addr, to_addr, amount, status, metadata_ref, block_number, created_at, updated_at
		FROM transfers
		WHERE id = ?
	`, normalizeHash(id))

	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transfer '%s': %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to query transfer '%s': %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter model.TransferFilter) ([]*model.Transfer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		conds []string
		args  []any
	)
	if filter.Account != "" {
		addr := normalizeAddress(filter.Account)
		conds = append(conds, "(from_addr = ? OR to_addr = ?)")
		args = append(args, addr, addr)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidStatus, filter.Status)
		}
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `
		SELECT id, from_addr, to_addr, amount, status, metadata_ref, block_number, created_at, updated_at
		FROM transfers`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []*model.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}

	return transfers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*model.Transfer, error) {
	var (
		t           model.Transfer
		status      string
		amount      int64
		blockNumber int64
		metadataRef sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.From, &t.To, &amount, &status,
		&metadataRef, &blockNumber, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Amount = uint64(amount)
	t.Status = model.TransferStatus(status)
	t.BlockNumber = uint64(blockNumber)
	if metadataRef.Valid {
		t.MetadataRef = metadataRef.String
	}
	return &t, nil
}

func normalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
