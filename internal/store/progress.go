package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hance08/dtl/internal/model"
)

// ApplyTransferEvent records key and applies the balance delta in the same
// transaction. It reports false, and changes nothing, when the event was
// already applied by an earlier delivery.
func (s *Store) ApplyTransferEvent(ctx context.Context, key model.EventKey, from, to string, amount uint64) (bool, error) {
	delta, err := toStoredAmount(amount)
	if err != nil {
		return false, err
	}

	applied := false
	err = s.withTx(ctx, func(tx *Store) error {
		result, err := tx.exec(ctx, `
			INSERT INTO applied_events (tx_hash, log_index, block_number, applied_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`, normalizeHash(key.TxHash), int64(key.LogIndex), int64(key.BlockNumber), tx.unixNow())
		if err != nil {
			return fmt.Errorf("failed to record event %s#%d: %w", key.TxHash, key.LogIndex, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil
		}

		if err := tx.applyDelta(ctx, normalizeAddress(from), normalizeAddress(to), delta); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) Checkpoint(ctx context.Context, name string) (uint64, bool, error) {
	var block int64
	err := s.queryRow(ctx, `SELECT last_block FROM sync_state WHERE name = ?`, name).Scan(&block)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read checkpoint '%s': %w", name, err)
	}
	return uint64(block), true, nil
}

// SaveCheckpoint moves the named checkpoint forward; a lower block is ignored.
func (s *Store) SaveCheckpoint(ctx context.Context, name string, block uint64) error {
	_, err := s.exec(ctx, `
		INSERT INTO sync_state (name, last_block, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			last_block = CASE
				WHEN excluded.last_block > sync_state.last_block THEN excluded.last_block
				ELSE sync_state.last_block
			END,
			updated_at = excluded.updated_at
	`, name, int64(block), s.unixNow())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint '%s': %w", name, err)
	}
	return nil
}
