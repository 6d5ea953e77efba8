// ./internal/state/receipt_store.go
package state

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mandatedisrael/zenfi/internal/types"
)

// SaveOperationReceipt saves one committed ledger operation to the database.
func SaveOperationReceipt(receipt types.OperationReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO operation_receipts (
			operation_timestamp, kind, caller, pair_id,
			amount0, amount1, shares,
			success, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING receipt_id;
	`

	var receiptID int64
	err := DB.QueryRow(
		query,
		receipt.Timestamp, receipt.Kind, receipt.Caller, uint64(receipt.PairID),
		receipt.Amount0.String(), receipt.Amount1.String(), receipt.Shares.String(),
		receipt.Success, receipt.Message,
	).Scan(&receiptID)

	if err != nil {
		return 0, fmt.Errorf("failed to save operation receipt: %w", err)
	}

	log.Debug().
		Int64("receipt_id", receiptID).
		Str("kind", receipt.Kind).
		Str("caller", receipt.Caller).
		Msg("Operation receipt saved to database")

	return receiptID, nil
}

// GetRecentOperationReceipts retrieves the most recent operation receipts,
// newest first. An empty caller matches all callers.
func GetRecentOperationReceipts(caller string, limit int) ([]types.OperationReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT receipt_id, operation_timestamp, kind, caller, pair_id,
			amount0, amount1, shares, success, message
		FROM operation_receipts
		WHERE ($1 = '' OR caller = $1)
		ORDER BY operation_timestamp DESC
		LIMIT $2;
	`

	rows, err := DB.Query(query, caller, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.OperationReceipt
	for rows.Next() {
		var r types.OperationReceipt
		var pairID uint64
		var amount0, amount1, shares string

		err := rows.Scan(
			&r.ReceiptID, &r.Timestamp, &r.Kind, &r.Caller, &pairID,
			&amount0, &amount1, &shares, &r.Success, &r.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation receipt row: %w", err)
		}

		r.PairID = types.PairID(pairID)
		r.Amount0, err = parseStoredInt(amount0)
		if err != nil {
			return nil, err
		}
		r.Amount1, err = parseStoredInt(amount1)
		if err != nil {
			return nil, err
		}
		r.Shares, err = parseStoredInt(shares)
		if err != nil {
			return nil, err
		}

		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation receipt rows: %w", err)
	}

	return receipts, nil
}
