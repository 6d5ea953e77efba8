// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/mandatedisrael/zenfi/internal/types"
)

// SaveHarvestSnapshot saves a complete harvest snapshot to the database.
func SaveHarvestSnapshot(snapshot types.HarvestSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	outcomesJSON, err := json.Marshal(snapshot.Outcomes)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal outcomes: %w", err)
	}

	query := `
		INSERT INTO harvest_snapshots (
			harvest_id, snapshot_timestamp,
			gross_yield, performance_fee, management_fee, distributed,
			acc_before, acc_after, total_shares,
			outcomes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.HarvestID, snapshot.Timestamp,
		snapshot.GrossYield.String(), snapshot.PerformanceFee.String(),
		snapshot.ManagementFee.String(), snapshot.Distributed.String(),
		snapshot.AccBefore.String(), snapshot.AccAfter.String(),
		snapshot.TotalShares.String(),
		outcomesJSON,
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save harvest snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("harvest_id", snapshot.HarvestID).
		Str("distributed", snapshot.Distributed.String()).
		Msg("Harvest snapshot saved to database")

	return snapshotID, nil
}

// GetRecentHarvestSnapshots retrieves the most recent harvest snapshots,
// newest first.
func GetRecentHarvestSnapshots(limit int) ([]types.HarvestSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT snapshot_id, harvest_id, snapshot_timestamp,
			gross_yield, performance_fee, management_fee, distributed,
			acc_before, acc_after, total_shares,
			outcomes
		FROM harvest_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.HarvestSnapshot
	for rows.Next() {
		var s types.HarvestSnapshot
		var grossYield, perfFee, mgmtFee, distributed string
		var accBefore, accAfter, totalShares string
		var outcomesJSON []byte

		err := rows.Scan(
			&s.SnapshotID, &s.HarvestID, &s.Timestamp,
			&grossYield, &perfFee, &mgmtFee, &distributed,
			&accBefore, &accAfter, &totalShares,
			&outcomesJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan harvest snapshot row: %w", err)
		}

		s.GrossYield, err = parseStoredInt(grossYield)
		if err != nil {
			return nil, err
		}
		s.PerformanceFee, err = parseStoredInt(perfFee)
		if err != nil {
			return nil, err
		}
		s.ManagementFee, err = parseStoredInt(mgmtFee)
		if err != nil {
			return nil, err
		}
		s.Distributed, err = parseStoredInt(distributed)
		if err != nil {
			return nil, err
		}
		s.AccBefore, err = parseStoredInt(accBefore)
		if err != nil {
			return nil, err
		}
		s.AccAfter, err = parseStoredInt(accAfter)
		if err != nil {
			return nil, err
		}
		s.TotalShares, err = parseStoredInt(totalShares)
		if err != nil {
			return nil, err
		}

		if len(outcomesJSON) > 0 {
			if err := json.Unmarshal(outcomesJSON, &s.Outcomes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal outcomes: %w", err)
			}
		}

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating harvest snapshot rows: %w", err)
	}

	return snapshots, nil
}

// parseStoredInt converts a NUMERIC column read back as text into an sdkmath.Int.
func parseStoredInt(raw string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("failed to parse stored integer %q", raw)
	}
	return v, nil
}
