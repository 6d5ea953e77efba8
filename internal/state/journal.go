/*

This file adapts the Postgres stores into the journal shape the vault engine
accepts. The engine treats journaling as best-effort: a database outage must
never fail a deposit or a harvest, so every error stops here with a log line.

*/

package state

import (
	"github.com/mandatedisrael/zenfi/internal/logger"
	"github.com/mandatedisrael/zenfi/internal/types"
)

// PostgresJournal persists harvest snapshots and operation receipts through
// the package-level DB pool. Construct it after InitDB and EnsureSchema.
type PostgresJournal struct{}

// NewPostgresJournal returns a journal backed by the shared connection pool.
func NewPostgresJournal() *PostgresJournal {
	return &PostgresJournal{}
}

// RecordHarvest writes a harvest snapshot, logging failures instead of
// returning them.
func (j *PostgresJournal) RecordHarvest(snapshot types.HarvestSnapshot) {
	journalLogger := logger.GetForComponent("journal")
	if _, err := SaveHarvestSnapshot(snapshot); err != nil {
		journalLogger.Error().Err(err).
			Str("harvest_id", snapshot.HarvestID).
			Msg("Failed to persist harvest snapshot")
	}
}

// RecordOperation writes an operation receipt, logging failures instead of
// returning them.
func (j *PostgresJournal) RecordOperation(receipt types.OperationReceipt) {
	journalLogger := logger.GetForComponent("journal")
	if _, err := SaveOperationReceipt(receipt); err != nil {
		journalLogger.Error().Err(err).
			Str("kind", receipt.Kind).
			Str("caller", receipt.Caller).
			Msg("Failed to persist operation receipt")
	}
}
