package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BulkInserter writes many rows in one round-trip using the COPY protocol.
type BulkInserter struct {
	txManager *TxManager
}

// NewBulkInserter creates a new bulk inserter.
func NewBulkInserter(txManager *TxManager) *BulkInserter {
	return &BulkInserter{txManager: txManager}
}

// CopyFromSlice performs bulk insert from a slice of rows.
// It requires a transaction in ctx so that a failed COPY leaves nothing behind.
func (b *BulkInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}
