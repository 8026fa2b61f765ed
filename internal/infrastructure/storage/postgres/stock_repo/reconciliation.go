package stock_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/storage/postgres"
)

const sessionsTable = "reconciliations"

// sessionRow is the stored form of a reconciliation session.
// Lines live either in lines (JSONB) or zstd-compressed in lines_compressed.
type sessionRow struct {
	ID              id.ID                    `db:"id"`
	Mode            reconciliation.Mode      `db:"mode"`
	ReceptionID     *id.ID                   `db:"reception_id"`
	Lines           []byte                   `db:"lines"`
	LinesCompressed []byte                   `db:"lines_compressed"`
	Compression     postgres.CompressionAlgo `db:"compression"`
	TotalLoss       types.Money              `db:"total_loss"`
	AppliedBy       *string                  `db:"applied_by"`
	AppliedAt       time.Time                `db:"applied_at"`
}

var sessionColumns = postgres.ExtractDBColumns[sessionRow]()

// JournalRepo implements reconciliation.Journal.
type JournalRepo struct {
	postgres.BaseRepo
	codec *postgres.PayloadCodec
}

var _ reconciliation.Journal = (*JournalRepo)(nil)

// NewJournalRepo creates a new reconciliation journal.
func NewJournalRepo(txManager *postgres.TxManager, codec *postgres.PayloadCodec) *JournalRepo {
	return &JournalRepo{BaseRepo: postgres.NewBaseRepo(txManager), codec: codec}
}

func (r *JournalRepo) Save(ctx context.Context, s *reconciliation.Session) error {
	payload, err := json.Marshal(s.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines: %w", err)
	}

	row := sessionRow{
		ID:          s.ID,
		Mode:        s.Mode,
		ReceptionID: s.ReceptionID,
		TotalLoss:   s.TotalLoss,
		AppliedBy:   s.AppliedBy,
		AppliedAt:   s.AppliedAt,
	}
	row.Lines, row.LinesCompressed, row.Compression = r.codec.Encode(payload)

	return r.InsertStruct(ctx, sessionsTable, sessionColumns, &row)
}

func (r *JournalRepo) Get(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	q := r.Builder().Select(sessionColumns...).From(sessionsTable).
		Where(squirrel.Eq{"id": sessionID})

	var row sessionRow
	if err := r.BaseRepo.Get(ctx, &row, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("reconciliation", sessionID)
		}
		return nil, fmt.Errorf("get reconciliation: %w", err)
	}
	return r.toSession(&row)
}

func (r *JournalRepo) List(ctx context.Context, filter reconciliation.SessionFilter) ([]reconciliation.Session, error) {
	q := r.Builder().Select(sessionColumns...).From(sessionsTable).
		OrderBy("applied_at DESC", "id DESC")
	if filter.Mode != nil {
		q = q.Where(squirrel.Eq{"mode": *filter.Mode})
	}
	if filter.ReceptionID != nil {
		q = q.Where(squirrel.Eq{"reception_id": *filter.ReceptionID})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	var rows []sessionRow
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select reconciliations: %w", err)
	}

	sessions := make([]reconciliation.Session, 0, len(rows))
	for i := range rows {
		s, err := r.toSession(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (r *JournalRepo) toSession(row *sessionRow) (*reconciliation.Session, error) {
	payload, err := r.codec.Decode(row.Lines, row.LinesCompressed, row.Compression)
	if err != nil {
		return nil, fmt.Errorf("reconciliation %s: %w", row.ID, err)
	}
	var lines []reconciliation.Line
	if err := json.Unmarshal(payload, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal lines of %s: %w", row.ID, err)
	}
	return &reconciliation.Session{
		ID:          row.ID,
		Mode:        row.Mode,
		ReceptionID: row.ReceptionID,
		Lines:       lines,
		TotalLoss:   row.TotalLoss,
		AppliedBy:   row.AppliedBy,
		AppliedAt:   row.AppliedAt,
	}, nil
}
