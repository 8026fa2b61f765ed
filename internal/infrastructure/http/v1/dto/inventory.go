package dto

import (
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
)

// --- Request DTOs ---

// ReceptionCountRequest lists counted quantities per batch of one reception.
// Batches left out are resolved by the configured missing-line policy.
type ReceptionCountRequest struct {
	Lines []BatchCountLine `json:"lines" binding:"dive"`
}

type BatchCountLine struct {
	BatchID        string `json:"batchId" binding:"required"`
	ActualQuantity *int64 `json:"actualQuantity" binding:"required"`
}

func (r *ReceptionCountRequest) ToCounts() ([]reconciliation.BatchCount, error) {
	counts := make([]reconciliation.BatchCount, len(r.Lines))
	for i, l := range r.Lines {
		batchID, err := ParseID("batchId", l.BatchID)
		if err != nil {
			return nil, lineError(err, i)
		}
		counts[i] = reconciliation.BatchCount{BatchID: batchID, ActualQuantity: *l.ActualQuantity}
	}
	return counts, nil
}

// GlobalCountRequest lists counted quantities per product across open receptions.
type GlobalCountRequest struct {
	Lines []ProductCountLine `json:"lines" binding:"required,min=1,dive"`
}

type ProductCountLine struct {
	ProductID      string `json:"productId" binding:"required"`
	ActualQuantity *int64 `json:"actualQuantity" binding:"required"`
}

func (r *GlobalCountRequest) ToCounts() ([]reconciliation.ProductCount, error) {
	counts := make([]reconciliation.ProductCount, len(r.Lines))
	for i, l := range r.Lines {
		productID, err := ParseID("productId", l.ProductID)
		if err != nil {
			return nil, lineError(err, i)
		}
		counts[i] = reconciliation.ProductCount{ProductID: productID, ActualQuantity: *l.ActualQuantity}
	}
	return counts, nil
}

func lineError(err error, line int) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("line", line)
	}
	return err
}

// --- Response DTOs ---

type LineResponse struct {
	BatchID        *string `json:"batchId,omitempty"`
	ProductID      string  `json:"productId"`
	SystemQuantity int64   `json:"systemQuantity"`
	ActualQuantity int64   `json:"actualQuantity"`
	Difference     int64   `json:"difference"`
	UnitPrice      string  `json:"unitPrice"`
	LossAmount     string  `json:"lossAmount"`
	Assumed        bool    `json:"assumed,omitempty"`
}

type ResultResponse struct {
	Mode        string         `json:"mode"`
	ReceptionID *string        `json:"receptionId,omitempty"`
	Lines       []LineResponse `json:"lines"`
	TotalLoss   string         `json:"totalLoss"`
	Changed     bool           `json:"changed"`
}

func FromResult(r *reconciliation.Result) ResultResponse {
	return ResultResponse{
		Mode:        string(r.Mode),
		ReceptionID: IDString(r.ReceptionID),
		Lines:       fromLines(r.Lines),
		TotalLoss:   Amount(r.TotalLoss),
		Changed:     r.Changed(),
	}
}

func fromLines(lines []reconciliation.Line) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = LineResponse{
			BatchID:        IDString(l.BatchID),
			ProductID:      l.ProductID.String(),
			SystemQuantity: l.SystemQuantity,
			ActualQuantity: l.ActualQuantity,
			Difference:     l.Difference,
			UnitPrice:      Price(l.UnitPrice),
			LossAmount:     Amount(l.LossAmount),
			Assumed:        l.Assumed,
		}
	}
	return out
}

type AggregateResponse struct {
	ProductID       string `json:"productId"`
	ProductName     string `json:"productName,omitempty"`
	TotalRemaining  int64  `json:"totalRemaining"`
	TotalValue      string `json:"totalValue"`
	AvgPrice        string `json:"avgPrice"`
	BatchCount      int    `json:"batchCount"`
	NearestDaysLeft *int   `json:"nearestDaysLeft"`
}

func FromAggregates(items []reconciliation.Aggregate, names map[string]string) []AggregateResponse {
	out := make([]AggregateResponse, len(items))
	for i, a := range items {
		out[i] = AggregateResponse{
			ProductID:       a.ProductID.String(),
			ProductName:     names[a.ProductID.String()],
			TotalRemaining:  a.TotalRemaining,
			TotalValue:      Amount(a.TotalValue),
			AvgPrice:        Price(a.AvgPrice),
			BatchCount:      a.BatchCount,
			NearestDaysLeft: a.NearestDaysLeft,
		}
	}
	return out
}

type SessionResponse struct {
	ID          string         `json:"id"`
	Mode        string         `json:"mode"`
	ReceptionID *string        `json:"receptionId,omitempty"`
	Lines       []LineResponse `json:"lines"`
	TotalLoss   string         `json:"totalLoss"`
	AppliedBy   *string        `json:"appliedBy,omitempty"`
	AppliedAt   time.Time      `json:"appliedAt"`
}

func FromSession(s *reconciliation.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID.String(),
		Mode:        string(s.Mode),
		ReceptionID: IDString(s.ReceptionID),
		Lines:       fromLines(s.Lines),
		TotalLoss:   Amount(s.TotalLoss),
		AppliedBy:   s.AppliedBy,
		AppliedAt:   s.AppliedAt,
	}
}

func FromSessions(items []reconciliation.Session) []SessionResponse {
	out := make([]SessionResponse, len(items))
	for i := range items {
		out[i] = FromSession(&items[i])
	}
	return out
}
