package reconciliation

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
)

// SessionFilter narrows journal listings.
type SessionFilter struct {
	Mode        *Mode
	ReceptionID *id.ID
	Limit       int
}

// Journal stores applied reconciliations.
type Journal interface {
	Save(ctx context.Context, s *Session) error
	// Get returns NotFound when absent.
	Get(ctx context.Context, sessionID id.ID) (*Session, error)
	// List returns newest first.
	List(ctx context.Context, filter SessionFilter) ([]Session, error)
}
