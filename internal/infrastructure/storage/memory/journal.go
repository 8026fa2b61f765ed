package memory

import (
	"context"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/reconciliation"
)

// JournalRepo implements reconciliation.Journal.
type JournalRepo struct{ s *Store }

var _ reconciliation.Journal = (*JournalRepo)(nil)

func (r *JournalRepo) Save(ctx context.Context, session *reconciliation.Session) error {
	return r.s.write(ctx, func() error {
		r.s.sessions = append(r.s.sessions, *session)
		return nil
	})
}

func (r *JournalRepo) Get(ctx context.Context, sessionID id.ID) (*reconciliation.Session, error) {
	var found *reconciliation.Session
	r.s.read(ctx, func() {
		for i := range r.s.sessions {
			if r.s.sessions[i].ID == sessionID {
				s := r.s.sessions[i]
				found = &s
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("reconciliation", sessionID)
	}
	return found, nil
}

func (r *JournalRepo) List(ctx context.Context, filter reconciliation.SessionFilter) ([]reconciliation.Session, error) {
	var out []reconciliation.Session
	r.s.read(ctx, func() {
		for i := len(r.s.sessions) - 1; i >= 0; i-- {
			s := r.s.sessions[i]
			if filter.Mode != nil && s.Mode != *filter.Mode {
				continue
			}
			if filter.ReceptionID != nil && (s.ReceptionID == nil || *s.ReceptionID != *filter.ReceptionID) {
				continue
			}
			out = append(out, s)
			if filter.Limit > 0 && len(out) == filter.Limit {
				return
			}
		}
	})
	return out, nil
}
