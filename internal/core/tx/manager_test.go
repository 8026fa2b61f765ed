package tx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/tx"
)

type plainManager struct{ calls int }

func (m *plainManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type readOnlyManager struct {
	plainManager
	readOnly int
}

func (m *readOnlyManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	m.readOnly++
	return fn(ctx)
}

func TestRunReadOnly(t *testing.T) {
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	t.Run("prefers read-only transactions", func(t *testing.T) {
		m := &readOnlyManager{}
		assert.NoError(t, tx.RunReadOnly(ctx, m, noop))
		assert.Equal(t, 1, m.readOnly)
		assert.Equal(t, 0, m.calls)
	})

	t.Run("falls back to a plain transaction", func(t *testing.T) {
		m := &plainManager{}
		assert.NoError(t, tx.RunReadOnly(ctx, m, noop))
		assert.Equal(t, 1, m.calls)
	})

	t.Run("propagates errors", func(t *testing.T) {
		boom := assert.AnError
		err := tx.RunReadOnly(ctx, &readOnlyManager{}, func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})
}
