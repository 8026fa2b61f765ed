package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/id"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/types"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

func TestExtractDBColumns_WalksEmbedded(t *testing.T) {
	cols := ExtractDBColumns[writeoff.Entry]()

	for _, expected := range []string{"id", "batch_id", "reception_id", "quantity", "reason", "created_at", "price_per_unit"} {
		assert.Contains(t, cols, expected)
	}
	assert.Equal(t, "price_per_unit", cols[len(cols)-1])
}

func TestStructToMap(t *testing.T) {
	comment := "stem broken"
	now := time.Now().UTC()
	entry := writeoff.Entry{
		WriteOff: writeoff.WriteOff{
			ID:        id.New(),
			BatchID:   id.New(),
			Quantity:  3,
			Reason:    writeoff.ReasonBroken,
			Comment:   &comment,
			CreatedAt: now,
		},
		PricePerUnit: types.MustMoney("12.5"),
	}

	m := StructToMap(&entry)

	assert.Equal(t, entry.ID, m["id"])
	assert.Equal(t, int64(3), m["quantity"])
	assert.Equal(t, writeoff.ReasonBroken, m["reason"])
	assert.Equal(t, &comment, m["comment"])
	assert.Equal(t, now, m["created_at"])
	assert.True(t, types.MustMoney("12.5").Equal(m["price_per_unit"].(types.Money)))

	values := ValuesOf(m, []string{"quantity", "reason"})
	assert.Equal(t, []any{int64(3), writeoff.ReasonBroken}, values)
}
