package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"unique", sqlStateUniqueViolation, apperror.CodeConflict},
		{"foreign key", sqlStateForeignKeyViolation, apperror.CodeNotFound},
		{"check", sqlStateCheckViolation, apperror.CodeInvariantViolation},
		{"numeric overflow", sqlStateNumericOutOfRange, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("insert batches: %w", &pgconn.PgError{Code: tt.code, ColumnName: "price_per_unit"})
			assert.True(t, apperror.HasCode(MapError(err, "batch"), tt.want))
		})
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, MapError(plain, "batch"))
}
