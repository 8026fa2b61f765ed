package v1

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/writeoff"
)

var registerOnce sync.Once

// registerValidators adds the ledger's binding tags to gin's validator:
//
//	writeoff_reason      one of the accepted write-off reasons
//	nonnegative_decimal  a decimal string >= 0
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("writeoff_reason", func(fl validator.FieldLevel) bool {
			return writeoff.Reason(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation("nonnegative_decimal", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			return err == nil && !d.IsNegative()
		})
	})
}
