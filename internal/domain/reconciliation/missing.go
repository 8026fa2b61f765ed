package reconciliation

import "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/batch"

// Missing-line policy names
const (
	AssumeUnchangedName = "assume_unchanged"
	AssumeZeroName      = "assume_zero"
)

// MissingLinePolicy supplies the actual quantity of a batch that a
// per-reception count did not mention.
type MissingLinePolicy interface {
	Name() string
	Actual(b *batch.Batch) int64
}

// AssumeUnchanged treats an unmentioned batch as counted at its last known
// remaining quantity, so omission never records a loss.
type AssumeUnchanged struct{}

func (AssumeUnchanged) Name() string                { return AssumeUnchangedName }
func (AssumeUnchanged) Actual(b *batch.Batch) int64 { return b.RemainingQuantity }

// AssumeZero treats an unmentioned batch as gone.
type AssumeZero struct{}

func (AssumeZero) Name() string              { return AssumeZeroName }
func (AssumeZero) Actual(*batch.Batch) int64 { return 0 }

// MissingLinePolicyByName returns the named policy; empty selects AssumeUnchanged.
func MissingLinePolicyByName(name string) (MissingLinePolicy, bool) {
	switch name {
	case "", AssumeUnchangedName:
		return AssumeUnchanged{}, true
	case AssumeZeroName:
		return AssumeZero{}, true
	}
	return nil, false
}
