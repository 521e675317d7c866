package profiler

import (
	"github.com/consensys/gnark-crypto/ecc"

	"github.com/Zklib/acir-profiler/costmodel"
)

// ProvingTimeFactor is the per-constraint time factor of the reference
// backend on BN254, in units of 1/50 ms.
const ProvingTimeFactor = 1.0

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDatabase routes cost lookups and calibration feedback through db
// instead of the process-wide default.
func WithDatabase(db *costmodel.Database) Option {
	return func(a *Analyzer) {
		a.db = db
	}
}

// WithClock pins the wall-clock source used for the hardware-noise
// factor. The cost database keeps its own clock.
func WithClock(clock costmodel.Clock) Option {
	return func(a *Analyzer) {
		a.now = clock
	}
}

// WithCurve scales the proving-time factor by the scalar-field width of
// the target curve relative to BN254.
func WithCurve(id ecc.ID) Option {
	return func(a *Analyzer) {
		a.timeFactor = ProvingTimeFactor * float64(id.ScalarField().BitLen()) / 254
	}
}
