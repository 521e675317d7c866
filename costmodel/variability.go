package costmodel

import "time"

// Clock supplies the wall-clock readings that drive every perturbed
// cost surface. Tests pin it; production uses time.Now.
type Clock func() time.Time

// perturb returns cost scaled by a factor in [0.98, 1.02) derived from
// the sub-second component of the clock. Every cost read and update in
// the system passes through this to model measurement noise.
func perturb(cost int, now Clock) int {
	nanos := now().Nanosecond()
	f := 0.98 + float64(nanos%40)*0.001
	return int(float64(cost) * f)
}

// PerturbCost exposes the measurement-noise perturbation so the
// presentation layer can show a "recent sample" next to a stored cost.
func (db *Database) PerturbCost(cost int) int {
	return perturb(cost, db.now)
}
