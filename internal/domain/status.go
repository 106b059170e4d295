package domain

// StatusClass is the moisture band of a single value.
type StatusClass string

const (
	StatusDry       StatusClass = "DRY"
	StatusIdeal     StatusClass = "IDEAL"
	StatusSaturated StatusClass = "SATURATED"
)

// Classify maps a moisture value to its band. Both thresholds are inclusive in IDEAL.
func Classify(value float64, t Thresholds) StatusClass {
	switch {
	case value < t.DryBelow:
		return StatusDry
	case value > t.SaturatedAbove:
		return StatusSaturated
	default:
		return StatusIdeal
	}
}

// TakeSnapshot returns the last reading of filtered with a status for every
// active channel that has a value in it. ok is false when filtered is empty.
func TakeSnapshot(filtered []Reading, active []int, opts Options) (Snapshot, bool) {
	if len(filtered) == 0 {
		return Snapshot{}, false
	}
	last := filtered[len(filtered)-1]

	snap := Snapshot{
		Time:     last.Time,
		Values:   make(map[int]float64, len(active)),
		Statuses: make(map[int]StatusClass, len(active)),
	}
	for _, ch := range active {
		v, ok := last.Values[ch]
		if !ok {
			continue
		}
		snap.Values[ch] = v
		snap.Statuses[ch] = Classify(v, opts.ThresholdsFor(ch))
	}
	return snap, true
}
