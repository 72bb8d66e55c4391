package timegrid

import "time"

// Tick is the fixed row size of the availability grid.
const Tick = 15 * time.Minute

// Quantize returns the row axis of a timeslot: every instant from start to end
// inclusive at a 15 minute stride.
//
// If end is before start the result is empty. If end == start the result holds
// only start. When end-start is not a multiple of Tick, end is appended as the
// final row so the grid always closes on the timeslot end.
func Quantize(start, end time.Time) []time.Time {
	return QuantizeStep(start, end, Tick)
}

// QuantizeStep is Quantize with an arbitrary positive stride.
func QuantizeStep(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || end.Before(start) {
		return nil
	}

	n := int(end.Sub(start)/step) + 1
	ticks := make([]time.Time, 0, n+1)
	for t := start; !t.After(end); t = t.Add(step) {
		ticks = append(ticks, t)
	}
	if last := ticks[len(ticks)-1]; last.Before(end) {
		ticks = append(ticks, end)
	}
	return ticks
}

// Index returns the position of t in ticks, rounding to the nearest tick and
// clamping to the ends of the axis. ok is false for an empty axis.
func Index(ticks []time.Time, t time.Time) (int, bool) {
	if len(ticks) == 0 {
		return 0, false
	}
	if !t.After(ticks[0]) {
		return 0, true
	}
	last := len(ticks) - 1
	if !t.Before(ticks[last]) {
		return last, true
	}
	for i := 1; i <= last; i++ {
		if t.After(ticks[i]) {
			continue
		}
		if t.Sub(ticks[i-1]) < ticks[i].Sub(t) {
			return i - 1, true
		}
		return i, true
	}
	return last, true
}
