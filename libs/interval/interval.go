package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether the interval has positive length.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

func (iv Interval) Duration() time.Duration {
	if !iv.Valid() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps uses half-open semantics: touching intervals do not overlap and an
// empty interval overlaps nothing.
func (iv Interval) Overlaps(o Interval) bool {
	_, ok := Intersect(iv, o)
	return ok
}

// Ordered returns the interval with Start and End swapped if they are reversed.
func (iv Interval) Ordered() Interval {
	if iv.End.Before(iv.Start) {
		return Interval{Start: iv.End, End: iv.Start}
	}
	return iv
}

func (iv Interval) Equal(o Interval) bool {
	return iv.Start.Equal(o.Start) && iv.End.Equal(o.End)
}

// Intersect returns the overlap of a and b. ok is false when
// max(a.Start, b.Start) >= min(a.End, b.End).
func Intersect(a, b Interval) (Interval, bool) {
	start := maxTime(a.Start, b.Start)
	end := minTime(a.End, b.End)
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// IntersectAll folds pairwise intersection across sets. Every interval of the
// running result is intersected with every interval of the next set and the
// non-empty overlaps are kept. An empty set anywhere yields nil.
func IntersectAll(sets ...[]Interval) []Interval {
	if len(sets) == 0 {
		return nil
	}

	acc := Merge(sets[0])
	for _, set := range sets[1:] {
		if len(acc) == 0 {
			return nil
		}
		next := Merge(set)
		var out []Interval
		for _, a := range acc {
			for _, b := range next {
				if iv, ok := Intersect(a, b); ok {
					out = append(out, iv)
				}
			}
		}
		acc = Merge(out)
	}
	if len(acc) == 0 {
		return nil
	}
	return acc
}

// Merge returns the minimal non-overlapping cover of intervals in ascending
// start order. Adjacent intervals (next.Start == cur.End) are joined. Intervals
// without positive length are dropped. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	Sort(sorted)

	out := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if !iv.Start.After(cur.End) {
			if iv.End.After(cur.End) {
				cur.End = iv.End
			}
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	return append(out, cur)
}

// Sort orders intervals by start, then end, in place.
func Sort(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		if !intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].Start.Before(intervals[j].Start)
		}
		return intervals[i].End.Before(intervals[j].End)
	})
}

// Clamp bounds t to [lo, hi].
func Clamp(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
