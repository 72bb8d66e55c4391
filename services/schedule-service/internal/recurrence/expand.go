package recurrence

import (
	"fmt"
	"sort"

	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/teambition/rrule-go"
)

// Expand repeats every window by an RFC 5545 RRULE body such as
// "FREQ=DAILY;COUNT=5". Each window anchors its own rule; an occurrence keeps
// the window's duration. Duplicates are collapsed and the result is sorted and
// cut at limit windows. The boolean reports whether the cut happened.
func Expand(windows []syncgw.TimeslotInput, rule string, limit int) ([]syncgw.TimeslotInput, bool, error) {
	if rule == "" {
		return windows, false, nil
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, false, fmt.Errorf("parse repeat rule: %w", err)
	}
	// One occurrence past limit is enough to report the cut; anything more is
	// generated only to be thrown away.
	if opt.Count == 0 || opt.Count > limit+1 {
		opt.Count = limit + 1
	}

	seen := map[[2]int64]bool{}
	var out []syncgw.TimeslotInput
	for _, w := range windows {
		o := *opt
		o.Dtstart = w.StartTime
		r, err := rrule.NewRRule(o)
		if err != nil {
			return nil, false, fmt.Errorf("build repeat rule: %w", err)
		}
		dur := w.EndTime.Sub(w.StartTime)
		for _, start := range r.All() {
			start = start.In(w.StartTime.Location())
			key := [2]int64{start.UnixNano(), start.Add(dur).UnixNano()}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, syncgw.TimeslotInput{StartTime: start, EndTime: start.Add(dur)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}
