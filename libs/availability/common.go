package availability

import "github.com/groupslot/groupslot/libs/interval"

// CommonAvailability intersects, per date, the confirmed intervals of every
// roster participant.
//
// Policy: full attendance. A date on which any roster participant has no
// interval at all is omitted, even if everyone else overlaps. A date where
// everyone submitted but nothing overlaps maps to an empty slice.
func (s *Store) CommonAvailability() map[string][]interval.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return commonAvailability(s.confirmed, s.participants)
}

// PendingIntervals groups the pending overlays by timeslot for submission.
func (s *Store) PendingIntervals() map[int64][]interval.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64][]interval.Interval)
	for _, o := range s.pending {
		out[o.TimeslotID] = append(out[o.TimeslotID], o.Interval)
	}
	return out
}

func commonAvailability(confirmed []Overlay, participants []Participant) map[string][]interval.Interval {
	result := make(map[string][]interval.Interval)
	if len(participants) == 0 {
		return result
	}

	byDate := make(map[string]map[string][]interval.Interval)
	for _, o := range confirmed {
		perName := byDate[o.Date]
		if perName == nil {
			perName = make(map[string][]interval.Interval)
			byDate[o.Date] = perName
		}
		perName[o.ParticipantName] = append(perName[o.ParticipantName], o.Interval)
	}

	for date, perName := range byDate {
		sets := make([][]interval.Interval, 0, len(participants))
		complete := true
		for _, p := range participants {
			ivs := perName[p.Name]
			if len(ivs) == 0 {
				complete = false
				break
			}
			sets = append(sets, ivs)
		}
		if !complete {
			continue
		}
		common := interval.IntersectAll(sets...)
		if common == nil {
			common = []interval.Interval{}
		}
		result[date] = common
	}
	return result
}
