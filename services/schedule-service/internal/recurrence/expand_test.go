package recurrence

import (
	"testing"
	"time"

	"github.com/groupslot/groupslot/libs/syncgw"
)

var start = time.Date(2025, 7, 12, 9, 0, 0, 0, time.UTC)

func window(offset time.Duration) syncgw.TimeslotInput {
	return syncgw.TimeslotInput{StartTime: start.Add(offset), EndTime: start.Add(offset + 8*time.Hour)}
}

func TestExpandDaily(t *testing.T) {
	got, capped, err := Expand([]syncgw.TimeslotInput{window(0)}, "FREQ=DAILY;COUNT=3", 62)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if capped || len(got) != 3 {
		t.Fatalf("expected 3 windows uncapped, got %d capped=%v", len(got), capped)
	}
	for i, w := range got {
		wantStart := start.AddDate(0, 0, i)
		if !w.StartTime.Equal(wantStart) || w.EndTime.Sub(w.StartTime) != 8*time.Hour {
			t.Fatalf("window %d = %v..%v", i, w.StartTime, w.EndTime)
		}
	}
}

func TestExpandCollapsesDuplicatesAndSorts(t *testing.T) {
	got, _, err := Expand([]syncgw.TimeslotInput{window(24 * time.Hour), window(0)}, "FREQ=DAILY;COUNT=2", 62)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected day 0,1,2 once each, got %d", len(got))
	}
	if !got[0].StartTime.Equal(start) || !got[2].StartTime.Equal(start.AddDate(0, 0, 2)) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestExpandUnboundedRuleIsCapped(t *testing.T) {
	got, capped, err := Expand([]syncgw.TimeslotInput{window(0), window(time.Hour)}, "FREQ=DAILY", 5)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !capped || len(got) != 5 {
		t.Fatalf("expected 5 capped windows, got %d capped=%v", len(got), capped)
	}
}

func TestExpandNoRule(t *testing.T) {
	in := []syncgw.TimeslotInput{window(0)}
	got, capped, err := Expand(in, "", 62)
	if err != nil || capped || len(got) != 1 {
		t.Fatalf("expected passthrough, got %v %v %v", got, capped, err)
	}
}

func TestExpandBadRule(t *testing.T) {
	if _, _, err := Expand([]syncgw.TimeslotInput{window(0)}, "FREQ=SOMETIMES", 62); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExpandHugeCountStopsAtLimit(t *testing.T) {
	began := time.Now()
	got, capped, err := Expand([]syncgw.TimeslotInput{window(0)}, "FREQ=SECONDLY;COUNT=3000000", 62)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !capped || len(got) != 62 {
		t.Fatalf("expected 62 capped windows, got %d capped=%v", len(got), capped)
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("expansion took %v", elapsed)
	}
}

func TestExpandFarUntilStopsAtLimit(t *testing.T) {
	began := time.Now()
	got, capped, err := Expand([]syncgw.TimeslotInput{window(0)}, "FREQ=MINUTELY;UNTIL=20991231T000000Z", 62)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !capped || len(got) != 62 {
		t.Fatalf("expected 62 capped windows, got %d capped=%v", len(got), capped)
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("expansion took %v", elapsed)
	}
}

func TestExpandCountAtLimitIsNotCapped(t *testing.T) {
	got, capped, err := Expand([]syncgw.TimeslotInput{window(0)}, "FREQ=DAILY;COUNT=5", 5)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if capped || len(got) != 5 {
		t.Fatalf("expected 5 uncapped windows, got %d capped=%v", len(got), capped)
	}
}
