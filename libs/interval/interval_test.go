package interval

import (
	"math/rand"
	"testing"
	"time"
)

var day = time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestIntersect_Overlap(t *testing.T) {
	a := New(at(10, 0), at(12, 0))
	b := New(at(11, 0), at(13, 0))

	got, ok := Intersect(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if !got.Equal(New(at(11, 0), at(12, 0))) {
		t.Fatalf("unexpected intersection: %+v", got)
	}
}

func TestIntersect_TouchingIsEmpty(t *testing.T) {
	a := New(at(9, 0), at(10, 0))
	b := New(at(10, 0), at(11, 0))
	if _, ok := Intersect(a, b); ok {
		t.Fatal("touching intervals must not intersect")
	}
}

func TestIntersect_CommutativeAndMatchesOverlaps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		a := randomInterval(rng)
		b := randomInterval(rng)

		ab, okAB := Intersect(a, b)
		ba, okBA := Intersect(b, a)
		if okAB != okBA {
			t.Fatalf("commutativity broken for %+v %+v", a, b)
		}
		if okAB && !ab.Equal(ba) {
			t.Fatalf("intersection differs: %+v vs %+v", ab, ba)
		}
		if okAB != a.Overlaps(b) {
			t.Fatalf("Intersect ok=%v but Overlaps=%v for %+v %+v", okAB, a.Overlaps(b), a, b)
		}
	}
}

func TestMerge_SortsAndJoins(t *testing.T) {
	in := []Interval{
		New(at(13, 0), at(14, 0)),
		New(at(9, 0), at(10, 0)),
		New(at(9, 30), at(11, 0)),
		New(at(11, 0), at(11, 15)),
		New(at(15, 0), at(15, 0)),
	}
	got := Merge(in)
	want := []Interval{
		New(at(9, 0), at(11, 15)),
		New(at(13, 0), at(14, 0)),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("interval %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if !in[0].Equal(New(at(13, 0), at(14, 0))) {
		t.Fatal("Merge must not reorder its input")
	}
}

func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		in := make([]Interval, rng.Intn(12))
		for j := range in {
			in[j] = randomInterval(rng)
		}

		merged := Merge(in)
		for j := 1; j < len(merged); j++ {
			if !merged[j-1].End.Before(merged[j].Start) {
				t.Fatalf("merge output overlaps or is unordered: %+v", merged)
			}
		}

		again := Merge(merged)
		if len(again) != len(merged) {
			t.Fatalf("merge is not idempotent: %+v vs %+v", merged, again)
		}
		for j := range again {
			if !again[j].Equal(merged[j]) {
				t.Fatalf("merge is not idempotent at %d", j)
			}
		}
	}
}

func TestIntersectAll(t *testing.T) {
	p1 := []Interval{New(at(10, 0), at(12, 0)), New(at(14, 0), at(16, 0))}
	p2 := []Interval{New(at(11, 0), at(15, 0))}
	p3 := []Interval{New(at(9, 0), at(18, 0))}

	got := IntersectAll(p1, p2, p3)
	want := []Interval{New(at(11, 0), at(12, 0)), New(at(14, 0), at(15, 0))}
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals, got %+v", len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("interval %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestIntersectAll_EmptySetYieldsNothing(t *testing.T) {
	p1 := []Interval{New(at(10, 0), at(12, 0))}
	if got := IntersectAll(p1, nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := IntersectAll(); got != nil {
		t.Fatalf("expected nil for no sets, got %+v", got)
	}
}

func TestClamp(t *testing.T) {
	lo, hi := at(0, 0), at(6, 0)
	if got := Clamp(at(7, 0), lo, hi); !got.Equal(hi) {
		t.Fatalf("expected hi, got %s", got)
	}
	if got := Clamp(day.Add(-time.Hour), lo, hi); !got.Equal(lo) {
		t.Fatalf("expected lo, got %s", got)
	}
	if got := Clamp(at(3, 0), lo, hi); !got.Equal(at(3, 0)) {
		t.Fatalf("expected unchanged, got %s", got)
	}
}

func randomInterval(rng *rand.Rand) Interval {
	start := rng.Intn(96)
	length := rng.Intn(16)
	return New(at(0, start*15), at(0, (start+length)*15))
}
