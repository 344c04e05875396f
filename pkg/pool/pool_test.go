package pool

import (
	"errors"
	"math"
	"testing"

	"github.com/HatiCode/streamsad/pkg/detectors"
)

// scriptedDetector returns canned scores and can be told to fail at a
// specific instance index.
type scriptedDetector struct {
	name    string
	score   float64
	failAt  int
	nanAt   int
	panicAt int
	calls   int
}

func newScripted(name string, score float64) *scriptedDetector {
	return &scriptedDetector{name: name, score: score, failAt: -1, nanAt: -1, panicAt: -1}
}

func (d *scriptedDetector) Name() string { return d.name }

func (d *scriptedDetector) ObserveScore(x []float64) (float64, error) {
	defer func() { d.calls++ }()
	switch d.calls {
	case d.failAt:
		return 0, errors.New("scripted failure")
	case d.nanAt:
		return math.NaN(), nil
	case d.panicAt:
		panic("scripted panic")
	}
	return d.score, nil
}

func (d *scriptedDetector) Reset(seed int64)    { d.calls = 0 }
func (d *scriptedDetector) MemoryBytes() uint64 { return 100 }

func TestNew_Validation(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		if _, err := New(nil, nil); err == nil {
			t.Fatal("expected error for empty pool")
		}
	})

	t.Run("duplicate names", func(t *testing.T) {
		ds := []detectors.Detector{newScripted("a", 1), newScripted("a", 2)}
		if _, err := New(ds, nil); err == nil {
			t.Fatal("expected error for duplicate names")
		}
	})
}

func TestCollect_FixedOrder(t *testing.T) {
	ds := []detectors.Detector{
		newScripted("c", 3),
		newScripted("a", 1),
		newScripted("b", 2),
	}
	p, err := New(ds, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5; i++ {
		samples := p.Collect([]float64{0})
		want := []string{"c", "a", "b"}
		if len(samples) != len(want) {
			t.Fatalf("got %d samples, want %d", len(samples), len(want))
		}
		for j, s := range samples {
			if s.ID != want[j] {
				t.Fatalf("instance %d sample %d = %s, want %s", i, j, s.ID, want[j])
			}
		}
	}
}

func TestCollect_DegradesFailingDetector(t *testing.T) {
	tests := []struct {
		name string
		bad  *scriptedDetector
	}{
		{"error return", func() *scriptedDetector { d := newScripted("bad", 1); d.failAt = 3; return d }()},
		{"non-finite score", func() *scriptedDetector { d := newScripted("bad", 1); d.nanAt = 3; return d }()},
		{"panic", func() *scriptedDetector { d := newScripted("bad", 1); d.panicAt = 3; return d }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := newScripted("good", 2)
			p, err := New([]detectors.Detector{tt.bad, good}, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			for i := 0; i < 10; i++ {
				samples := p.Collect([]float64{0})
				if i < 3 && len(samples) != 2 {
					t.Fatalf("instance %d: got %d samples, want 2", i, len(samples))
				}
				if i >= 3 && len(samples) != 1 {
					t.Fatalf("instance %d: got %d samples, want 1", i, len(samples))
				}
			}

			if !p.Degraded("bad") {
				t.Error("bad detector not marked degraded")
			}
			if p.Degraded("good") {
				t.Error("good detector wrongly degraded")
			}
			if got := p.Live(); len(got) != 1 || got[0] != "good" {
				t.Errorf("Live() = %v, want [good]", got)
			}
			if len(p.Warnings()) != 1 {
				t.Errorf("Warnings() = %v, want one entry", p.Warnings())
			}
		})
	}
}

func TestCollect_DegradedDetectorNeverInvokedAgain(t *testing.T) {
	bad := newScripted("bad", 1)
	bad.failAt = 2
	p, _ := New([]detectors.Detector{bad}, nil)

	for i := 0; i < 10; i++ {
		p.Collect([]float64{0})
	}

	// calls stops advancing once degraded: 2 successes + the failing call.
	if bad.calls != 3 {
		t.Errorf("bad detector called %d times, want 3", bad.calls)
	}
}

func TestMemoryBytes_IncludesDegraded(t *testing.T) {
	bad := newScripted("bad", 1)
	bad.failAt = 0
	good := newScripted("good", 2)
	p, _ := New([]detectors.Detector{bad, good}, nil)

	p.Collect([]float64{0})

	if got := p.MemoryBytes(); got != 200 {
		t.Errorf("MemoryBytes() = %d, want 200", got)
	}
}

func TestReset_ClearsDegradation(t *testing.T) {
	bad := newScripted("bad", 1)
	bad.failAt = 0
	p, _ := New([]detectors.Detector{bad}, nil)

	p.Collect([]float64{0})
	if !p.Degraded("bad") {
		t.Fatal("expected degradation")
	}

	bad.failAt = -1
	p.Reset(42)
	if p.Degraded("bad") {
		t.Error("degradation survived Reset")
	}
	if samples := p.Collect([]float64{0}); len(samples) != 1 {
		t.Errorf("got %d samples after Reset, want 1", len(samples))
	}
}
