package selector

import "testing"

func TestNewLabelPolicy(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		delay   int
		rate    float64
		wantErr bool
	}{
		{"immediate", "immediate", 0, 0, false},
		{"delayed", "delayed", 100, 0, false},
		{"delayed zero", "delayed", 0, 0, false},
		{"delayed negative", "delayed", -1, 0, true},
		{"sparse", "sparse", 0, 0.1, false},
		{"sparse rate over one", "sparse", 0, 1.5, true},
		{"sparse rate negative", "sparse", 0, -0.1, true},
		{"unknown", "oracle", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewLabelPolicy(tt.kind, tt.delay, tt.rate, 1)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLabelPolicy: %v", err)
			}
			if p.Name() != tt.kind {
				t.Errorf("Name() = %s, want %s", p.Name(), tt.kind)
			}
		})
	}
}

func TestImmediateLabels(t *testing.T) {
	p := ImmediateLabels{}
	for _, tc := range []int{0, 7, 999} {
		if got := p.RevealAt(tc); got != tc {
			t.Errorf("RevealAt(%d) = %d, want %d", tc, got, tc)
		}
	}
}

func TestDelayedLabels(t *testing.T) {
	p := DelayedLabels{Delay: 50}
	if got := p.RevealAt(10); got != 60 {
		t.Errorf("RevealAt(10) = %d, want 60", got)
	}
}

func TestSparseLabels_Deterministic(t *testing.T) {
	a := NewSparseLabels(0.3, 42)
	b := NewSparseLabels(0.3, 42)
	for i := 0; i < 1000; i++ {
		if a.RevealAt(i) != b.RevealAt(i) {
			t.Fatalf("same-seed policies diverged at instance %d", i)
		}
	}
}

func TestSparseLabels_RateExtremes(t *testing.T) {
	never := NewSparseLabels(0, 1)
	always := NewSparseLabels(1, 1)
	for i := 0; i < 100; i++ {
		if never.RevealAt(i) != -1 {
			t.Fatalf("rate 0 revealed a label at instance %d", i)
		}
		if always.RevealAt(i) != i {
			t.Fatalf("rate 1 withheld the label at instance %d", i)
		}
	}
}

func TestSparseLabels_ApproximatesRate(t *testing.T) {
	p := NewSparseLabels(0.25, 7)
	revealed := 0
	const n = 10000
	for i := 0; i < n; i++ {
		if p.RevealAt(i) >= 0 {
			revealed++
		}
	}
	frac := float64(revealed) / n
	if frac < 0.22 || frac > 0.28 {
		t.Errorf("revealed fraction = %v, want ~0.25", frac)
	}
}
