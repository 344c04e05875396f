package stats

import (
	"math"
	"testing"
)

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
		scores []float64
		want   float64
	}{
		{
			name:   "perfect separation",
			labels: []int{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1.0,
		},
		{
			name:   "inverted separation",
			labels: []int{0, 0, 1, 1},
			scores: []float64{0.9, 0.8, 0.2, 0.1},
			want:   0.0,
		},
		{
			name:   "all ties",
			labels: []int{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "partial ranking",
			labels: []int{0, 1, 0, 1},
			scores: []float64{0.1, 0.4, 0.35, 0.8},
			want:   1.0,
		},
		{
			name:   "one misranked pair",
			labels: []int{0, 0, 1, 1},
			scores: []float64{0.1, 0.8, 0.4, 0.9},
			want:   0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ROCAUC(tt.labels, tt.scores)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ROCAUC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestROCAUC_Undefined(t *testing.T) {
	tests := []struct {
		name   string
		labels []int
		scores []float64
	}{
		{"all positive", []int{1, 1, 1}, []float64{0.1, 0.2, 0.3}},
		{"all negative", []int{0, 0, 0}, []float64{0.1, 0.2, 0.3}},
		{"empty", nil, nil},
		{"length mismatch", []int{0, 1}, []float64{0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ROCAUC(tt.labels, tt.scores); !math.IsNaN(got) {
				t.Errorf("ROCAUC() = %v, want NaN", got)
			}
		})
	}
}

func TestSpearman(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical order", []float64{1, 2, 3, 4}, []float64{10, 20, 30, 40}, 1.0},
		{"reversed order", []float64{1, 2, 3, 4}, []float64{40, 30, 20, 10}, -1.0},
		{"monotone transform", []float64{1, 2, 3, 4}, []float64{1, 4, 9, 16}, 1.0},
		{"constant side", []float64{1, 2, 3}, []float64{5, 5, 5}, 0.0},
		{"too short", []float64{1}, []float64{2}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Spearman(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Spearman() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpearman_Symmetric(t *testing.T) {
	a := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	b := []float64{2, 7, 1, 8, 2, 8, 1, 8}
	if got, rev := Spearman(a, b), Spearman(b, a); got != rev {
		t.Errorf("Spearman not symmetric: %v vs %v", got, rev)
	}
}

func TestPseudoLabels(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.2, 0.8, 0.3}

	t.Run("top fraction marked anomalous", func(t *testing.T) {
		labels := PseudoLabels(scores, 0.4)
		want := []int{0, 1, 0, 1, 0}
		for i := range want {
			if labels[i] != want[i] {
				t.Fatalf("labels = %v, want %v", labels, want)
			}
		}
	})

	t.Run("at least one positive", func(t *testing.T) {
		labels := PseudoLabels(scores, 0.0)
		var pos int
		for _, y := range labels {
			pos += y
		}
		if pos < 1 {
			t.Errorf("got %d positives, want at least 1", pos)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if labels := PseudoLabels(nil, 0.1); labels != nil {
			t.Errorf("PseudoLabels(nil) = %v, want nil", labels)
		}
	})
}
