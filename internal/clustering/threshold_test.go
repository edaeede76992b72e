package clustering

import (
	"math"
	"testing"
)

func TestLogThreshold(t *testing.T) {
	fn := NewLogThreshold(0.55, 0.03, 0.80)

	tests := []struct {
		name      string
		ideaCount int
		want      float64
	}{
		{name: "empty discussion uses base", ideaCount: 0, want: 0.55},
		{name: "small discussion", ideaCount: 9, want: 0.55 + 0.03*math.Log1p(9)},
		{name: "large discussion is capped", ideaCount: 100000, want: 0.80},
		{name: "negative count clamps to base", ideaCount: -5, want: 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fn(tt.ideaCount)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("threshold(%d) = %v, want %v", tt.ideaCount, got, tt.want)
			}
		})
	}
}

func TestLogThresholdIsMonotonic(t *testing.T) {
	fn := NewLogThreshold(0.55, 0.03, 0.80)

	prev := fn(0)
	for n := 1; n <= 10000; n *= 2 {
		cur := fn(n)
		if cur < prev {
			t.Fatalf("threshold decreased: f(%d) = %v < %v", n, cur, prev)
		}
		if cur > 0.80 {
			t.Fatalf("threshold exceeded cap: f(%d) = %v", n, cur)
		}
		prev = cur
	}
}
