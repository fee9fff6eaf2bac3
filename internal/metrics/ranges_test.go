package metrics

import (
	"math"
	"testing"
)

func TestInferStatus(t *testing.T) {
	tests := []struct {
		value     float64
		rangeText string
		want      Status
	}{
		// Upper bounds.
		{20, "< 25%", StatusInRange},
		{25, "< 25%", StatusOutOfRange},
		{30, "< 25%", StatusOutOfRange},
		{15, "<= 15% diff", StatusInRange},
		{15.1, "<= 15% diff", StatusOutOfRange},
		// Lower bounds.
		{10, "> 9.5 Hz", StatusInRange},
		{9.5, "> 9.5 Hz", StatusOutOfRange},
		{9.5, ">= 9.5 Hz", StatusInRange},
		// Negative bound.
		{-10, "< -5%", StatusInRange},
		{-3, "< -5%", StatusOutOfRange},
		// Intervals, both textual and reversed.
		{2.0, "1.8-2.2", StatusInRange},
		{1.8, "1.8-2.2", StatusInRange},
		{2.3, "1.8-2.2", StatusOutOfRange},
		{6, "4 to 8", StatusInRange},
		{6, "8-4", StatusInRange}, // bounds swapped by the writer
		{3, "8-4", StatusOutOfRange},
		// Absolute-value ceilings.
		{-4, "abs <= 5", StatusInRange},
		{6, "abs <= 5", StatusOutOfRange},
		{-4, "abs 5", StatusInRange}, // residual rule, no comparator
		{-6, "abs 5", StatusOutOfRange},
		// Units and annotations around the number are ignored.
		{45, "< 60 uV", StatusInRange},
		// Unusable input.
		{1.0, "", StatusMissing},
		{1.0, "within clinical norms", StatusMissing},
		{math.NaN(), "< 25%", StatusMissing},
		{math.Inf(1), "< 25%", StatusMissing},
	}

	for _, tt := range tests {
		got := InferStatus(tt.value, tt.rangeText)
		if got != tt.want {
			t.Errorf("InferStatus(%v, %q) = %v, want %v", tt.value, tt.rangeText, got, tt.want)
		}
	}
}
