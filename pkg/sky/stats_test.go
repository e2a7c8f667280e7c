package sky

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	summary := Summarize([]float64{0.5, 1, 0, 0.25})

	if summary.Checkpoints != 4 {
		t.Errorf("Expected 4 checkpoints, got %d", summary.Checkpoints)
	}
	if summary.MinRatio != 0 || summary.MaxRatio != 1 {
		t.Errorf("Expected range [0, 1], got [%v, %v]", summary.MinRatio, summary.MaxRatio)
	}
	if math.Abs(summary.AverageRatio-0.4375) > 1e-12 {
		t.Errorf("Expected average 0.4375, got %v", summary.AverageRatio)
	}
	if summary.Covered != 1 {
		t.Errorf("Expected 1 covered checkpoint, got %d", summary.Covered)
	}

	if Summarize(nil) != (Summary{}) {
		t.Error("Expected zero summary for no ratios")
	}
}
