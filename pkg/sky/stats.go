package sky

import "github.com/samber/lo"

// Summary contains statistics over a batch of sky ratios
type Summary struct {
	Checkpoints  int     // Number of ratios summarized
	MinRatio     float64 // Most obstructed checkpoint
	MaxRatio     float64 // Least obstructed checkpoint
	AverageRatio float64 // Mean over all checkpoints
	Covered      int     // Checkpoints with no visible sky
}

// Summarize computes the summary of ratios. The zero Summary is returned for
// an empty batch.
func Summarize(ratios []float64) Summary {
	if len(ratios) == 0 {
		return Summary{}
	}
	return Summary{
		Checkpoints:  len(ratios),
		MinRatio:     lo.Min(ratios),
		MaxRatio:     lo.Max(ratios),
		AverageRatio: lo.Sum(ratios) / float64(len(ratios)),
		Covered:      lo.Count(ratios, 0),
	}
}
