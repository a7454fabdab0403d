package lineage

import (
	"gonum.org/v1/gonum/stat"
)

// Summary describes trajectory lengths of a merged table.
type Summary struct {
	Records      int
	Trajectories int
	// Trajectories with at least MinLength records
	Kept       int
	MinLength  int
	MeanLength float64
	StdLength  float64
	MaxLength  int
}

// Summarize computes length statistics over distinct trajectories of records
func Summarize(records []Record, minLength int) Summary {
	lengths := make(map[TrajectoryID]int)
	for _, rec := range records {
		lengths[rec.TrajID] = rec.TrajLength
	}
	summary := Summary{
		Records:      len(records),
		Trajectories: len(lengths),
		MinLength:    minLength,
	}
	if len(lengths) == 0 {
		return summary
	}
	values := make([]float64, 0, len(lengths))
	for _, l := range lengths {
		values = append(values, float64(l))
		if l >= minLength {
			summary.Kept++
		}
		if l > summary.MaxLength {
			summary.MaxLength = l
		}
	}
	if len(values) > 1 {
		summary.MeanLength, summary.StdLength = stat.MeanStdDev(values, nil)
	} else {
		summary.MeanLength = values[0]
	}
	return summary
}
