package workload

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrHistogramMismatch means the values read differ from the values written
var ErrHistogramMismatch = errors.New("workload: read and write histograms differ")

// Histogram counts occurrences of each value
type Histogram map[int]uint64

// Total returns the sum of all counts
func (h Histogram) Total() uint64 {
	var n uint64
	for _, c := range h {
		n += c
	}
	return n
}

// Merge adds up histograms into a new one
func Merge(hs ...Histogram) Histogram {
	res := make(Histogram)
	for _, h := range hs {
		for k, v := range h {
			res[k] += v
		}
	}
	return res
}

// Diff returns nil if want and got hold the same multiset.
// Otherwise the error names the smallest mismatching value.
func Diff(want, got Histogram) error {
	var bad []int
	for k, v := range want {
		if got[k] != v {
			bad = append(bad, k)
		}
	}
	for k := range got {
		if _, ok := want[k]; !ok {
			bad = append(bad, k)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Ints(bad)
	return errors.Wrapf(ErrHistogramMismatch, "%d values differ, first %d: wrote %d, read %d",
		len(bad), bad[0], want[bad[0]], got[bad[0]])
}
