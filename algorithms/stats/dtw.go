package stats

import (
	"fmt"
	"math"
)

// CostFunc computes the local cost of matching query index i to reference
// index j. Supplying the cost as a function keeps DTW independent of the
// feature representation.
type CostFunc func(i, j int) float64

// DTW performs Dynamic Time Warping alignment between two sequences.
// DTW is the standard way to align audio feature sequences of different
// lengths and pacing before comparing them frame by frame.
type DTW struct {
	bandRadius int // Sakoe-Chiba band radius, <= 0 means unconstrained
}

// DTWResult contains the alignment produced by Align
type DTWResult struct {
	Distance    float64      `json:"distance"`     // Path cost normalized by path length
	TotalCost   float64      `json:"total_cost"`   // Accumulated path cost
	Path        []AlignPoint `json:"path"`         // Optimal alignment path, (0,0) .. (n-1,m-1)
	QueryLength int          `json:"query_length"` // Length of query sequence
	RefLength   int          `json:"ref_length"`   // Length of reference sequence
	BandRadius  int          `json:"band_radius"`  // Band constraint used
}

// AlignPoint is one step of the warping path
type AlignPoint struct {
	QueryIndex int     `json:"query_index"`
	RefIndex   int     `json:"ref_index"`
	Cost       float64 `json:"cost"` // Local cost at this point
}

// NewDTW creates an unconstrained DTW aligner
func NewDTW() *DTW {
	return &DTW{bandRadius: -1}
}

// NewDTWWithBand creates a DTW aligner with a Sakoe-Chiba band. The band
// bounds how far the path may stray from the (slope-adjusted) diagonal,
// which rules out degenerate many-to-one alignments and caps the work done
// on adversarial input.
func NewDTWWithBand(radius int) *DTW {
	return &DTW{bandRadius: radius}
}

// inBand reports whether cell (i,j) lies inside the band. The band is
// centered on the slope-adjusted diagonal so sequences of different lengths
// keep a usable corridor, and it is widened to at least the length
// difference so the corner cells stay reachable.
func (d *DTW) inBand(i, j, n, m int) bool {
	if d.bandRadius <= 0 {
		return true
	}

	radius := d.bandRadius
	if diff := n - m; diff < 0 {
		if -diff > radius {
			radius = -diff
		}
	} else if diff > radius {
		radius = diff
	}

	center := float64(i) * float64(m-1) / math.Max(float64(n-1), 1)
	return math.Abs(center-float64(j)) <= float64(radius)
}

// Align computes the optimal monotonic warping path between a query of
// length n and a reference of length m. The path is pinned to (0,0) and
// (n-1,m-1), uses steps {(1,0),(0,1),(1,1)}, and on equal accumulated cost
// prefers the diagonal step — the canonical DTW tie-break, kept explicit so
// alignment output is reproducible.
func (d *DTW) Align(n, m int, cost CostFunc) (*DTWResult, error) {
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("empty sequences: query=%d reference=%d", n, m)
	}

	// Accumulated cost matrix with a padding row/column of +Inf
	acc := make([][]float64, n+1)
	for i := range acc {
		acc[i] = make([]float64, m+1)
		for j := range acc[i] {
			acc[i][j] = math.Inf(1)
		}
	}
	acc[0][0] = 0

	local := make([][]float64, n)
	for i := range local {
		local[i] = make([]float64, m)
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if !d.inBand(i-1, j-1, n, m) {
				continue
			}

			c := cost(i-1, j-1)
			local[i-1][j-1] = c

			// Diagonal checked first so ties resolve toward it
			best := acc[i-1][j-1]
			if acc[i-1][j] < best {
				best = acc[i-1][j]
			}
			if acc[i][j-1] < best {
				best = acc[i][j-1]
			}

			if !math.IsInf(best, 1) {
				acc[i][j] = c + best
			}
		}
	}

	if math.IsInf(acc[n][m], 1) {
		return nil, fmt.Errorf("no path through cost matrix (band radius %d too narrow)", d.bandRadius)
	}

	path := d.backtrack(acc, local, n, m)

	total := acc[n][m]
	return &DTWResult{
		Distance:    total / float64(len(path)),
		TotalCost:   total,
		Path:        path,
		QueryLength: n,
		RefLength:   m,
		BandRadius:  d.bandRadius,
	}, nil
}

// backtrack walks the accumulated matrix from (n,m) to (1,1), preferring the
// diagonal predecessor on ties to keep the path close to the identity line.
func (d *DTW) backtrack(acc, local [][]float64, n, m int) []AlignPoint {
	reversed := make([]AlignPoint, 0, n+m)
	i, j := n, m

	for i > 0 || j > 0 {
		reversed = append(reversed, AlignPoint{
			QueryIndex: i - 1,
			RefIndex:   j - 1,
			Cost:       local[i-1][j-1],
		})

		switch {
		case i == 1 && j == 1:
			i, j = 0, 0
		case i == 1:
			j--
		case j == 1:
			i--
		default:
			// Diagonal wins ties; the <= comparisons implement the
			// closest-to-diagonal preference deterministically.
			diag := acc[i-1][j-1]
			up := acc[i-1][j]
			left := acc[i][j-1]

			if diag <= up && diag <= left {
				i, j = i-1, j-1
			} else if up <= left {
				i--
			} else {
				j--
			}
		}
	}

	// Reverse into forward order
	path := make([]AlignPoint, len(reversed))
	for k, p := range reversed {
		path[len(reversed)-1-k] = p
	}
	return path
}
