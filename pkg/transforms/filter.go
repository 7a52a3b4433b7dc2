package transforms

import (
	"fmt"
	"math"
)

// lfilter runs the IIR difference equation in direct form II transposed.
// state, when non-nil, holds the max(len(a),len(b))-1 initial conditions and
// is updated in place to the final state.
func lfilter(b, a, x, state []float64) []float64 {
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	bb := make([]float64, n)
	aa := make([]float64, n)
	copy(bb, b)
	copy(aa, a)
	if aa[0] != 1 {
		a0 := aa[0]
		for i := range bb {
			bb[i] /= a0
		}
		for i := range aa {
			aa[i] /= a0
		}
	}

	z := state
	if len(z) != n-1 {
		z = make([]float64, n-1)
	}
	y := make([]float64, len(x))
	for i, xi := range x {
		yi := bb[0] * xi
		if n > 1 {
			yi += z[0]
			for j := 0; j < n-2; j++ {
				z[j] = bb[j+1]*xi + z[j+1] - aa[j+1]*yi
			}
			z[n-2] = bb[n-1]*xi - aa[n-1]*yi
		}
		y[i] = yi
	}
	return y
}

// lfilterZi computes the initial filter state that makes the step response
// start in steady state: (I - A^T) zi = B restricted to the state dimension.
func lfilterZi(b, a []float64) ([]float64, error) {
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	if n < 2 {
		return nil, nil
	}
	bb := make([]float64, n)
	aa := make([]float64, n)
	copy(bb, b)
	copy(aa, a)
	if aa[0] != 1 {
		a0 := aa[0]
		for i := range bb {
			bb[i] /= a0
		}
		for i := range aa {
			aa[i] /= a0
		}
	}

	m := n - 1
	M := make([][]float64, m)
	rhs := make([]float64, m)
	for i := 0; i < m; i++ {
		M[i] = make([]float64, m)
		M[i][i] = 1
		M[i][0] += aa[i+1]
		if i+1 < m {
			M[i][i+1] -= 1
		}
		rhs[i] = bb[i+1] - aa[i+1]*bb[0]
	}
	zi, err := solveLinear(M, rhs)
	if err != nil {
		return nil, fmt.Errorf("solving for initial conditions: %w", err)
	}
	return zi, nil
}

// solveLinear solves Ax = b by Gaussian elimination with partial pivoting.
// A and b are clobbered. Sized for filter state systems, a few dozen rows.
func solveLinear(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(A[row][col]) > math.Abs(A[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(A[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			f := A[row][col] / A[col][col]
			if f == 0 {
				continue
			}
			for k := col; k < n; k++ {
				A[row][k] -= f * A[col][k]
			}
			b[row] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= A[row][k] * x[k]
		}
		x[row] = sum / A[row][row]
	}
	return x, nil
}

// oddExt extends x by edge samples on both ends, reflected around the end
// values, so the filter warms up on data that continues the signal's trend.
func oddExt(x []float64, edge int) []float64 {
	n := len(x)
	out := make([]float64, 0, n+2*edge)
	first, last := x[0], x[n-1]
	for i := edge; i >= 1; i-- {
		out = append(out, 2*first-x[i])
	}
	out = append(out, x...)
	for i := 2; i <= edge+1; i++ {
		out = append(out, 2*last-x[n-i])
	}
	return out
}

// padLen is the extension length used by filtfilt.
func padLen(b, a []float64) int {
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	return 3 * n
}

// filtfilt applies the filter forward and backward for zero phase. The input
// is odd-extended by padLen samples per side and each pass starts from the
// steady-state initial conditions zi scaled to the first sample, so constant
// inputs pass through without edge transients.
func filtfilt(b, a, zi, x []float64) ([]float64, error) {
	edge := padLen(b, a)
	if len(x) <= edge {
		return nil, fmt.Errorf("input length %d must exceed padding length %d", len(x), edge)
	}

	ext := oddExt(x, edge)

	state := make([]float64, len(zi))
	for i, z := range zi {
		state[i] = z * ext[0]
	}
	y := lfilter(b, a, ext, state)

	reverse(y)
	for i, z := range zi {
		state[i] = z * y[0]
	}
	y = lfilter(b, a, y, state)
	reverse(y)

	return y[edge : len(y)-edge], nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
