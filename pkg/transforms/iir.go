package transforms

import (
	"math"
	"math/cmplx"
)

// The designs below follow the classical analog-prototype route: place the
// prototype poles, move them to the requested band with a lowpass-to-lowpass
// or lowpass-to-bandpass transform, then discretize with the bilinear
// transform using prewarped edge frequencies. Edge frequencies are given as
// fractions of the Nyquist frequency throughout.

// butterPrototype returns the poles of the analog Butterworth lowpass
// prototype with cutoff 1 rad/s. Gain is 1 and there are no finite zeros.
func butterPrototype(order int) []complex128 {
	poles := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		theta := math.Pi * float64(m) / float64(2*order)
		poles = append(poles, -cmplx.Exp(complex(0, theta)))
	}
	return poles
}

// cheby1Prototype returns poles and gain of the analog Chebyshev type I
// lowpass prototype with rippleDB of passband ripple.
func cheby1Prototype(order int, rippleDB float64) ([]complex128, float64) {
	eps := math.Sqrt(math.Pow(10, 0.1*rippleDB) - 1)
	mu := math.Asinh(1/eps) / float64(order)

	poles := make([]complex128, 0, order)
	prod := complex(1, 0)
	for m := -order + 1; m < order; m += 2 {
		theta := math.Pi * float64(m) / float64(2*order)
		p := -cmplx.Sinh(complex(mu, theta))
		poles = append(poles, p)
		prod *= -p
	}
	gain := real(prod)
	if order%2 == 0 {
		gain /= math.Sqrt(1 + eps*eps)
	}
	return poles, gain
}

// lp2lp rescales a lowpass prototype without finite zeros to cutoff wo.
func lp2lp(poles []complex128, gain, wo float64) ([]complex128, float64) {
	out := make([]complex128, len(poles))
	for i, p := range poles {
		out[i] = p * complex(wo, 0)
	}
	return out, gain * math.Pow(wo, float64(len(poles)))
}

// lp2bp moves a lowpass prototype without finite zeros to a bandpass with
// center wo and width bw. Each prototype pole splits into a pair; the
// transform adds one zero at the origin per prototype pole.
func lp2bp(poles []complex128, gain, wo, bw float64) ([]complex128, []complex128, float64) {
	n := len(poles)
	half := complex(bw/2, 0)
	wo2 := complex(wo*wo, 0)

	bpoles := make([]complex128, 0, 2*n)
	for _, p := range poles {
		pl := p * half
		d := cmplx.Sqrt(pl*pl - wo2)
		bpoles = append(bpoles, pl+d)
	}
	for _, p := range poles {
		pl := p * half
		d := cmplx.Sqrt(pl*pl - wo2)
		bpoles = append(bpoles, pl-d)
	}
	zeros := make([]complex128, n)
	return zeros, bpoles, gain * math.Pow(bw, float64(n))
}

// bilinear maps an analog design to the digital plane at sample rate fs.
// Zeros at analog infinity land on z = -1.
func bilinear(zeros, poles []complex128, gain, fs float64) ([]complex128, []complex128, float64) {
	fs2 := complex(2*fs, 0)

	zz := make([]complex128, 0, len(poles))
	num := complex(1, 0)
	for _, z := range zeros {
		zz = append(zz, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	pz := make([]complex128, 0, len(poles))
	den := complex(1, 0)
	for _, p := range poles {
		pz = append(pz, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	for i := len(zeros); i < len(poles); i++ {
		zz = append(zz, complex(-1, 0))
	}
	return zz, pz, gain * real(num/den)
}

// poly expands the monic polynomial with the given roots; coefficients come
// back in descending powers, length len(roots)+1.
func poly(roots []complex128) []complex128 {
	coeffs := make([]complex128, 1, len(roots)+1)
	coeffs[0] = 1
	for _, r := range roots {
		coeffs = append(coeffs, 0)
		for i := len(coeffs) - 1; i >= 1; i-- {
			coeffs[i] -= r * coeffs[i-1]
		}
	}
	return coeffs
}

// zpk2tf converts zeros/poles/gain to transfer-function coefficients.
// Complex parts cancel because roots come in conjugate pairs.
func zpk2tf(zeros, poles []complex128, gain float64) (b, a []float64) {
	bc := poly(zeros)
	b = make([]float64, len(bc))
	for i, c := range bc {
		b[i] = gain * real(c)
	}
	ac := poly(poles)
	a = make([]float64, len(ac))
	for i, c := range ac {
		a[i] = real(c)
	}
	return b, a
}

// prewarp maps a normalized digital edge (fraction of Nyquist) to the analog
// frequency that the bilinear transform at fs=2 lands back on the edge.
func prewarp(edge float64) float64 {
	const fs = 2.0
	return 2 * fs * math.Tan(math.Pi*edge/fs)
}

// butterBandpass designs digital Butterworth bandpass coefficients for edges
// given as fractions of Nyquist. The result has 2*order poles.
func butterBandpass(order int, low, high float64) (b, a []float64) {
	const fs = 2.0
	w1, w2 := prewarp(low), prewarp(high)
	z, p, k := lp2bp(butterPrototype(order), 1, math.Sqrt(w1*w2), w2-w1)
	z, p, k = bilinear(z, p, k, fs)
	return zpk2tf(z, p, k)
}

// cheby1Lowpass designs digital Chebyshev type I lowpass coefficients for a
// cutoff given as a fraction of Nyquist.
func cheby1Lowpass(order int, rippleDB, cutoff float64) (b, a []float64) {
	const fs = 2.0
	p, k := cheby1Prototype(order, rippleDB)
	p, k = lp2lp(p, k, prewarp(cutoff))
	z, p2, k2 := bilinear(nil, p, k, fs)
	return zpk2tf(z, p2, k2)
}
