package analysis

import (
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns the one-sided power spectrum of samples taken every
// dt, with the mean removed. omega is in radians per unit time.
func PowerSpectrum(samples []float64, dt float64) (omega, power []float64) {
	n := len(samples)
	if n < 2 || !(dt > 0) {
		return nil, nil
	}

	centred := make([]float64, n)
	copy(centred, samples)
	floats.AddConst(-floats.Sum(centred)/float64(n), centred)

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)

	omega = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		omega[i] = 2 * math.Pi * fft.Freq(i) / dt
		a := cmplx.Abs(c) / float64(n)
		power[i] = a * a
	}
	return omega, power
}

// Peak is a local maximum of a power spectrum.
type Peak struct {
	Omega float64
	Power float64
}

// Peaks returns up to k local maxima of power, strongest first. The zero
// frequency bin is never a peak.
func Peaks(omega, power []float64, k int) []Peak {
	var peaks []Peak
	for i := 1; i < len(power); i++ {
		left := power[i-1]
		right := math.Inf(-1)
		if i+1 < len(power) {
			right = power[i+1]
		}
		if power[i] > left && power[i] >= right {
			peaks = append(peaks, Peak{Omega: omega[i], Power: power[i]})
		}
	}
	sort.Slice(peaks, func(a, b int) bool { return peaks[a].Power > peaks[b].Power })
	if len(peaks) > k {
		peaks = peaks[:k]
	}
	return peaks
}
