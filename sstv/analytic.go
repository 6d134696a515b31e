package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// analyticSignal computes the analytic signal of a real sequence via
// the FFT-based Hilbert transform: double the positive-frequency half
// of the spectrum, zero the negative half, leave DC (and Nyquist, for
// even n) alone, then invert.
func analyticSignal(x []float64) []complex128 {
	n := len(x)
	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	spectrum := fft.Coefficients(nil, seq)

	h := make([]float64, n)
	h[0] = 1
	switch {
	case n%2 == 0:
		h[n/2] = 1
		for i := 1; i < n/2; i++ {
			h[i] = 2
		}
	default:
		for i := 1; i < (n+1)/2; i++ {
			h[i] = 2
		}
	}
	for i := range spectrum {
		spectrum[i] *= complex(h[i], 0)
	}

	return fft.Sequence(nil, spectrum)
}

// unwrap corrects a sequence of wrapped phase angles (radians) by
// adding/subtracting multiples of 2*pi whenever a jump between
// consecutive samples exceeds pi.
func unwrap(phase []float64) []float64 {
	out := make([]float64, len(phase))
	if len(phase) == 0 {
		return out
	}
	out[0] = phase[0]
	var correction float64
	for i := 1; i < len(phase); i++ {
		delta := phase[i] - phase[i-1]
		for delta > math.Pi {
			correction -= 2 * math.Pi
			delta -= 2 * math.Pi
		}
		for delta < -math.Pi {
			correction += 2 * math.Pi
			delta += 2 * math.Pi
		}
		out[i] = phase[i] + correction
	}
	return out
}

// movingAverage smooths x with a centered n-tap moving average,
// shrinking the window at the edges (equivalent to numpy.convolve's
// "same" mode truncated to the available samples).
func movingAverage(x []float64, n int) []float64 {
	if n <= 1 {
		return x
	}
	half := n / 2
	out := make([]float64, len(x))
	for i := range x {
		var sum float64
		var count int
		for k := -half; k <= half; k++ {
			j := i + k
			if j >= 0 && j < len(x) {
				sum += x[j]
				count++
			}
		}
		out[i] = sum / float64(count)
	}
	return out
}

// instantaneousFrequency differentiates the unwrapped phase of an
// analytic signal, scales it to Hz, extends the last sample to
// preserve length, and smooths with a 5-tap moving average.
func instantaneousFrequency(analytic []complex128, fs float64) []float64 {
	n := len(analytic)
	phase := make([]float64, n)
	for i, v := range analytic {
		phase[i] = math.Atan2(imag(v), real(v))
	}
	unwrapped := unwrap(phase)

	freq := make([]float64, n)
	for i := 0; i < n-1; i++ {
		freq[i] = (unwrapped[i+1] - unwrapped[i]) * (fs / (2 * math.Pi))
	}
	if n > 1 {
		freq[n-1] = freq[n-2]
	}
	return movingAverage(freq, 5)
}
