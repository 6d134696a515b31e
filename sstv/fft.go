package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft computes the complex DFT of a real-valued window, padding to the
// next power of two if necessary and truncating the result back to the
// input length.
func fft(input []float64) []complex128 {
	n := len(input)
	complexInput := make([]complex128, n)
	for i, v := range input {
		complexInput[i] = complex(v, 0)
	}
	padded := fourier.PadRadix2(complexInput)
	coeffs := fourier.CoefficientsRadix2(padded)
	out := make([]complex128, n)
	copy(out, coeffs[:n])
	return out
}

// hannWindow returns the n-point Hann window used for STFT framing.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
