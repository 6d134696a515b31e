package sstv

import (
	"math"
	"testing"
)

// S5-adjacent: exercise assembleImage directly against a synthetic
// instantaneous-frequency track that ramps linearly within each luma
// window, which is how a genuine Robot36 capture's inst-freq would
// look once sync is found. This isolates pixel sampling and color
// reconstruction from the STFT sync search, which
// TestDecodeSyntheticRobot36Signal exercises against synthesized audio.
func TestAssembleImageGradientAndShape(t *testing.T) {
	const fs = 48000
	timings := DefaultTimings()
	lineSamples := int(math.Round(timings.LineS() * fs))

	chain := make([]int, imageHeight)
	for i := range chain {
		chain[i] = i * lineSamples
	}
	totalSamples := chain[len(chain)-1] + lineSamples + fs/10

	instFreq := make([]float64, totalSamples)
	y0 := timings.SyncS + timings.PorchS
	for _, syncStart := range chain {
		yStart := syncStart + int(math.Round(y0*fs))
		yEnd := yStart + int(math.Round(timings.YS*fs))
		for i := yStart; i < yEnd && i < len(instFreq); i++ {
			frac := float64(i-yStart) / float64(yEnd-yStart)
			instFreq[i] = 1500 + frac*800 // left-to-right ramp 1500->2300Hz
		}
	}

	img := assembleImage(instFreq, chain, fs)

	bounds := img.Bounds()
	if bounds.Dx() != imageWidth || bounds.Dy() != imageHeight {
		t.Fatalf("image shape = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), imageWidth, imageHeight)
	}

	// Within a single luma row, later pixel columns should read as
	// brighter, matching the left-to-right frequency ramp. The chroma
	// windows are left at 0 Hz (byte 0), which lowers R by the same
	// amount in every column, so the ramp still shows in R.
	row := 10
	leftR, _, _, _ := img.At(2, row).RGBA()
	rightR, _, _, _ := img.At(imageWidth-3, row).RGBA()
	if rightR <= leftR {
		t.Fatalf("expected right edge brighter than left edge for a rising-frequency ramp: left=%d right=%d", leftR, rightR)
	}
}

func TestDecodeSilenceReturnsSyncFailure(t *testing.T) {
	const fs = 48000
	samples := make([]int16, fs*3) // 3 seconds of silence
	_, err := Decode(fs, samples)
	if err == nil {
		t.Fatalf("expected ErrSyncFailure for silent input")
	}
}

// synthesizeRobot36Line appends one line's worth of FM-modulated
// samples to phase/samples: sync tone, porch, a left-to-right
// 1500->2300Hz ramp for luma, separator, and a neutral chroma tone,
// continuing the running phase so consecutive lines stay
// phase-continuous (as a real capture would be).
func synthesizeRobot36Line(samples []int16, phase *float64, fs float64) []int16 {
	const amplitude = 12000.0
	timings := DefaultTimings()

	emit := func(durationS float64, freqAt func(frac float64) float64) {
		n := int(math.Round(durationS * fs))
		for i := 0; i < n; i++ {
			frac := float64(i) / float64(n)
			f := freqAt(frac)
			*phase += 2 * math.Pi * f / fs
			samples = append(samples, int16(amplitude*math.Sin(*phase)))
		}
	}

	emit(timings.SyncS, func(float64) float64 { return 1200 })
	emit(timings.PorchS, func(float64) float64 { return 1500 })
	emit(timings.YS, func(frac float64) float64 { return 1500 + frac*800 })
	emit(timings.SepS, func(float64) float64 { return 1500 })
	emit(timings.CS, func(float64) float64 { return 1900 }) // ~neutral chroma

	return samples
}

// S5: synthesize a Robot36 WAV whose lines are sync + porch + a
// left-to-right luma gradient + separator + neutral chroma, and run it
// through the real entry point (bandpass -> analytic signal ->
// instantaneous frequency -> STFT sync detection -> line-sync chaining
// -> pixel sampling), not just assembleImage against a synthetic
// inst-freq track.
func TestDecodeSyntheticRobot36Signal(t *testing.T) {
	const fs = 48000.0
	var phase float64
	var samples []int16
	for line := 0; line < minChainLines+20; line++ {
		samples = synthesizeRobot36Line(samples, &phase, fs)
	}

	img, err := Decode(fs, samples)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != imageWidth || bounds.Dy() != imageHeight {
		t.Fatalf("image shape = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), imageWidth, imageHeight)
	}

	row := imageHeight / 2
	leftR, _, _, _ := img.At(4, row).RGBA()
	rightR, _, _, _ := img.At(imageWidth-5, row).RGBA()
	if rightR <= leftR {
		t.Fatalf("expected right edge brighter than left edge for a rising-frequency ramp: left=%d right=%d", leftR, rightR)
	}
}

func TestDecodeTooShortForSTFTWindow(t *testing.T) {
	const fs = 48000
	samples := make([]int16, 100) // shorter than one STFT window
	img, err := Decode(fs, samples)
	if err == nil {
		t.Fatalf("expected an error for input shorter than one STFT window, got image %v", img)
	}
}
