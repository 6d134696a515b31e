// Package sstv decodes Robot36 SSTV images (240 lines x 320 pixels,
// YCbCr with alternating chroma per line) from 16-bit mono PCM audio:
// bandpass filtering, instantaneous-frequency demodulation, STFT-based
// line-sync detection and chaining, and pixel sampling.
package sstv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/cwsl/echoflare/modem"
)

const (
	imageWidth  = 320
	imageHeight = 240

	bandpassLowHz  = 300
	bandpassHighHz = 4000

	syncSearchLowHz  = 800
	syncSearchHighHz = 2600
	syncFreqLowHz    = 1080
	syncFreqHighHz   = 1320

	minChainLines = 200
)

// ErrSyncFailure is returned when the line-sync chain has fewer than
// minChainLines lines; the decoder cannot recover a meaningful image
// from the capture.
var ErrSyncFailure = errors.New("sstv: could not find a stable Robot36 line sync chain")

// DecodeWAV reads a 16-bit mono PCM WAV file at wavPath, decodes a
// Robot36 image, and writes it as a 320x240 PNG to outPath.
func DecodeWAV(wavPath, outPath string) error {
	fs, samples, err := modem.ReadWAVMono16(wavPath)
	if err != nil {
		return fmt.Errorf("sstv: %w", err)
	}
	img, err := Decode(fs, samples)
	if err != nil {
		return err
	}
	return SavePNG(img, outPath)
}

// Decode runs the full Robot36 pipeline against PCM samples at the
// given sample rate, returning a 320x240 RGB image. It returns
// ErrSyncFailure if fewer than 200 line syncs can be chained together.
func Decode(fs int, samples []int16) (*image.RGBA, error) {
	img, _, err := DecodeWithChainLength(fs, samples)
	return img, err
}

// DecodeWithChainLength is Decode, additionally reporting the length of
// the line-sync chain it found (useful for observability/metrics; on
// error the chain length reflects what was found before giving up).
func DecodeWithChainLength(fs int, samples []int16) (*image.RGBA, int, error) {
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s) / 32768.0
	}

	xf := filtfiltBandpass(x, bandpassLowHz, bandpassHighHz, float64(fs))
	analytic := analyticSignal(xf)
	instFreq := instantaneousFrequency(analytic, float64(fs))

	chain, err := findLineSyncChain(xf, fs)
	if err != nil {
		return nil, len(chain), err
	}

	return assembleImage(instFreq, chain, fs), len(chain), nil
}

// findLineSyncChain runs STFT-based sync-pulse detection followed by
// line-sync chaining, returning the chosen chain of sample indices (at
// most imageHeight long), or the too-short chain together with
// ErrSyncFailure.
func findLineSyncChain(xf []float64, fs int) ([]int, error) {
	timings := DefaultTimings()

	peakFreq, sliceStart := stftPeakFreqs(xf, float64(fs), syncSearchLowHz, syncSearchHighHz)
	mask := make([]bool, len(peakFreq))
	for i, f := range peakFreq {
		mask[i] = f >= syncFreqLowHz && f <= syncFreqHighHz
	}

	minFrames := int(math.Round((timings.SyncS * 0.6) / (float64(stftHop) / float64(fs))))
	if minFrames < 2 {
		minFrames = 2
	}

	var candidates []int
	for _, run := range syncRuns(mask) {
		if run[1]-run[0] >= minFrames {
			candidates = append(candidates, sliceStart[run[0]])
		}
	}

	chain := pickSyncChain(candidates, fs, timings.LineS())
	log.Printf("[SSTV] sync candidates=%d chain=%d", len(candidates), len(chain))
	if len(chain) < minChainLines {
		return chain, fmt.Errorf("%w (found %d lines)", ErrSyncFailure, len(chain))
	}
	if len(chain) > imageHeight {
		chain = chain[:imageHeight]
	}
	return chain, nil
}

// assembleImage samples luma/chroma pixel rows along chain and
// reassembles them into an RGB image. Robot36 alternates chroma
// components per line (even -> Cb, odd -> Cr), each applied to the
// pair of luma rows i/2.
func assembleImage(instFreq []float64, chain []int, fs int) *image.RGBA {
	timings := DefaultTimings()
	y0 := timings.SyncS + timings.PorchS
	c0 := y0 + timings.YS + timings.SepS

	yLines := make([][]byte, len(chain))
	cbLines := make([][]byte, (len(chain)+1)/2)
	crLines := make([][]byte, (len(chain)+1)/2)

	for i, syncStart := range chain {
		yStart := syncStart + int(math.Round(y0*float64(fs)))
		cStart := syncStart + int(math.Round(c0*float64(fs)))

		yLines[i] = samplePixelRow(instFreq, yStart, timings.YS, fs)
		cRow := samplePixelRow(instFreq, cStart, timings.CS, fs)

		pair := i / 2
		if i%2 == 0 {
			cbLines[pair] = cRow
		} else {
			crLines[pair] = cRow
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	for pair := range cbLines {
		cb, cr := cbLines[pair], crLines[pair]
		if cb == nil || cr == nil {
			continue
		}
		for _, row := range [2]int{2 * pair, 2*pair + 1} {
			if row >= len(yLines) || yLines[row] == nil {
				continue
			}
			for col := 0; col < imageWidth; col++ {
				r, g, b := ycbcrToRGB(yLines[row][col], cb[col], cr[col])
				img.SetRGBA(col, row, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return img
}

// samplePixelRow samples imageWidth pixel centers from instFreq,
// starting at sample index start and spanning spanS seconds.
func samplePixelRow(instFreq []float64, start int, spanS float64, fs int) []byte {
	out := make([]byte, imageWidth)
	for k := 0; k < imageWidth; k++ {
		idx := start + int((float64(k)+0.5)*spanS*float64(fs)/float64(imageWidth))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(instFreq) {
			idx = len(instFreq) - 1
		}
		out[k] = freqToByte(instFreq[idx])
	}
	return out
}

// freqToByte maps an instantaneous frequency to a Robot36 sample byte:
// 1500 Hz -> 0, 2300 Hz -> 255.
func freqToByte(freq float64) byte {
	v := (freq - 1500.0) * (255.0 / 800.0)
	return clampByte(v)
}

// ycbcrToRGB applies the BT.601-approximate full-range conversion used
// by this decoder.
func ycbcrToRGB(y, cb, cr byte) (r, g, b byte) {
	yf := float64(y)
	cbf := float64(cb) - 128.0
	crf := float64(cr) - 128.0

	r = clampByte(yf + 1.402*crf)
	g = clampByte(yf - 0.344136*cbf - 0.714136*crf)
	b = clampByte(yf + 1.772*cbf)
	return r, g, b
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// SavePNG writes img to filename as a PNG, closing the file on every
// exit path.
func SavePNG(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("sstv: create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("sstv: encode PNG: %w", err)
	}
	return nil
}
