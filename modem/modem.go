// Package modem implements the G3RUH/HDLC 9600-baud modem: PCM to
// AX.25 frame bytes via blind search over phase, polarity, and
// scrambler variant, and the reverse (frame bytes to PCM).
package modem

import (
	"fmt"
	"log"

	"github.com/cwsl/echoflare/bitstream"
	"github.com/cwsl/echoflare/g3ruh"
	"github.com/cwsl/echoflare/hdlc"
)

// Config holds the modem's tunable parameters. Zero values are not
// valid; use DefaultConfig as a base.
type Config struct {
	Baud            int
	SampleRate      int
	Amplitude       int16
	PreFlags        int
	PostFlags       int
	ScrambleVariant g3ruh.Variant
	InitialLevel    int
}

// DefaultConfig returns the modem's documented defaults: 9600 baud,
// 48000 Hz sample rate, amplitude 20000, 32 preamble flags, 8 trailer
// flags, scrambler variant 0, initial line level 1.
func DefaultConfig() Config {
	return Config{
		Baud:            9600,
		SampleRate:      48000,
		Amplitude:       20000,
		PreFlags:        32,
		PostFlags:       8,
		ScrambleVariant: g3ruh.VariantShiftIn,
		InitialLevel:    1,
	}
}

// DemodResult is the outcome of a blind-search decode: the extracted
// frames (excluding HDLC flags and FCS) plus the parameters the search
// settled on.
type DemodResult struct {
	Frames             [][]byte
	ChosenPhase        int
	Inverted           bool
	DescrambleVariant  g3ruh.Variant
}

// Decode performs a blind search over starting phase, polarity, and
// G3RUH scrambler variant, keeping the combination that yields the
// most validated HDLC frames. It precomputes the per-phase binary
// level sequence once and reuses it across polarity/variant, per the
// no-hidden-state rule for this search. An empty result (no error) is
// returned when no combination finds any frame.
func Decode(sampleRate int, samples []int16, baud int) (DemodResult, error) {
	if sampleRate%baud != 0 {
		return DemodResult{}, fmt.Errorf("modem: sample rate %d is not an integer multiple of baud %d", sampleRate, baud)
	}
	samplesPerBit := sampleRate / baud

	var best DemodResult
	bestCount := -1

	for phase := 0; phase < samplesPerBit; phase++ {
		levels := downsample(samples, samplesPerBit, phase)

		for _, inverted := range []bool{false, true} {
			lv := levels
			if inverted {
				lv = invert(levels)
			}
			bits := bitstream.NRZIDecode(lv)

			for _, variant := range []g3ruh.Variant{g3ruh.VariantShiftIn, g3ruh.VariantShiftOut} {
				descrambled := g3ruh.Descramble(bits, variant)
				frames := hdlc.ExtractFrames(descrambled)
				if len(frames) > bestCount {
					bestCount = len(frames)
					best = DemodResult{
						Frames:            frames,
						ChosenPhase:       phase,
						Inverted:          inverted,
						DescrambleVariant: variant,
					}
				}
			}
		}
	}

	if bestCount <= 0 {
		log.Printf("[MODEM] blind search found no validated frames across %d phases", samplesPerBit)
		return DemodResult{Frames: nil, ChosenPhase: 0, Inverted: false, DescrambleVariant: g3ruh.VariantShiftIn}, nil
	}
	log.Printf("[MODEM] blind search: phase=%d inverted=%v variant=%d frames=%d", best.ChosenPhase, best.Inverted, best.DescrambleVariant, len(best.Frames))
	return best, nil
}

// downsample slices samples into non-overlapping windows of
// samplesPerBit starting at offset phase, averages each window, and
// thresholds at zero to form a binary level sequence.
func downsample(samples []int16, samplesPerBit, phase int) []int {
	var levels []int
	for i := phase; i+samplesPerBit <= len(samples); i += samplesPerBit {
		var sum int64
		for _, s := range samples[i : i+samplesPerBit] {
			sum += int64(s)
		}
		avg := float64(sum) / float64(samplesPerBit)
		if avg >= 0 {
			levels = append(levels, 1)
		} else {
			levels = append(levels, 0)
		}
	}
	return levels
}

func invert(levels []int) []int {
	out := make([]int, len(levels))
	for i, l := range levels {
		out[i] = l ^ 1
	}
	return out
}

// Encode modulates frame (AX.25 bytes excluding FCS) into PCM samples
// at cfg.SampleRate, ready to be written to a WAV file.
func Encode(frame []byte, cfg Config) []int16 {
	samplesPerBit := cfg.SampleRate / cfg.Baud

	bits := hdlc.ComposeFrame(frame, cfg.PreFlags, cfg.PostFlags)
	scrambled := g3ruh.Scramble(bits, cfg.ScrambleVariant)
	levels := bitstream.NRZIEncode(scrambled, cfg.InitialLevel)

	samples := make([]int16, 0, len(levels)*samplesPerBit)
	for _, lvl := range levels {
		val := cfg.Amplitude
		if lvl == 0 {
			val = -cfg.Amplitude
		}
		for i := 0; i < samplesPerBit; i++ {
			samples = append(samples, val)
		}
	}
	return samples
}

// EncodeToWAV encodes frame and writes it to filename at cfg.SampleRate.
func EncodeToWAV(frame []byte, cfg Config, filename string) error {
	samples := Encode(frame, cfg)
	w, err := NewWAVWriter(filename, cfg.SampleRate)
	if err != nil {
		return err
	}
	if err := w.WriteSamples(samples); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// DecodeWAV reads filename and runs the blind-search decoder against
// its contents.
func DecodeWAV(filename string, baud int) (DemodResult, error) {
	sampleRate, samples, err := ReadWAVMono16(filename)
	if err != nil {
		return DemodResult{}, err
	}
	return Decode(sampleRate, samples, baud)
}
