package modem

import (
	"bytes"
	"testing"

	"github.com/cwsl/echoflare/g3ruh"
)

// S4 Modem round-trip.
func TestS4EncodeDecodeRoundTrip(t *testing.T) {
	frame := []byte("HA7FLR0GROUND0XY1234")
	if len(frame) != 20 {
		t.Fatalf("test setup: want a 20-byte frame, got %d", len(frame))
	}
	cfg := DefaultConfig()

	samples := Encode(frame, cfg)
	result, err := Decode(cfg.SampleRate, samples, cfg.Baud)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(result.Frames))
	}
	if !bytes.Equal(result.Frames[0], frame) {
		t.Fatalf("decoded frame = %q, want %q", result.Frames[0], frame)
	}
	if result.Inverted {
		t.Fatalf("expected inverted=false for a clean encode")
	}
	if result.DescrambleVariant != cfg.ScrambleVariant {
		t.Fatalf("descramble variant = %d, want %d", result.DescrambleVariant, cfg.ScrambleVariant)
	}
}

func TestDecodeRejectsNonIntegerSamplesPerBit(t *testing.T) {
	if _, err := Decode(44100, make([]int16, 100), 9600); err == nil {
		t.Fatalf("expected error for non-integer samples-per-bit ratio")
	}
}

func TestDecodeEmptyOnSilence(t *testing.T) {
	cfg := DefaultConfig()
	silence := make([]int16, cfg.SampleRate) // 1 second of silence
	result, err := Decode(cfg.SampleRate, silence, cfg.Baud)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Frames) != 0 {
		t.Fatalf("got %d frames from silence, want 0", len(result.Frames))
	}
	if result.ChosenPhase != 0 || result.Inverted || result.DescrambleVariant != g3ruh.VariantShiftIn {
		t.Fatalf("empty result should report the documented defaults, got %+v", result)
	}
}

func TestEncodeVariantOtherThanDefault(t *testing.T) {
	frame := []byte("HA7FLR0GROUND0ZZ")
	cfg := DefaultConfig()
	cfg.ScrambleVariant = g3ruh.VariantShiftOut

	samples := Encode(frame, cfg)
	result, err := Decode(cfg.SampleRate, samples, cfg.Baud)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(result.Frames) != 1 || !bytes.Equal(result.Frames[0], frame) {
		t.Fatalf("round trip failed for variant 1: %+v", result)
	}
}
