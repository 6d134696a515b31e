package sstv

import (
	"math"
	"testing"
)

func TestTimingsLineS(t *testing.T) {
	tm := DefaultTimings()
	got := tm.LineS()
	want := 0.1485
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("LineS() = %v, want %v", got, want)
	}
}

func TestFreqToByte(t *testing.T) {
	cases := []struct {
		freq float64
		want byte
	}{
		{1500, 0},
		{2300, 255},
		{1900, 127}, // midpoint, truncated
		{1000, 0},   // clamps below range
		{3000, 255}, // clamps above range
	}
	for _, c := range cases {
		if got := freqToByte(c.freq); got != c.want {
			t.Errorf("freqToByte(%v) = %d, want %d", c.freq, got, c.want)
		}
	}
}

func TestYCbCrToRGBGray(t *testing.T) {
	// Neutral chroma (128,128) should pass luma through unchanged.
	r, g, b := ycbcrToRGB(100, 128, 128)
	if r != 100 || g != 100 || b != 100 {
		t.Fatalf("ycbcrToRGB(100,128,128) = (%d,%d,%d), want (100,100,100)", r, g, b)
	}
}

func TestYCbCrToRGBClamps(t *testing.T) {
	r, _, _ := ycbcrToRGB(255, 128, 255)
	if r != 255 {
		t.Fatalf("expected R to clamp to 255, got %d", r)
	}
}

func TestUnwrapRemovesJumps(t *testing.T) {
	wrapped := []float64{0, math.Pi - 0.1, -math.Pi + 0.1, -math.Pi + 0.2}
	out := unwrap(wrapped)
	for i := 1; i < len(out); i++ {
		if math.Abs(out[i]-out[i-1]) > math.Pi {
			t.Fatalf("unwrap left a jump > pi at index %d: %v", i, out)
		}
	}
}

func TestMovingAverageConstant(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = 5.0
	}
	out := movingAverage(x, 5)
	for i, v := range out {
		if math.Abs(v-5.0) > 1e-9 {
			t.Fatalf("movingAverage constant input changed value at %d: %v", i, v)
		}
	}
}

func TestSyncRuns(t *testing.T) {
	mask := []bool{false, true, true, false, true, true, true, false}
	runs := syncRuns(mask)
	want := [][2]int{{1, 3}, {4, 7}}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d: %v", len(runs), len(want), runs)
	}
	for i, r := range runs {
		if r != want[i] {
			t.Errorf("run %d = %v, want %v", i, r, want[i])
		}
	}
}

func TestSyncRunsTrailingTrue(t *testing.T) {
	mask := []bool{true, true, false, true}
	runs := syncRuns(mask)
	want := [][2]int{{0, 2}, {3, 4}}
	if len(runs) != len(want) || runs[0] != want[0] || runs[1] != want[1] {
		t.Fatalf("got %v, want %v", runs, want)
	}
}

func TestPickSyncChainRegularSpacing(t *testing.T) {
	const fs = 48000
	const lineS = 0.1485
	target := int(math.Round(lineS * fs))

	var candidates []int
	for i := 0; i < 250; i++ {
		candidates = append(candidates, i*target)
	}
	chain := pickSyncChain(candidates, fs, lineS)
	if len(chain) < minChainLines {
		t.Fatalf("chain length = %d, want >= %d", len(chain), minChainLines)
	}
	for i := 1; i < len(chain); i++ {
		if chain[i] <= chain[i-1] {
			t.Fatalf("chain not strictly increasing at %d: %v", i, chain)
		}
	}
}

func TestPickSyncChainEmpty(t *testing.T) {
	if chain := pickSyncChain(nil, 48000, 0.1485); chain != nil {
		t.Fatalf("expected nil chain for no candidates, got %v", chain)
	}
}
