package sstv

import (
	"math"
	"sort"
)

// STFT framing parameters shared by sync detection.
const (
	stftNperseg = 1024
	stftHop     = 256
)

// stftPeakFreqs slides an stftNperseg-sample, Hann-windowed DFT across
// x in stftHop-sample steps and returns, per time slice, the frequency
// (Hz) of the strongest bin restricted to [bandLowHz, bandHighHz], and
// the sample index each slice starts at.
func stftPeakFreqs(x []float64, fs, bandLowHz, bandHighHz float64) (peakFreq []float64, sliceStart []int) {
	window := hannWindow(stftNperseg)
	binHz := fs / float64(stftNperseg)
	loBin := int(bandLowHz / binHz)
	hiBin := int(bandHighHz/binHz) + 1
	if loBin < 0 {
		loBin = 0
	}
	maxBin := stftNperseg/2 + 1
	if hiBin > maxBin {
		hiBin = maxBin
	}

	seg := make([]float64, stftNperseg)
	for start := 0; start+stftNperseg <= len(x); start += stftHop {
		for i := 0; i < stftNperseg; i++ {
			seg[i] = x[start+i] * window[i]
		}
		coeffs := fft(seg)

		bestBin := loBin
		bestMag := -1.0
		for b := loBin; b < hiBin && b < len(coeffs); b++ {
			mag := cmplxAbs(coeffs[b])
			if mag > bestMag {
				bestMag = mag
				bestBin = b
			}
		}
		peakFreq = append(peakFreq, float64(bestBin)*binHz)
		sliceStart = append(sliceStart, start)
	}
	return peakFreq, sliceStart
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// syncRuns run-length-encodes mask into [start,end) index pairs of
// consecutive true runs.
func syncRuns(mask []bool) [][2]int {
	var runs [][2]int
	inRun := false
	start := 0
	for i, v := range mask {
		switch {
		case v && !inRun:
			inRun = true
			start = i
		case !v && inRun:
			inRun = false
			runs = append(runs, [2]int{start, i})
		}
	}
	if inRun {
		runs = append(runs, [2]int{start, len(mask)})
	}
	return runs
}

// pickSyncChain finds the longest chain of candidate sample indices
// spaced roughly one line (lineS seconds at fs Hz) apart: a phase
// histogram filters out candidates that don't share the dominant
// line-sync phase, then each remaining candidate seeds a greedy
// forward walk that accepts the nearest next candidate within 25% of a
// line period.
func pickSyncChain(candidates []int, fs int, lineS float64) []int {
	if len(candidates) == 0 {
		return nil
	}
	target := int(math.Round(lineS * float64(fs)))
	if target <= 0 {
		return nil
	}

	seen := make(map[int]bool, len(candidates))
	for _, c := range candidates {
		seen[c] = true
	}
	cand := make([]int, 0, len(seen))
	for c := range seen {
		cand = append(cand, c)
	}
	sort.Ints(cand)

	binW := int(math.Round(float64(fs) * 0.002))
	if binW < 50 {
		binW = 50
	}
	nb := target / binW
	if nb < 1 {
		nb = 1
	}
	counts := make([]int, nb)
	for _, c := range cand {
		rem := c % target
		bin := rem / binW
		if bin >= nb {
			bin = nb - 1
		}
		counts[bin]++
	}
	bestBin := 0
	for i, n := range counts {
		if n > counts[bestBin] {
			bestBin = i
		}
	}
	center := bestBin*binW + binW/2
	tol := int(math.Round(float64(fs) * 0.004))
	if tol < 200 {
		tol = 200
	}

	cand2 := make([]int, 0, len(cand))
	for _, c := range cand {
		rem := c % target
		d := ((rem-center+target/2)%target+target)%target - target/2
		if absInt(d) <= tol {
			cand2 = append(cand2, c)
		}
	}
	if len(cand2) < 10 {
		cand2 = cand
	}

	stepTol := int(math.Round(float64(target) * 0.25))
	limit := len(cand2)
	if limit > 50 {
		limit = 50
	}

	var best []int
	for s := 0; s < limit; s++ {
		chain := []int{cand2[s]}
		last := cand2[s]
		for {
			want := last + target
			j := sort.SearchInts(cand2, want)

			nearest := -1
			bestErr := -1
			for k := j - 2; k <= j+2; k++ {
				if k < 0 || k >= len(cand2) {
					continue
				}
				v := cand2[k]
				err := absInt(v - want)
				if bestErr == -1 || err < bestErr {
					bestErr = err
					nearest = v
				}
			}
			if nearest == -1 || bestErr > stepTol || nearest <= last {
				break
			}
			chain = append(chain, nearest)
			last = nearest
			if len(chain) >= 240 {
				break
			}
		}
		if len(chain) > len(best) {
			best = chain
		}
		if len(best) >= 240 {
			break
		}
	}
	return best
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
