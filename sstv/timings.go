package sstv

// Timings holds the Robot36 per-line timing constants, in seconds.
type Timings struct {
	SyncS  float64
	PorchS float64
	YS     float64
	SepS   float64
	CS     float64
}

// DefaultTimings returns the documented Robot36 timings: 9ms sync,
// 3ms porch, 88ms luma, 4.5ms separator, 44ms chroma.
func DefaultTimings() Timings {
	return Timings{
		SyncS:  0.009,
		PorchS: 0.003,
		YS:     0.088,
		SepS:   0.0045,
		CS:     0.044,
	}
}

// LineS is the total per-line duration (148.5ms for Robot36).
func (t Timings) LineS() float64 {
	return t.SyncS + t.PorchS + t.YS + t.SepS + t.CS
}
