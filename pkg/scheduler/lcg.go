package scheduler

// LCG is the 32-bit linear congruential generator used for tie-breaking.
// The constants are fixed so that a seed reproduces the same stream on
// every platform.
type LCG struct {
	state uint32
}

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// NewLCG seeds a generator with the low 32 bits of seed
func NewLCG(seed int64) *LCG {
	return &LCG{state: uint32(seed)}
}

// Next advances the generator
func (r *LCG) Next() uint32 {
	r.state = r.state*lcgMultiplier + lcgIncrement
	return r.state
}

// Float64 returns a value in [0,1)
func (r *LCG) Float64() float64 {
	return float64(r.Next()) / lcgModulus
}

// Intn returns a value in [0,n). It does not advance the generator when
// there is nothing to choose between.
func (r *LCG) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return int(r.Float64() * float64(n))
}
