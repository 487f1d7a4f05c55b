package harness

import (
	"iter"
	"math"
	"math/rand"
	"time"
)

// Sampling ranges of the fuzzed Ratafia parameters.
const (
	MaxDist  = 2000.0
	MinMVG   = 0.5
	MVGRange = 2.0
	// ProbaExp is the exponent of the ProbaSel S-curve.
	ProbaExp = 2.0
)

// Source yields uniform draws in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a Source seeded with seed, or from the clock when seed is 0.
func NewSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Iteration is the parameter set sampled for harness iteration K.
type Iteration struct {
	K        int
	Dist     float64
	MVG      float64
	ProbaSel float64
}

// SCurve pushes v in [0,1] towards the endpoints: v² below 0.5,
// 1-(1-v)² from 0.5 on. It is monotone with 0↦0 and 1↦1, and steps from
// 0.25 to 0.75 at 0.5.
func SCurve(v float64) float64 {
	if v < 0.5 {
		return math.Pow(v, ProbaExp)
	}
	return 1 - math.Pow(1-v, ProbaExp)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Sample draws the parameters of iteration k. It consumes exactly three
// values from src, for Dist, MVG and ProbaSel in that order.
func Sample(k int, src Source) Iteration {
	u := src.Float64()
	it := Iteration{K: k, Dist: MaxDist * u * u}
	it.MVG = MinMVG + MVGRange*src.Float64()
	it.ProbaSel = SCurve(clamp01(src.Float64()))
	return it
}

// Iterations is the unbounded sequence of samples for k = 0, 1, 2, ...
func Iterations(src Source) iter.Seq[Iteration] {
	return func(yield func(Iteration) bool) {
		for k := 0; ; k++ {
			if !yield(Sample(k, src)) {
				return
			}
		}
	}
}
