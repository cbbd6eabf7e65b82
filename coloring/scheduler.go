package coloring

import (
	"fmt"
)

const (
	// DefaultGroupSize is the number of edges a worker takes from a color class at a time
	DefaultGroupSize = 512
	// DefaultEfficiencyThreshold is the coloring efficiency below which the reducer is used
	DefaultEfficiencyThreshold = 0.75
	// UnknownEfficiency is assumed for a provided coloring whose efficiency was not supplied
	UnknownEfficiency = 0.5
)

// Strategy selects how edge fluxes are scattered to points
type Strategy uint8

const (
	Colored Strategy = iota
	Reducer
)

func (s Strategy) String() string {
	switch s {
	case Colored:
		return "colored"
	case Reducer:
		return "reducer"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Algorithm names a coloring heuristic
type Algorithm string

const (
	AlgorithmGreedy      Algorithm = "greedy"
	AlgorithmWelshPowell Algorithm = "welsh-powell"
)

// Options configure the scheduling decision for one partition
type Options struct {
	Threads int
	// GroupSize of 0 forces the reducer strategy without a low efficiency warning
	GroupSize int
	Threshold float64
	Algorithm Algorithm
	// Provided, when set, is used instead of computing a coloring
	Provided *Coloring
	// ProvidedEfficiency <= 0 means unknown
	ProvidedEfficiency float64
}

// DefaultOptions returns the default scheduling options for nThreads workers
func DefaultOptions(nThreads int) Options {
	return Options{
		Threads:   nThreads,
		GroupSize: DefaultGroupSize,
		Threshold: DefaultEfficiencyThreshold,
		Algorithm: AlgorithmGreedy,
	}
}

// Decision is the outcome of Schedule
type Decision struct {
	Strategy Strategy
	// Coloring is the coloring used for execution; the natural coloring under the reducer
	Coloring *Coloring
	// Efficiency of the candidate coloring that was evaluated
	Efficiency float64
	GroupSize  int
	// Forced is true when the reducer was requested through a zero group size
	Forced bool
	// Warn is true when the reducer was chosen because of a low efficiency
	Warn bool
}

// Schedule computes or adopts a coloring for g and decides between colored execution and
// the reducer fallback.
func Schedule(g *Graph, opts Options) (*Decision, error) {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.GroupSize < 0 {
		return nil, fmt.Errorf("negative edge group size %d", opts.GroupSize)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultEfficiencyThreshold
	}
	if opts.GroupSize == 0 {
		return &Decision{
			Strategy:   Reducer,
			Coloring:   Natural(g),
			Efficiency: 0,
			GroupSize:  1,
			Forced:     true,
		}, nil
	}
	var (
		candidate  *Coloring
		efficiency float64
	)
	switch {
	case opts.Provided != nil:
		if err := opts.Provided.Validate(g); err != nil {
			return nil, fmt.Errorf("provided coloring: %w", err)
		}
		candidate = opts.Provided
		efficiency = opts.ProvidedEfficiency
		if efficiency <= 0 {
			efficiency = UnknownEfficiency
		}
	default:
		switch opts.Algorithm {
		case AlgorithmWelshPowell:
			var err error
			if candidate, err = WelshPowell(g); err != nil {
				return nil, err
			}
		case AlgorithmGreedy, "":
			candidate = Greedy(g)
		default:
			return nil, fmt.Errorf("unknown coloring algorithm %q", opts.Algorithm)
		}
		efficiency = candidate.Efficiency(opts.Threads, opts.GroupSize)
	}
	if efficiency < opts.Threshold {
		return &Decision{
			Strategy:   Reducer,
			Coloring:   Natural(g),
			Efficiency: efficiency,
			GroupSize:  1,
			Warn:       true,
		}, nil
	}
	return &Decision{
		Strategy:   Colored,
		Coloring:   candidate,
		Efficiency: efficiency,
		GroupSize:  opts.GroupSize,
	}, nil
}
