package coloring

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// FluxFunc computes the nVar flux of edge iEdge into out, which is zeroed before the call.
// It must not write shared state.
type FluxFunc func(iEdge int, e Edge, out []float64)

// Executor runs edge loops on a graph according to a scheduling decision
type Executor struct {
	graph     *Graph
	strategy  Strategy
	coloring  *Coloring
	groupSize int
	threads   int
	// Reducer only
	pointEdges [][]int
	edgeFlux   []float64
}

// NewExecutor prepares the execution structures for d on nThreads workers
func NewExecutor(g *Graph, d *Decision, nThreads int) (*Executor, error) {
	if nThreads < 1 {
		nThreads = 1
	}
	x := &Executor{
		graph:     g,
		strategy:  d.Strategy,
		coloring:  d.Coloring,
		groupSize: d.GroupSize,
		threads:   nThreads,
	}
	switch d.Strategy {
	case Colored:
		if err := d.Coloring.Validate(g); err != nil {
			return nil, err
		}
	case Reducer:
		x.pointEdges = g.PointEdges()
	default:
		return nil, fmt.Errorf("unknown strategy %v", d.Strategy)
	}
	return x, nil
}

// Strategy returns the execution strategy
func (x *Executor) Strategy() Strategy { return x.strategy }

// Accumulate adds the flux of every edge to its I point and subtracts it from its J point.
// target is point major with nVar values per point.
func (x *Executor) Accumulate(nVar int, target []float64, flux FluxFunc) error {
	if len(target) < nVar*x.graph.NumPoints {
		return fmt.Errorf("target length %d, need %d", len(target), nVar*x.graph.NumPoints)
	}
	if x.strategy == Reducer {
		x.reduce(nVar, target, flux)
		return nil
	}
	x.colored(nVar, target, flux)
	return nil
}

func (x *Executor) colored(nVar int, target []float64, flux FluxFunc) {
	for _, class := range x.coloring.Classes {
		var eg errgroup.Group
		eg.SetLimit(x.threads)
		for _, chunk := range Chunks(class, x.groupSize) {
			eg.Go(func() error {
				out := make([]float64, nVar)
				for _, iEdge := range chunk {
					e := x.graph.Edges[iEdge]
					clear(out)
					flux(iEdge, e, out)
					floats.Add(target[e.I*nVar:(e.I+1)*nVar], out)
					floats.Sub(target[e.J*nVar:(e.J+1)*nVar], out)
				}
				return nil
			})
		}
		// Barrier between classes
		_ = eg.Wait()
	}
}

// reduce stores every edge flux in an edge indexed buffer, then gathers per point in
// ascending edge order. No two workers write the same location in either phase.
func (x *Executor) reduce(nVar int, target []float64, flux FluxFunc) {
	nEdges := len(x.graph.Edges)
	if cap(x.edgeFlux) < nVar*nEdges {
		x.edgeFlux = make([]float64, nVar*nEdges)
	}
	buf := x.edgeFlux[:nVar*nEdges]
	clear(buf)

	var eg errgroup.Group
	for _, r := range staticRanges(nEdges, x.threads) {
		eg.Go(func() error {
			for iEdge := r[0]; iEdge < r[1]; iEdge++ {
				flux(iEdge, x.graph.Edges[iEdge], buf[iEdge*nVar:(iEdge+1)*nVar])
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, r := range staticRanges(x.graph.NumPoints, x.threads) {
		eg.Go(func() error {
			for p := r[0]; p < r[1]; p++ {
				dst := target[p*nVar : (p+1)*nVar]
				for _, iEdge := range x.pointEdges[p] {
					sign := 1.0
					if x.graph.Edges[iEdge].J == p {
						sign = -1.0
					}
					floats.AddScaled(dst, sign, buf[iEdge*nVar:(iEdge+1)*nVar])
				}
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// staticRanges splits [0,n) into at most parts contiguous half open ranges
func staticRanges(n, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	ranges := make([][2]int, 0, parts)
	for k := 0; k < parts; k++ {
		lo := k * n / parts
		hi := (k + 1) * n / parts
		ranges = append(ranges, [2]int{lo, hi})
	}
	return ranges
}
