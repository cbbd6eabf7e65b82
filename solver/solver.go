package solver

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/notargets/FVLoads/aggregate"
	"github.com/notargets/FVLoads/coefficients"
	"github.com/notargets/FVLoads/coloring"
	"github.com/notargets/FVLoads/comm"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/forces"
	"github.com/notargets/FVLoads/mesh"
	"github.com/notargets/FVLoads/metrics"
)

// ErrPassOrder is returned by the momentum and friction passes when the pressure pass of
// the iteration has not run
var ErrPassOrder = aggregate.ErrPassOrder

// Options carries the optional collaborators of a Solver
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Coloring, when set, replaces the computed edge coloring
	Coloring *coloring.Coloring
	// ColoringEfficiency of the provided coloring, <= 0 when unknown
	ColoringEfficiency float64
}

// Solver evaluates the boundary coefficients of one partition. Every rank of a run owns one
// Solver and calls Setup and the force passes in the same order, since they contain
// collective reductions.
type Solver struct {
	cfg     *config.Config
	mesh    *mesh.Mesh
	comm    comm.Communicator
	reducer *comm.Reducer
	log     *slog.Logger
	metrics *metrics.Metrics
	opts    Options
	rank    string

	decision      *coloring.Decision
	executor      *coloring.Executor
	minEfficiency float64
	reducerRanks  int
	warned        bool

	integrator *forces.Integrator
	hierarchy  [forces.NumPasses]*aggregate.Hierarchy
	totals     *aggregate.Totals
}

// New allocates the coefficient storage of partition m. The coloring is decided by Setup.
func New(m *mesh.Mesh, cfg *config.Config, c comm.Communicator, opts Options) (*Solver, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("partition mesh: %w", err)
	}
	if c == nil {
		c = comm.Single{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Solver{
		cfg:     cfg,
		mesh:    m,
		comm:    c,
		reducer: comm.NewReducer(c),
		log:     log.With("rank", c.Rank()),
		metrics: opts.Metrics,
		opts:    opts,
		rank:    strconv.Itoa(c.Rank()),
	}

	var err error
	if s.integrator, err = forces.NewIntegrator(m, cfg); err != nil {
		return nil, err
	}
	tags := cfg.MonitoringTags()
	for p := range s.hierarchy {
		if s.hierarchy[p], err = aggregate.New(m.Markers, tags); err != nil {
			return nil, err
		}
	}
	if s.totals, err = aggregate.NewTotals(len(tags)); err != nil {
		return nil, err
	}
	return s, nil
}

// Setup colors the edge graph of the partition and chooses between colored execution and
// the reducer. The choice is local; the lowest efficiency over all ranks is reported once,
// from rank 0, unless the reducer was requested with a zero group size.
func (s *Solver) Setup() error {
	threads := s.cfg.Threads()
	opts := coloring.DefaultOptions(threads)
	opts.GroupSize = s.cfg.Parallel.EdgeColoringGroupSize
	opts.Threshold = s.cfg.Parallel.ColoringEfficiencyThreshold
	opts.Algorithm = coloring.Algorithm(s.cfg.Parallel.ColoringAlgorithm)
	opts.Provided = s.opts.Coloring
	opts.ProvidedEfficiency = s.opts.ColoringEfficiency

	d, err := coloring.Schedule(s.mesh.Graph, opts)
	if err != nil {
		return err
	}
	x, err := coloring.NewExecutor(s.mesh.Graph, d, threads)
	if err != nil {
		return err
	}
	s.decision, s.executor = d, x
	s.log.Debug("edge coloring",
		"strategy", d.Strategy.String(),
		"colors", d.Coloring.NumColors(),
		"edges", s.mesh.Graph.NumEdges(),
		"efficiency", d.Efficiency,
		"group_size", d.GroupSize)
	s.metrics.SetColoring(s.rank, d.Strategy.String(), d.Efficiency, d.Coloring.NumColors())

	s.minEfficiency, s.reducerRanks = d.Efficiency, 0
	if d.Strategy == coloring.Reducer {
		s.reducerRanks = 1
	}
	if d.Forced {
		return nil
	}

	// Every rank takes part, whatever its own decision
	if s.minEfficiency, err = s.reducer.Scalar(comm.Min, d.Efficiency); err != nil {
		return err
	}
	n, err := s.reducer.Scalar(comm.Sum, float64(s.reducerRanks))
	if err != nil {
		return err
	}
	s.reducerRanks = int(n)
	s.metrics.AddReductions(s.rank, "scalar", 2)

	if s.reducerRanks > 0 && s.comm.Rank() == 0 && !s.warned {
		s.warned = true
		s.metrics.LowEfficiency()
		s.log.Warn("edge coloring efficiency below threshold, using the reducer strategy",
			"min_efficiency", s.minEfficiency,
			"threshold", opts.Threshold,
			"reducer_ranks", s.reducerRanks,
			"hint", "set parallel.edge_coloring_group_size to 0 to select the reducer without this warning")
	}
	return nil
}

// EvaluateForces runs the pressure, momentum and friction passes of one iteration
func (s *Solver) EvaluateForces(st flow.State) error {
	if err := s.PressureForces(st); err != nil {
		return err
	}
	if err := s.MomentumForces(st); err != nil {
		return err
	}
	return s.FrictionForces(st)
}

// PressureForces integrates the pressure pass and resets the iteration totals before
// adding its own contribution
func (s *Solver) PressureForces(st flow.State) error {
	start := time.Now()
	s.integrator.PressurePass(st)
	s.totals.Reset()
	return s.finishPass(forces.Pressure, start)
}

// MomentumForces integrates the momentum flux pass and adds it to the totals
func (s *Solver) MomentumForces(st flow.State) error {
	if !s.totals.Open() {
		return ErrPassOrder
	}
	start := time.Now()
	s.integrator.MomentumPass(st)
	return s.finishPass(forces.Momentum, start)
}

// FrictionForces integrates the viscous pass, adds it to the totals and closes the
// iteration
func (s *Solver) FrictionForces(st flow.State) error {
	if !s.totals.Open() {
		return ErrPassOrder
	}
	start := time.Now()
	s.integrator.ViscousPass(st)
	if err := s.finishPass(forces.Viscous, start); err != nil {
		return err
	}
	s.totals.Close()
	return nil
}

// finishPass rolls the marker bundles of p up locally, reduces the surface and all-bound
// bundles over all ranks and adds them to the totals. Ratios are derived by the reducer
// only after their operands are summed.
func (s *Solver) finishPass(p forces.Pass, start time.Time) error {
	h := s.hierarchy[p]
	var nf []float64
	if p == forces.Pressure {
		nf = s.integrator.NearField()
	}
	if err := h.RollUp(s.integrator.Markers(p), nf); err != nil {
		return err
	}
	if err := s.reducer.Array(h.Surfaces()); err != nil {
		return fmt.Errorf("%s surfaces: %w", p, err)
	}
	if err := s.reducer.Bundle(h.AllBound()); err != nil {
		return fmt.Errorf("%s all-bound: %w", p, err)
	}
	reductions := 2
	if p == forces.Pressure {
		v, err := s.reducer.Scalar(comm.Sum, h.NearField())
		if err != nil {
			return fmt.Errorf("near-field objective: %w", err)
		}
		h.SetNearField(v)
		reductions++
	}
	if err := s.totals.Add(h); err != nil {
		return err
	}

	vertices := 0
	for _, mk := range s.mesh.Markers {
		if p.Selects(mk.Kind) {
			vertices += len(mk.Vertices)
		}
	}
	elapsed := time.Since(start)
	s.metrics.AddReductions(s.rank, "pass", reductions)
	s.metrics.ObservePass(s.rank, p.String(), elapsed, vertices)
	s.log.Debug("force pass",
		"pass", p.String(),
		"vertices", vertices,
		"CD", h.AllBound().Get(coefficients.CD),
		"CL", h.AllBound().Get(coefficients.CL),
		"elapsed", elapsed)
	return nil
}

// Marker returns the local bundle of marker iMarker for pass p
func (s *Solver) Marker(p forces.Pass, iMarker int) *coefficients.Bundle {
	return s.integrator.Markers(p).At(iMarker)
}

// Surface returns the reduced bundle of monitored surface iSurface for pass p
func (s *Solver) Surface(p forces.Pass, iSurface int) *coefficients.Bundle {
	return s.hierarchy[p].Surfaces().At(iSurface)
}

// AllBound returns the reduced all-bound bundle of pass p
func (s *Solver) AllBound(p forces.Pass) *coefficients.Bundle {
	return s.hierarchy[p].AllBound()
}

// Total returns the sum of the all-bound bundles of the passes run this iteration
func (s *Solver) Total() *coefficients.Bundle { return s.totals.Total() }

// SurfaceTotal returns the sum over passes of monitored surface iSurface
func (s *Solver) SurfaceTotal(iSurface int) *coefficients.Bundle {
	return s.totals.Surfaces().At(iSurface)
}

// NearFieldObjective returns the reduced near-field objective
func (s *Solver) NearFieldObjective() float64 { return s.totals.NearField() }

// SurfaceTags returns the monitored surface tags in surface order
func (s *Solver) SurfaceTags() []string { return s.hierarchy[forces.Pressure].SurfaceTags() }

// Integrator exposes the per marker and visualization arrays
func (s *Solver) Integrator() *forces.Integrator { return s.integrator }

// Executor returns the edge loop executor chosen by Setup
func (s *Solver) Executor() *coloring.Executor { return s.executor }

// Decision returns the scheduling decision of Setup
func (s *Solver) Decision() *coloring.Decision { return s.decision }

// UsingReducer reports whether this partition runs edge loops with the reducer strategy
func (s *Solver) UsingReducer() bool {
	return s.decision != nil && s.decision.Strategy == coloring.Reducer
}

// MinEfficiency returns the lowest coloring efficiency over all ranks
func (s *Solver) MinEfficiency() float64 { return s.minEfficiency }

// ReducerRanks returns how many ranks use the reducer strategy
func (s *Solver) ReducerRanks() int { return s.reducerRanks }

// Mesh returns the partition geometry
func (s *Solver) Mesh() *mesh.Mesh { return s.mesh }

// Communicator returns the communicator used for reductions
func (s *Solver) Communicator() comm.Communicator { return s.comm }
