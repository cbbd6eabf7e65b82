package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/FVLoads/coloring"
	"github.com/notargets/FVLoads/comm"
	"github.com/notargets/FVLoads/config"
	"github.com/notargets/FVLoads/flow"
	"github.com/notargets/FVLoads/mesh"
	"github.com/notargets/FVLoads/metrics"
	"github.com/notargets/FVLoads/partitions"
	"github.com/notargets/FVLoads/report"
	"github.com/notargets/FVLoads/solver"
)

type evaluateOptions struct {
	dim          int
	n            []int
	length       []float64
	ranks        int
	partition    string
	pressureDrop float64
	wallTemp     float64
	viscosity    float64
	out          string
	metricsFile  string
}

func newEvaluateCmd() *cobra.Command {
	o := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the boundary coefficients of a synthetic channel flow",
		Long: `evaluate builds a structured channel with a heated no-slip wall at y = 0, an inlet
at x = 0, an outlet at x = L and far-field markers elsewhere. The points are split over
in-process ranks, the halo values are exchanged and every rank runs the pressure, momentum
and friction passes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			v, err := config.NewViper(path)
			if err != nil {
				return err
			}
			if err = bindFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return runEvaluate(cmd, cfg, o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.dim, "dim", 2, "spatial dimension, 2 or 3")
	f.IntSliceVar(&o.n, "n", []int{33, 17, 9}, "lattice points per axis")
	f.Float64SliceVar(&o.length, "length", []float64{4, 1, 1}, "channel extent per axis")
	f.IntVar(&o.ranks, "ranks", 1, "number of in-process ranks")
	f.StringVar(&o.partition, "partition", "block", "point partitioning: block, round-robin or strip")
	f.Float64Var(&o.pressureDrop, "pressure-drop", 50, "static pressure drop from inlet to outlet")
	f.Float64Var(&o.wallTemp, "wall-temperature", 320, "wall temperature")
	f.Float64Var(&o.viscosity, "viscosity", 1.8e-5, "laminar viscosity")
	f.StringVarP(&o.out, "out", "o", "", "write the YAML report to this file")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write prometheus metrics in text format to this file")
	f.Int("threads", 0, "worker threads per rank, 0 for GOMAXPROCS")
	f.Int("group-size", coloring.DefaultGroupSize, "edges per coloring group, 0 selects the reducer")
	f.String("log-level", "", "log level override")
	return cmd
}

// bindFlags lets explicitly set flags override config file and environment values
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"parallel.threads":                  "threads",
		"parallel.edge_coloring_group_size": "group-size",
		"logging.level":                     "log-level",
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func (o *evaluateOptions) boxSpec() (mesh.BoxSpec, error) {
	var n [3]int
	var length [3]float64
	if len(o.n) < o.dim || len(o.length) < o.dim {
		return mesh.BoxSpec{}, fmt.Errorf("--n and --length need %d values", o.dim)
	}
	copy(n[:], o.n[:o.dim])
	copy(length[:], o.length[:o.dim])
	bs := mesh.NewBoxSpec(o.dim, n, length)
	bs.Faces[mesh.YMin] = mesh.FaceMarker{Tag: "wall", Kind: mesh.HeatFluxWall}
	bs.Faces[mesh.XMin] = mesh.FaceMarker{Tag: "inlet", Kind: mesh.Inlet}
	bs.Faces[mesh.XMax] = mesh.FaceMarker{Tag: "outlet", Kind: mesh.Outlet}
	return bs, nil
}

// channelFlow is a laminar profile over the wall with a linear pressure drop
func (o *evaluateOptions) channelFlow(cfg *config.Config, bs mesh.BoxSpec) func(x []float64) flow.PointState {
	vinf := cfg.FreestreamVelocity()
	h := bs.Length[1]
	return func(x []float64) flow.PointState {
		eta := x[1] / h
		profile := eta * (2 - eta)
		s := flow.PointState{
			Temperature:  o.wallTemp + (cfg.Freestream.Temperature-o.wallTemp)*profile,
			Pressure:     cfg.Freestream.Pressure + o.pressureDrop*(1-x[0]/bs.Length[0]),
			Density:      cfg.Freestream.Density,
			Viscosity:    o.viscosity,
			Conductivity: 0.0257,
		}
		for d := range s.Velocity {
			s.Velocity[d] = vinf[d] * profile
		}
		return s
	}
}

func runEvaluate(cmd *cobra.Command, cfg *config.Config, o *evaluateOptions) error {
	log := cfg.Logging.NewLogger(cmd.ErrOrStderr())
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	strategy, err := partitions.ParseStrategy(o.partition)
	if err != nil {
		return err
	}
	bs, err := o.boxSpec()
	if err != nil {
		return err
	}
	global, err := mesh.NewBox(bs)
	if err != nil {
		return err
	}
	hc, err := global.Decompose(&partitions.PartitionBuilder{
		NumPartitions: o.ranks,
		Strategy:      strategy,
		Axis:          0,
	})
	if err != nil {
		return err
	}
	log.Info("channel case",
		"dim", o.dim,
		"points", global.NumPoints(),
		"edges", global.Graph.NumEdges(),
		"boundary_vertices", global.NumBoundaryVertices(),
		"ranks", o.ranks,
		"partition", strategy.String(),
		"imbalance", hc.Balance.Imbalance)

	// Owned values are set by each rank, halo values arrive through the exchange
	state := o.channelFlow(cfg, bs)
	locals := make([]*mesh.Mesh, o.ranks)
	fields := make([]*flow.Field, o.ranks)
	packed := make([][]float64, o.ranks)
	for r := range locals {
		if locals[r], err = global.Extract(hc, r); err != nil {
			return err
		}
		if fields[r], err = flow.NewField(o.dim, locals[r].NumPoints()); err != nil {
			return err
		}
		for p := 0; p < locals[r].NumOwned(); p++ {
			fields[r].Set(p, state(locals[r].Coord(p)))
		}
		packed[r] = fields[r].Pack(nil)
	}
	if err = hc.Exchange(packed, fields[0].Stride()); err != nil {
		return fmt.Errorf("halo exchange: %w", err)
	}
	for r := range fields {
		if err = fields[r].Unpack(packed[r]); err != nil {
			return err
		}
	}

	world, err := comm.NewWorld(o.ranks)
	if err != nil {
		return err
	}
	solvers := make([]*solver.Solver, o.ranks)
	var eg errgroup.Group
	for r := range solvers {
		eg.Go(func() error {
			s, err := evaluateRank(locals[r], fields[r], cfg, world.Comm(r),
				solver.Options{Logger: log, Metrics: met})
			if err != nil {
				err = fmt.Errorf("rank %d: %w", r, err)
				world.Abort(err)
				return err
			}
			solvers[r] = s
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return err
	}

	rep := report.New(solvers[0], "channel")
	fmt.Fprint(cmd.OutOrStdout(), rep.Render())
	if o.out != "" {
		if err = writeReport(o.out, rep); err != nil {
			return err
		}
		log.Info("report written", "path", o.out, "run_id", rep.RunID)
	}
	if o.metricsFile != "" {
		if err = prometheus.WriteToTextfile(o.metricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// evaluateRank runs one iteration on a rank: the edge schedule, the gradients of the
// exchanged field and the three force passes
func evaluateRank(m *mesh.Mesh, f *flow.Field, cfg *config.Config, c comm.Communicator,
	opts solver.Options) (*solver.Solver, error) {
	s, err := solver.New(m, cfg, c, opts)
	if err != nil {
		return nil, err
	}
	if err = s.Setup(); err != nil {
		return nil, err
	}
	if err = flow.GreenGauss(m, s.Executor(), f); err != nil {
		return nil, err
	}
	if err = s.EvaluateForces(f); err != nil {
		return nil, err
	}
	opts.Logger.Debug("rank finished", slog.Int("rank", c.Rank()), slog.Bool("reducer", s.UsingReducer()))
	return s, nil
}

func writeReport(path string, rep *report.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return rep.WriteYAML(f)
}
