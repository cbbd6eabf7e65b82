package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/notargets/FVLoads/coloring"
	"github.com/notargets/FVLoads/mesh"
)

func newColoringCmd() *cobra.Command {
	var (
		threads   int
		groupSize int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "coloring MESHFILE",
		Short: "Report edge coloring statistics for the point graph of a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := mesh.ReadGraph(args[0])
			if err != nil {
				return err
			}
			opts := coloring.DefaultOptions(threads)
			opts.GroupSize = groupSize
			opts.Threshold = threshold
			return writeColoringStats(cmd.OutOrStdout(), g, opts)
		},
	}
	f := cmd.Flags()
	f.IntVar(&threads, "threads", 8, "worker threads used for the efficiency estimate")
	f.IntVar(&groupSize, "group-size", coloring.DefaultGroupSize, "edges per coloring group")
	f.Float64Var(&threshold, "threshold", coloring.DefaultEfficiencyThreshold, "efficiency below which the reducer is used")
	return cmd
}

// writeColoringStats schedules g with every coloring algorithm and writes one line each
func writeColoringStats(w io.Writer, g *coloring.Graph, opts coloring.Options) error {
	bold := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(w, bold.Render(fmt.Sprintf("%d points, %d edges, max degree %d",
		g.NumPoints, g.NumEdges(), g.MaxDegree())))
	fmt.Fprintf(w, "%-14s %8s %11s %10s %10s\n", "algorithm", "colors", "efficiency", "strategy", "time")
	for _, alg := range []coloring.Algorithm{coloring.AlgorithmGreedy, coloring.AlgorithmWelshPowell} {
		start := time.Now()
		var (
			c   *coloring.Coloring
			err error
		)
		switch alg {
		case coloring.AlgorithmWelshPowell:
			c, err = coloring.WelshPowell(g)
		default:
			c = coloring.Greedy(g)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", alg, err)
		}
		elapsed := time.Since(start)

		opts.Provided = c
		opts.ProvidedEfficiency = c.Efficiency(opts.Threads, opts.GroupSize)
		d, err := coloring.Schedule(g, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", alg, err)
		}
		fmt.Fprintf(w, "%-14s %8d %11.3f %10s %10s\n", alg, c.NumColors(), opts.ProvidedEfficiency,
			d.Strategy, elapsed.Round(time.Microsecond))
	}
	return nil
}
