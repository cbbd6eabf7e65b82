package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fvloads",
		Short: "Boundary force, moment and heat flux integration for vertex based finite volume meshes",
		Long: `fvloads integrates pressure, momentum flux and viscous loads over the boundary
markers of a partitioned vertex based finite volume mesh, reduces them across ranks and
reports aerodynamic coefficients per marker, per monitored surface and in total.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (yaml, toml or json)")
	root.AddCommand(newEvaluateCmd(), newColoringCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
