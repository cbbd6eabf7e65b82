package coloring

import (
	"fmt"
)

// Edge connects two mesh points. Flux computed on the edge is added to I and subtracted from J.
type Edge struct {
	I, J int
}

// Graph is the point-to-point connectivity shared by all edge loops of a partition
type Graph struct {
	NumPoints int
	Edges     []Edge
}

// NewGraph builds a graph and checks that every edge references two distinct, valid points
func NewGraph(numPoints int, edges []Edge) (*Graph, error) {
	g := &Graph{NumPoints: numPoints, Edges: edges}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks edge endpoint consistency
func (g *Graph) Validate() error {
	if g.NumPoints < 0 {
		return fmt.Errorf("invalid point count %d", g.NumPoints)
	}
	for iEdge, e := range g.Edges {
		if e.I < 0 || e.I >= g.NumPoints || e.J < 0 || e.J >= g.NumPoints {
			return fmt.Errorf("edge %d: endpoints (%d,%d) outside [0,%d)", iEdge, e.I, e.J, g.NumPoints)
		}
		if e.I == e.J {
			return fmt.Errorf("edge %d: self loop on point %d", iEdge, e.I)
		}
	}
	return nil
}

// NumEdges returns the edge count
func (g *Graph) NumEdges() int { return len(g.Edges) }

// PointEdges returns, for every point, the indices of its incident edges in ascending order
func (g *Graph) PointEdges() [][]int {
	counts := make([]int, g.NumPoints)
	for _, e := range g.Edges {
		counts[e.I]++
		counts[e.J]++
	}
	// One backing slice, sliced per point
	offsets := make([]int, g.NumPoints+1)
	for p := 0; p < g.NumPoints; p++ {
		offsets[p+1] = offsets[p] + counts[p]
	}
	backing := make([]int, offsets[g.NumPoints])
	pe := make([][]int, g.NumPoints)
	for p := 0; p < g.NumPoints; p++ {
		pe[p] = backing[offsets[p]:offsets[p]:offsets[p+1]]
	}
	for iEdge, e := range g.Edges {
		pe[e.I] = append(pe[e.I], iEdge)
		pe[e.J] = append(pe[e.J], iEdge)
	}
	return pe
}

// MaxDegree returns the largest number of edges incident to one point
func (g *Graph) MaxDegree() int {
	deg := make([]int, g.NumPoints)
	maxDeg := 0
	for _, e := range g.Edges {
		deg[e.I]++
		deg[e.J]++
		if deg[e.I] > maxDeg {
			maxDeg = deg[e.I]
		}
		if deg[e.J] > maxDeg {
			maxDeg = deg[e.J]
		}
	}
	return maxDeg
}
