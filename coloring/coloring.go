package coloring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	gcoloring "gonum.org/v1/gonum/graph/coloring"
)

// ErrUnsafeColoring reports two edges of one color class writing to the same point
var ErrUnsafeColoring = errors.New("unsafe edge coloring")

// Coloring partitions the edges of a graph into classes that can run concurrently
type Coloring struct {
	// Classes[c] holds the edge indices of color c in ascending order
	Classes [][]int
}

// NumColors returns the number of color classes
func (c *Coloring) NumColors() int { return len(c.Classes) }

// NumEdges returns the number of colored edges
func (c *Coloring) NumEdges() int {
	n := 0
	for _, class := range c.Classes {
		n += len(class)
	}
	return n
}

// Validate checks that every edge appears exactly once and that no two edges of a class
// share an endpoint
func (c *Coloring) Validate(g *Graph) error {
	seen := make([]bool, len(g.Edges))
	// lastColor[p] is the last class (plus one) that touched point p
	lastColor := make([]int, g.NumPoints)
	for color, class := range c.Classes {
		for _, iEdge := range class {
			if iEdge < 0 || iEdge >= len(g.Edges) {
				return fmt.Errorf("color %d: edge index %d out of range", color, iEdge)
			}
			if seen[iEdge] {
				return fmt.Errorf("edge %d colored twice", iEdge)
			}
			seen[iEdge] = true
			e := g.Edges[iEdge]
			for _, p := range [2]int{e.I, e.J} {
				if lastColor[p] == color+1 {
					return fmt.Errorf("%w: color %d touches point %d twice", ErrUnsafeColoring, color, p)
				}
				lastColor[p] = color + 1
			}
		}
	}
	for iEdge, ok := range seen {
		if !ok {
			return fmt.Errorf("edge %d has no color", iEdge)
		}
	}
	return nil
}

// Efficiency estimates the achievable parallel efficiency when each class is split into
// groups of groupSize edges and the groups of one class are shared by nThreads workers.
// Classes run one after the other, so each class costs ceil(groups/nThreads) rounds.
func (c *Coloring) Efficiency(nThreads, groupSize int) float64 {
	if nThreads < 1 {
		nThreads = 1
	}
	if groupSize < 1 {
		groupSize = 1
	}
	var groups, rounds float64
	for _, class := range c.Classes {
		nGroups := math.Ceil(float64(len(class)) / float64(groupSize))
		if nGroups == 0 {
			continue
		}
		groups += nGroups
		rounds += math.Ceil(nGroups / float64(nThreads))
	}
	if rounds == 0 {
		return 1.0
	}
	return groups / (rounds * float64(nThreads))
}

// Chunks splits a class into contiguous ranges of at most groupSize edges
func Chunks(class []int, groupSize int) [][]int {
	if groupSize < 1 {
		groupSize = 1
	}
	chunks := make([][]int, 0, (len(class)+groupSize-1)/groupSize)
	for lo := 0; lo < len(class); lo += groupSize {
		chunks = append(chunks, class[lo:min(lo+groupSize, len(class))])
	}
	return chunks
}

// Natural returns the trivial coloring, all edges in one class. It is only race free when
// combined with the reducer strategy.
func Natural(g *Graph) *Coloring {
	class := make([]int, len(g.Edges))
	for i := range class {
		class[i] = i
	}
	return &Coloring{Classes: [][]int{class}}
}

// Greedy colors edges first-fit in index order: each edge takes the lowest color not yet
// used by an edge sharing one of its endpoints.
func Greedy(g *Graph) *Coloring {
	if len(g.Edges) == 0 {
		return &Coloring{Classes: [][]int{{}}}
	}
	pointColors := make([][]int, g.NumPoints)
	var classes [][]int
	used := make([]bool, 0, 16)
	for iEdge, e := range g.Edges {
		used = used[:0]
		for range len(classes) + 1 {
			used = append(used, false)
		}
		for _, col := range pointColors[e.I] {
			used[col] = true
		}
		for _, col := range pointColors[e.J] {
			used[col] = true
		}
		color := 0
		for used[color] {
			color++
		}
		if color == len(classes) {
			classes = append(classes, nil)
		}
		classes[color] = append(classes[color], iEdge)
		pointColors[e.I] = append(pointColors[e.I], color)
		pointColors[e.J] = append(pointColors[e.J], color)
	}
	return &Coloring{Classes: classes}
}

// WelshPowell colors the line graph of g, whose vertices are the edges of g and whose
// edges join mesh edges sharing a point, with the gonum Welsh-Powell heuristic.
func WelshPowell(g *Graph) (*Coloring, error) {
	if len(g.Edges) == 0 {
		return &Coloring{Classes: [][]int{{}}}, nil
	}
	_, colors, err := gcoloring.WelshPowell(lineGraph(g), nil)
	if err != nil {
		return nil, fmt.Errorf("welsh-powell coloring: %w", err)
	}
	return fromColorMap(len(g.Edges), colors), nil
}

func lineGraph(g *Graph) *simple.UndirectedGraph {
	lg := simple.NewUndirectedGraph()
	for iEdge := range g.Edges {
		lg.AddNode(simple.Node(iEdge))
	}
	for _, incident := range g.PointEdges() {
		for a := 0; a < len(incident); a++ {
			for b := a + 1; b < len(incident); b++ {
				lg.SetEdge(simple.Edge{F: simple.Node(incident[a]), T: simple.Node(incident[b])})
			}
		}
	}
	return lg
}

// fromColorMap compacts arbitrary color labels into consecutive classes
func fromColorMap(nEdges int, colors map[int64]int) *Coloring {
	labels := make([]int, 0)
	seen := make(map[int]bool)
	for _, col := range colors {
		if !seen[col] {
			seen[col] = true
			labels = append(labels, col)
		}
	}
	sort.Ints(labels)
	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	classes := make([][]int, len(labels))
	for iEdge := 0; iEdge < nEdges; iEdge++ {
		c := index[colors[int64(iEdge)]]
		classes[c] = append(classes[c], iEdge)
	}
	return &Coloring{Classes: classes}
}
