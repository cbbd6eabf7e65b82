package mesh

import (
	"fmt"
	"sort"

	"github.com/notargets/gocfd/DG3D/mesh/readers"

	"github.com/notargets/FVLoads/coloring"
)

// element edge tables indexed by vertex count: triangle, tetrahedron, pyramid, prism, hexahedron
var elementEdges = map[int][][2]int{
	3: {{0, 1}, {1, 2}, {2, 0}},
	4: {{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}},
	5: {{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 4}, {1, 4}, {2, 4}, {3, 4}},
	6: {{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}, {0, 3}, {1, 4}, {2, 5}},
	8: {{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7}},
}

// ReadGraph reads a mesh file and returns the vertex connectivity graph implied by the
// element edges, with the vertex coordinates. Edges are sorted by (I,J) with I < J.
func ReadGraph(path string) (*coloring.Graph, [][3]float64, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	coords := make([][3]float64, len(msh.Vertices))
	for i, v := range msh.Vertices {
		coords[i] = [3]float64{v[0], v[1], v[2]}
	}
	type key struct{ i, j int }
	seen := make(map[key]bool)
	var edges []coloring.Edge
	for k, verts := range msh.EtoV {
		table, ok := elementEdges[len(verts)]
		if !ok {
			return nil, nil, fmt.Errorf("element %d: unsupported vertex count %d", k, len(verts))
		}
		for _, pair := range table {
			a, b := verts[pair[0]], verts[pair[1]]
			if a > b {
				a, b = b, a
			}
			if a == b || seen[key{a, b}] {
				continue
			}
			seen[key{a, b}] = true
			edges = append(edges, coloring.Edge{I: a, J: b})
		}
	}
	sort.Slice(edges, func(x, y int) bool {
		if edges[x].I != edges[y].I {
			return edges[x].I < edges[y].I
		}
		return edges[x].J < edges[y].J
	})
	g, err := coloring.NewGraph(len(coords), edges)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, coords, nil
}
