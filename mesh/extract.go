package mesh

import (
	"fmt"

	"github.com/notargets/FVLoads/coloring"
	"github.com/notargets/FVLoads/partitions"
)

// Decompose partitions the points of m and returns the connector shared by all partitions
func (m *Mesh) Decompose(pb *partitions.PartitionBuilder) (*partitions.HaloConnector, error) {
	pb.NumPoints = m.NumPoints()
	if pb.Strategy == partitions.StripPartition {
		pb.Coords, pb.Dim = m.Coords, m.NDim
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return nil, err
	}
	hc, err := partitions.NewHaloConnector(layout, m.Graph.Edges)
	if err != nil {
		return nil, err
	}
	if err = hc.Verify(); err != nil {
		return nil, fmt.Errorf("halo connector: %w", err)
	}
	return hc, nil
}

// Extract returns the local mesh of partition p: owned points followed by halo points.
// Every marker is kept, possibly empty, so all partitions share one marker list.
func (m *Mesh) Extract(hc *partitions.HaloConnector, p int) (*Mesh, error) {
	if p < 0 || p >= hc.NumPartitions {
		return nil, fmt.Errorf("partition %d outside [0,%d)", p, hc.NumPartitions)
	}
	if hc.NumPoints != m.NumPoints() {
		return nil, fmt.Errorf("connector built for %d points, mesh has %d", hc.NumPoints, m.NumPoints())
	}
	dim := m.NDim
	l2g, g2l := hc.LocalToGlobal[p], hc.GlobalToLocal[p]
	nLocal := len(l2g)
	local := &Mesh{
		NDim:        dim,
		Coords:      make([]float64, nLocal*dim),
		Domain:      make([]bool, nLocal),
		Volumes:     make([]float64, nLocal),
		GlobalIndex: make([]int, nLocal),
	}
	for lp, gp := range l2g {
		copy(local.Coords[lp*dim:(lp+1)*dim], m.Coord(gp))
		local.Domain[lp] = lp < hc.NumOwned[p]
		local.Volumes[lp] = m.Volumes[gp]
		local.GlobalIndex[lp] = m.globalIndex(gp)
	}
	local.EdgeNormals = make([]float64, 0, len(hc.GlobalEdgeID[p])*dim)
	for _, iEdge := range hc.GlobalEdgeID[p] {
		local.EdgeNormals = append(local.EdgeNormals, m.EdgeNormal(iEdge)...)
	}
	g, err := coloring.NewGraph(nLocal, hc.LocalEdges[p])
	if err != nil {
		return nil, err
	}
	local.Graph = g

	local.Markers = make([]Marker, len(m.Markers))
	for iMarker, mk := range m.Markers {
		lm := Marker{Tag: mk.Tag, Kind: mk.Kind}
		for _, v := range mk.Vertices {
			lp, ok := g2l[v.Point]
			if !ok {
				continue
			}
			lv := Vertex{Point: lp, Normal: v.Normal, NormalNeighbor: -1}
			if ln, ok := g2l[v.NormalNeighbor]; ok && v.NormalNeighbor >= 0 {
				lv.NormalNeighbor = ln
			}
			lm.Vertices = append(lm.Vertices, lv)
		}
		local.Markers[iMarker] = lm
	}
	if err = local.Validate(); err != nil {
		return nil, fmt.Errorf("partition %d: %w", p, err)
	}
	return local, nil
}

func (m *Mesh) globalIndex(p int) int {
	if m.GlobalIndex == nil {
		return p
	}
	return m.GlobalIndex[p]
}
