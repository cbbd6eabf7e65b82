package partitions

import (
	"fmt"
	"sort"

	"github.com/notargets/FVLoads/coloring"
)

// HaloConnector manages pick and place indices for the halo points of a partitioned
// point graph. A partition sees every edge with at least one owned endpoint; the
// non-owned endpoints of those edges are its halo points.
type HaloConnector struct {
	NumPartitions int
	NumPoints     int
	PToP          []int
	Balance       PartitionStats // Owned point balance of the layout

	// Local numbering per partition: owned points ascending, then halo points ascending
	NumOwned      []int
	LocalToGlobal [][]int           // [partition][local] → global
	GlobalToLocal []map[int]int     // [partition][global] → local
	LocalEdges    [][]coloring.Edge // [partition] edges in local numbering, global edge order
	GlobalEdgeID  [][]int           // [partition][localEdge] → global edge index

	// Pick/Place indices per partition
	PickIndices  [][]PickBuffer  // [sourcePartition][targetPartition]
	PlaceIndices [][]PlaceBuffer // [targetPartition][sourcePartition]
}

// PickBuffer contains owned local point indices gathered for a target partition
type PickBuffer struct {
	Indices         []int
	TargetPartition int
}

// PlaceBuffer contains halo local point indices filled from a source partition
type PlaceBuffer struct {
	Indices         []int
	SourcePartition int
}

// NewHaloConnector builds the local numbering and halo exchange indices for layout
func NewHaloConnector(layout *PartitionLayout, edges []coloring.Edge) (*HaloConnector, error) {
	if err := layout.ValidateLayout(); err != nil {
		return nil, err
	}
	hc := &HaloConnector{
		NumPartitions: layout.NumPartitions,
		NumPoints:     layout.TotalPoints,
		PToP:          layout.PToP,
		Balance:       layout.PartitionStatistics(),
	}
	for iEdge, e := range edges {
		if e.I < 0 || e.I >= hc.NumPoints || e.J < 0 || e.J >= hc.NumPoints {
			return nil, fmt.Errorf("edge %d: endpoints (%d,%d) outside [0,%d)", iEdge, e.I, e.J, hc.NumPoints)
		}
	}
	hc.buildLocalNumbering(layout, edges)
	hc.initializeBuffers()
	hc.BuildIndices()
	return hc, nil
}

func (hc *HaloConnector) buildLocalNumbering(layout *PartitionLayout, edges []coloring.Edge) {
	np := hc.NumPartitions
	hc.NumOwned = make([]int, np)
	hc.LocalToGlobal = make([][]int, np)
	hc.GlobalToLocal = make([]map[int]int, np)
	hc.LocalEdges = make([][]coloring.Edge, np)
	hc.GlobalEdgeID = make([][]int, np)

	halo := make([]map[int]bool, np)
	for p, part := range layout.Partitions {
		hc.NumOwned[p] = part.NumPoints
		hc.LocalToGlobal[p] = append(make([]int, 0, part.NumPoints), part.Points...)
		halo[p] = make(map[int]bool)
	}
	for _, e := range edges {
		pi, pj := hc.PToP[e.I], hc.PToP[e.J]
		if pi != pj {
			halo[pi][e.J] = true
			halo[pj][e.I] = true
		}
	}
	for p := 0; p < np; p++ {
		ghosts := make([]int, 0, len(halo[p]))
		for g := range halo[p] {
			ghosts = append(ghosts, g)
		}
		sort.Ints(ghosts)
		hc.LocalToGlobal[p] = append(hc.LocalToGlobal[p], ghosts...)
		hc.GlobalToLocal[p] = make(map[int]int, len(hc.LocalToGlobal[p]))
		for local, global := range hc.LocalToGlobal[p] {
			hc.GlobalToLocal[p][global] = local
		}
	}
	for iEdge, e := range edges {
		pi, pj := hc.PToP[e.I], hc.PToP[e.J]
		for _, p := range [2]int{pi, pj} {
			hc.LocalEdges[p] = append(hc.LocalEdges[p], coloring.Edge{
				I: hc.GlobalToLocal[p][e.I],
				J: hc.GlobalToLocal[p][e.J],
			})
			hc.GlobalEdgeID[p] = append(hc.GlobalEdgeID[p], iEdge)
			if pi == pj {
				break
			}
		}
	}
}

// initializeBuffers creates empty pick and place buffer structures
func (hc *HaloConnector) initializeBuffers() {
	hc.PickIndices = make([][]PickBuffer, hc.NumPartitions)
	hc.PlaceIndices = make([][]PlaceBuffer, hc.NumPartitions)
	for p := 0; p < hc.NumPartitions; p++ {
		hc.PickIndices[p] = make([]PickBuffer, hc.NumPartitions)
		hc.PlaceIndices[p] = make([]PlaceBuffer, hc.NumPartitions)
		for q := 0; q < hc.NumPartitions; q++ {
			hc.PickIndices[p][q] = PickBuffer{TargetPartition: q}
			hc.PlaceIndices[p][q] = PlaceBuffer{SourcePartition: q}
		}
	}
}

// BuildIndices constructs pick and place indices for all partitions
func (hc *HaloConnector) BuildIndices() {
	for p := 0; p < hc.NumPartitions; p++ {
		for local := hc.NumOwned[p]; local < len(hc.LocalToGlobal[p]); local++ {
			global := hc.LocalToGlobal[p][local]
			source := hc.PToP[global]
			hc.PickIndices[source][p].Indices = append(hc.PickIndices[source][p].Indices,
				hc.GlobalToLocal[source][global])
			hc.PlaceIndices[p][source].Indices = append(hc.PlaceIndices[p][source].Indices, local)
		}
	}
}

// NumLocal returns owned plus halo points of partition p
func (hc *HaloConnector) NumLocal(p int) int { return len(hc.LocalToGlobal[p]) }

// GetPickIndices returns pick indices for sending from source to target partition
func (hc *HaloConnector) GetPickIndices(sourcePartition, targetPartition int) []int {
	if sourcePartition < 0 || sourcePartition >= hc.NumPartitions ||
		targetPartition < 0 || targetPartition >= hc.NumPartitions {
		return nil
	}
	return hc.PickIndices[sourcePartition][targetPartition].Indices
}

// GetPlaceIndices returns place indices for target partition receiving from source
func (hc *HaloConnector) GetPlaceIndices(targetPartition, sourcePartition int) []int {
	if targetPartition < 0 || targetPartition >= hc.NumPartitions ||
		sourcePartition < 0 || sourcePartition >= hc.NumPartitions {
		return nil
	}
	return hc.PlaceIndices[targetPartition][sourcePartition].Indices
}

// Exchange copies owned values into the halo slots of every other partition. fields[p]
// holds stride values per local point of partition p.
func (hc *HaloConnector) Exchange(fields [][]float64, stride int) error {
	if len(fields) != hc.NumPartitions {
		return fmt.Errorf("have %d fields for %d partitions", len(fields), hc.NumPartitions)
	}
	for p := 0; p < hc.NumPartitions; p++ {
		if len(fields[p]) != stride*hc.NumLocal(p) {
			return fmt.Errorf("partition %d: field length %d, need %d", p, len(fields[p]), stride*hc.NumLocal(p))
		}
	}
	for target := 0; target < hc.NumPartitions; target++ {
		for source := 0; source < hc.NumPartitions; source++ {
			pick := hc.PickIndices[source][target].Indices
			place := hc.PlaceIndices[target][source].Indices
			for k := range pick {
				copy(fields[target][place[k]*stride:(place[k]+1)*stride],
					fields[source][pick[k]*stride:(pick[k]+1)*stride])
			}
		}
	}
	return nil
}

// Verify checks index validity and conservation properties
func (hc *HaloConnector) Verify() error {
	// Picks read owned points only
	for p := 0; p < hc.NumPartitions; p++ {
		for q := 0; q < hc.NumPartitions; q++ {
			for _, idx := range hc.PickIndices[p][q].Indices {
				if idx < 0 || idx >= hc.NumOwned[p] {
					return fmt.Errorf("invalid pick index %d for partition %d (owned %d)", idx, p, hc.NumOwned[p])
				}
			}
		}
	}
	// Pick and place arrays correspond
	for p := 0; p < hc.NumPartitions; p++ {
		for q := 0; q < hc.NumPartitions; q++ {
			pickLen := len(hc.PickIndices[p][q].Indices)
			placeLen := len(hc.PlaceIndices[q][p].Indices)
			if pickLen != placeLen {
				return fmt.Errorf("length mismatch: pick[%d][%d]=%d, place[%d][%d]=%d",
					p, q, pickLen, q, p, placeLen)
			}
		}
	}
	// Every halo point is placed exactly once
	totalPlaces, totalHalo := 0, 0
	for p := 0; p < hc.NumPartitions; p++ {
		for q := 0; q < hc.NumPartitions; q++ {
			totalPlaces += len(hc.PlaceIndices[p][q].Indices)
		}
		totalHalo += hc.NumLocal(p) - hc.NumOwned[p]
	}
	if totalPlaces != totalHalo {
		return fmt.Errorf("conservation error: total places %d != total halo points %d", totalPlaces, totalHalo)
	}
	return nil
}
