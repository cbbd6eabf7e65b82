package partitions

import (
	"fmt"
	"math"
	"sort"
)

// PartitionBuilder assigns mesh points to a fixed number of partitions
type PartitionBuilder struct {
	NumPoints     int
	NumPartitions int
	Strategy      PartitionStrategy

	// Coords are point major, Dim values per point. Only needed by StripPartition.
	Coords []float64
	Dim    int
	Axis   int // Coordinate axis used by StripPartition
}

// PartitionStrategy defines how points are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive points
	RoundRobin                              // Distribute cyclically
	StripPartition                          // Equal count slabs ordered along one coordinate axis
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	case StripPartition:
		return "strip"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(s))
	}
}

// ParseStrategy maps a strategy name to its value
func ParseStrategy(name string) (PartitionStrategy, error) {
	for _, s := range []PartitionStrategy{BlockPartition, RoundRobin, StripPartition} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown partition strategy %q", name)
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumPartitions < 1 {
		return nil, fmt.Errorf("number of partitions must be positive, have %d", pb.NumPartitions)
	}
	if pb.NumPoints < pb.NumPartitions {
		return nil, fmt.Errorf("%d points cannot fill %d partitions", pb.NumPoints, pb.NumPartitions)
	}

	pToP, err := pb.partitionPoints()
	if err != nil {
		return nil, err
	}

	partitions := make([]Partition, pb.NumPartitions)
	for i := range partitions {
		partitions[i].ID = i
	}
	for pt, part := range pToP {
		partitions[part].Points = append(partitions[part].Points, pt)
		partitions[part].NumPoints++
	}
	maxPoints := 0
	for _, p := range partitions {
		maxPoints = max(maxPoints, p.NumPoints)
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		MaxPoints:     maxPoints,
		TotalPoints:   pb.NumPoints,
		NumPartitions: pb.NumPartitions,
		PToP:          pToP,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// partitionPoints assigns points to partitions
func (pb *PartitionBuilder) partitionPoints() ([]int, error) {
	pToP := make([]int, pb.NumPoints)
	switch pb.Strategy {
	case BlockPartition:
		pointsPerPartition := int(math.Ceil(float64(pb.NumPoints) / float64(pb.NumPartitions)))
		for i := range pToP {
			pToP[i] = min(i/pointsPerPartition, pb.NumPartitions-1)
		}
	case RoundRobin:
		for i := range pToP {
			pToP[i] = i % pb.NumPartitions
		}
	case StripPartition:
		if pb.Dim < 1 || len(pb.Coords) != pb.Dim*pb.NumPoints {
			return nil, fmt.Errorf("strip partitioning needs %d coordinates of dimension %d, have %d",
				pb.NumPoints, pb.Dim, len(pb.Coords))
		}
		if pb.Axis < 0 || pb.Axis >= pb.Dim {
			return nil, fmt.Errorf("strip axis %d outside dimension %d", pb.Axis, pb.Dim)
		}
		order := make([]int, pb.NumPoints)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return pb.Coords[order[a]*pb.Dim+pb.Axis] < pb.Coords[order[b]*pb.Dim+pb.Axis]
		})
		for rank, pt := range order {
			pToP[pt] = rank * pb.NumPartitions / pb.NumPoints
		}
	default:
		return nil, fmt.Errorf("unsupported strategy %v", pb.Strategy)
	}
	return pToP, nil
}
