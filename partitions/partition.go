package partitions

import (
	"fmt"
)

// Partition is the set of mesh points owned by one rank
type Partition struct {
	// Unique identifier for this partition, equal to the owning rank
	ID int

	// Point membership
	Points    []int // Global point indices owned by this partition, ascending
	NumPoints int   // Number of owned points
}

// PartitionLayout manages the complete point decomposition
type PartitionLayout struct {
	// All partitions in the mesh
	Partitions []Partition

	// Global sizing information
	MaxPoints     int // max(NumPoints) across all partitions
	TotalPoints   int // Sum of all owned points across partitions
	NumPartitions int // Total number of partitions

	// Point to partition mapping
	PToP []int // Length TotalPoints: point i is owned by partition PToP[i]
}

// GetPartition returns the partition owning point i
func (pl *PartitionLayout) GetPartition(pointID int) int {
	if pointID < 0 || pointID >= len(pl.PToP) {
		return -1
	}
	return pl.PToP[pointID]
}

// ValidateLayout checks partition consistency
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("have %d partitions, NumPartitions is %d", len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.PToP) != pl.TotalPoints {
		return fmt.Errorf("PToP length %d != TotalPoints %d", len(pl.PToP), pl.TotalPoints)
	}
	actualMax, total := 0, 0
	for _, p := range pl.Partitions {
		if p.NumPoints != len(p.Points) {
			return fmt.Errorf("partition %d: NumPoints %d != len(Points) %d", p.ID, p.NumPoints, len(p.Points))
		}
		for _, pt := range p.Points {
			if pl.GetPartition(pt) != p.ID {
				return fmt.Errorf("partition %d lists point %d owned by %d", p.ID, pt, pl.GetPartition(pt))
			}
		}
		if p.NumPoints > actualMax {
			actualMax = p.NumPoints
		}
		total += p.NumPoints
	}
	if total != pl.TotalPoints {
		return fmt.Errorf("partitions own %d points, TotalPoints is %d", total, pl.TotalPoints)
	}
	if actualMax != pl.MaxPoints {
		return fmt.Errorf("computed MaxPoints %d != stored MaxPoints %d", actualMax, pl.MaxPoints)
	}
	return nil
}

// PartitionStatistics computes load balance metrics
func (pl *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinPoints:     pl.TotalPoints,
		AvgPoints:     float64(pl.TotalPoints) / float64(max(pl.NumPartitions, 1)),
	}
	for _, p := range pl.Partitions {
		stats.MinPoints = min(stats.MinPoints, p.NumPoints)
		stats.MaxPoints = max(stats.MaxPoints, p.NumPoints)
	}
	if stats.AvgPoints > 0 {
		stats.Imbalance = float64(stats.MaxPoints) / stats.AvgPoints
	}
	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinPoints     int
	MaxPoints     int
	AvgPoints     float64
	Imbalance     float64 // MaxPoints / AvgPoints
}
