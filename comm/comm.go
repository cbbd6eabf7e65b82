package comm

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrAborted is returned by collectives of a world that was aborted by one of its ranks
var ErrAborted = errors.New("communicator aborted")

// Op is a reduction operator
type Op uint8

const (
	Sum Op = iota
	Min
	Max
)

func (op Op) String() string {
	switch op {
	case Sum:
		return "sum"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
}

func (op Op) apply(acc, v float64) float64 {
	switch op {
	case Min:
		return math.Min(acc, v)
	case Max:
		return math.Max(acc, v)
	default:
		return acc + v
	}
}

// Communicator is the collective interface seen by one partition.
// Every rank must call AllReduce in the same order with the same length and operator.
type Communicator interface {
	Rank() int
	Size() int
	AllReduce(op Op, send, recv []float64) error
}

// Single is the communicator of a run with one partition
type Single struct{}

func (Single) Rank() int { return 0 }
func (Single) Size() int { return 1 }

// AllReduce copies send to recv
func (Single) AllReduce(_ Op, send, recv []float64) error {
	if len(recv) < len(send) {
		return fmt.Errorf("receive buffer length %d < %d", len(recv), len(send))
	}
	copy(recv, send)
	return nil
}

// World connects size in-process ranks. Contributions are combined in rank order so every
// rank receives bitwise identical results.
type World struct {
	size int

	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation uint64
	sends      [][]float64
	ops        []Op
	result     []float64
	err        error
	aborted    error
}

// NewWorld creates a world of size ranks
func NewWorld(size int) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("world size must be positive, have %d", size)
	}
	w := &World{
		size:  size,
		sends: make([][]float64, size),
		ops:   make([]Op, size),
	}
	w.cond = sync.NewCond(&w.mu)
	return w, nil
}

// Size returns the number of ranks
func (w *World) Size() int { return w.size }

// Comm returns the communicator of rank
func (w *World) Comm(rank int) Communicator {
	return &rankComm{world: w, rank: rank}
}

// Abort releases every rank blocked in, or later entering, a collective
func (w *World) Abort(cause error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.aborted == nil {
		w.aborted = fmt.Errorf("%w: %v", ErrAborted, cause)
	}
	w.cond.Broadcast()
}

func (w *World) allReduce(rank int, op Op, send, recv []float64) error {
	if len(recv) < len(send) {
		return fmt.Errorf("rank %d: receive buffer length %d < %d", rank, len(recv), len(send))
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.aborted != nil {
		return w.aborted
	}
	gen := w.generation
	w.sends[rank] = append(w.sends[rank][:0], send...)
	w.ops[rank] = op
	w.arrived++
	if w.arrived == w.size {
		w.result, w.err = w.combine()
		w.arrived = 0
		w.generation++
		w.cond.Broadcast()
	} else {
		for gen == w.generation && w.aborted == nil {
			w.cond.Wait()
		}
		if gen == w.generation {
			return w.aborted
		}
	}
	if w.err != nil {
		return w.err
	}
	copy(recv, w.result)
	return nil
}

// combine runs under the lock once all ranks have contributed
func (w *World) combine() ([]float64, error) {
	n, op := len(w.sends[0]), w.ops[0]
	for r := 1; r < w.size; r++ {
		if len(w.sends[r]) != n || w.ops[r] != op {
			return nil, fmt.Errorf("collective mismatch: rank 0 sent %d values (%v), rank %d sent %d values (%v)",
				n, op, r, len(w.sends[r]), w.ops[r])
		}
	}
	result := make([]float64, n)
	copy(result, w.sends[0])
	for r := 1; r < w.size; r++ {
		for i, v := range w.sends[r] {
			result[i] = op.apply(result[i], v)
		}
	}
	return result, nil
}

type rankComm struct {
	world *World
	rank  int
}

func (c *rankComm) Rank() int { return c.rank }
func (c *rankComm) Size() int { return c.world.size }

func (c *rankComm) AllReduce(op Op, send, recv []float64) error {
	return c.world.allReduce(c.rank, op, send, recv)
}
