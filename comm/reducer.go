package comm

import (
	"math"

	"github.com/notargets/FVLoads/coefficients"
)

// Reducer performs the global reductions of coefficient data for one partition. It owns a
// single scratch buffer that is reused by every call: the lower half holds the values sent,
// the upper half receives the reduced values. All ranks must issue the same sequence of
// calls with the same lengths; this is not checked beyond what the communicator itself
// reports.
type Reducer struct {
	comm    Communicator
	scratch []float64
}

// NewReducer wraps c
func NewReducer(c Communicator) *Reducer {
	return &Reducer{comm: c}
}

// Communicator returns the wrapped communicator
func (r *Reducer) Communicator() Communicator { return r.comm }

// values returns the send half of the scratch buffer sized for n values
func (r *Reducer) values(n int) []float64 {
	if cap(r.scratch) < 2*n {
		r.scratch = make([]float64, 2*n)
	}
	r.scratch = r.scratch[:2*n]
	return r.scratch[:n]
}

// reduce combines the first n scratch values over all ranks in place
func (r *Reducer) reduce(op Op, n int) error {
	if r.comm.Size() == 1 || n == 0 {
		return nil
	}
	send, recv := r.scratch[:n], r.scratch[n:2*n]
	if err := r.comm.AllReduce(op, send, recv); err != nil {
		return err
	}
	copy(send, recv)
	return nil
}

func (r *Reducer) allReduce(op Op, vals []float64) error {
	if r.comm.Size() == 1 || len(vals) == 0 {
		return nil
	}
	copy(r.values(len(vals)), vals)
	if err := r.reduce(op, len(vals)); err != nil {
		return err
	}
	copy(vals, r.scratch[:len(vals)])
	return nil
}

// Sum replaces vals with the element-wise sum over all ranks
func (r *Reducer) Sum(vals []float64) error {
	return r.allReduce(Sum, vals)
}

// Scalar reduces a single value with op
func (r *Reducer) Scalar(op Op, v float64) (float64, error) {
	if r.comm.Size() == 1 {
		return v, nil
	}
	r.values(1)[0] = v
	if err := r.reduce(op, 1); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

// PNorm reduces already rooted generalized means: each value is raised to p, summed over
// ranks and rooted again.
func (r *Reducer) PNorm(vals []float64, p float64) error {
	if r.comm.Size() == 1 || len(vals) == 0 {
		return nil
	}
	buf := r.values(len(vals))
	for i, v := range vals {
		buf[i] = math.Pow(v, p)
	}
	if err := r.reduce(Sum, len(buf)); err != nil {
		return err
	}
	for i, v := range buf {
		vals[i] = math.Pow(v, 1.0/p)
	}
	return nil
}

// Bundle reduces every channel of b and recomputes the derived channels
func (r *Reducer) Bundle(b *coefficients.Bundle) error {
	if r.comm.Size() == 1 {
		b.Derive()
		return nil
	}
	additive := coefficients.AdditiveChannels()
	vals := r.values(len(additive))
	for i, c := range additive {
		vals[i] = b.Get(c)
	}
	if err := r.reduce(Sum, len(vals)); err != nil {
		return err
	}
	for i, c := range additive {
		b.Set(c, vals[i])
	}
	hf := r.values(1)
	hf[0] = math.Pow(b.Get(coefficients.MaxHF), coefficients.MaxHeatNorm)
	if err := r.reduce(Sum, 1); err != nil {
		return err
	}
	b.Set(coefficients.MaxHF, math.Pow(hf[0], 1.0/coefficients.MaxHeatNorm))
	b.Derive()
	return nil
}

// Array reduces a per-surface or per-marker array channel by channel
func (r *Reducer) Array(a *coefficients.Array) error {
	if r.comm.Size() == 1 || a.Len() == 0 {
		a.Derive()
		return nil
	}
	n := a.Len()
	for _, c := range coefficients.AdditiveChannels() {
		vals := a.Channel(c, r.values(n))
		if err := r.reduce(Sum, n); err != nil {
			return err
		}
		if err := a.SetChannel(c, vals); err != nil {
			return err
		}
	}
	vals := r.values(n)
	for i := 0; i < n; i++ {
		vals[i] = math.Pow(a.At(i).Get(coefficients.MaxHF), coefficients.MaxHeatNorm)
	}
	if err := r.reduce(Sum, n); err != nil {
		return err
	}
	for i := range vals {
		vals[i] = math.Pow(vals[i], 1.0/coefficients.MaxHeatNorm)
	}
	if err := a.SetChannel(coefficients.MaxHF, vals); err != nil {
		return err
	}
	a.Derive()
	return nil
}
