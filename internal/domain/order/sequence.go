package order

import "sync/atomic"

// idSeed keeps generated ids above any plausible manually assigned fixture id.
const idSeed = 1000

// Sequence issues process-wide unique, strictly increasing order ids.
// Next is safe to call from concurrently constructed orders.
type Sequence struct {
	next atomic.Int64
}

func NewSequence() *Sequence {
	s := &Sequence{}
	s.next.Store(idSeed)
	return s
}

func (s *Sequence) Next() int64 {
	return s.next.Add(1) - 1
}
