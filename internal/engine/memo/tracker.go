package memo

import "sync/atomic"

// Stamp is a value of the modification counter.
type Stamp uint64

// Tracker is the modification counter owned by an editing session. Every
// structural change to any tree in the session must call Bump; cached results
// computed under an older stamp are stale.
type Tracker struct {
	count atomic.Uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Current returns the counter value.
func (t *Tracker) Current() Stamp {
	return Stamp(t.count.Load())
}

// Bump increments the counter and returns the new value.
func (t *Tracker) Bump() Stamp {
	return Stamp(t.count.Add(1))
}
