package pipeline

import "sync/atomic"

// Tracker hands out increasing tokens so that only the newest of several
// overlapping runs gets to publish its result.
type Tracker struct {
	latest atomic.Uint64
}

func (t *Tracker) Begin() uint64 {
	return t.latest.Add(1)
}

func (t *Tracker) IsLatest(token uint64) bool {
	return t.latest.Load() == token
}
