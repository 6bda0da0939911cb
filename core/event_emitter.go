package tutoring

import "sync"

// updateEmitter delivers snapshots to the display collaborator one at a time,
// so that they are observed in the order the changes happened.
type updateEmitter struct {
	mu       sync.Mutex
	callback func(Snapshot)
}

func newUpdateEmitter(callback func(Snapshot)) *updateEmitter {
	if callback == nil {
		callback = noopUpdate
	}
	return &updateEmitter{callback: callback}
}

func noopUpdate(Snapshot) {}

func (e *updateEmitter) emit(snapshot func() Snapshot) {
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.callback(snapshot())
}
