package gateway

import (
	"sync"
	"time"

	"CityTalk/logger"
)

// Reconciler heals room sets left dirty by connections that vanished without
// running the disconnect handler (process-level socket drops, kills). It is a
// compensating sweep, not the primary cleanup path.
type Reconciler struct {
	rooms    *RoomTracker
	registry *Registry
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewReconciler(rooms *RoomTracker, registry *Registry, interval time.Duration) *Reconciler {
	return &Reconciler{
		rooms:    rooms,
		registry: registry,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (r *Reconciler) Run() {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Sweep runs one reconciliation pass. Per room: read the set, keep only conn
// ids that are still live and presence-bound, replace the set wholesale.
// Joins racing the sweep survive the replace (see RoomTracker.Replace).
func (r *Reconciler) Sweep() {
	for _, roomID := range r.rooms.Rooms() {
		read := r.rooms.Snapshot(roomID)
		if len(read) == 0 {
			continue
		}
		keep := read[:0:0]
		for _, connID := range read {
			if r.registry.Alive(connID) {
				keep = append(keep, connID)
			}
		}
		if len(keep) == len(read) {
			continue
		}
		logger.Infof("[reconcile] room=%s pruned=%d kept=%d", roomID, len(read)-len(keep), len(keep))
		r.rooms.Replace(roomID, read, keep)
	}
}
