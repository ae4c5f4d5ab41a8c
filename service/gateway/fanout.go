package gateway

import (
	"hash/fnv"
	"sync"
)

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout delivers one payload to many clients off the sender's event loop.
// Connections are sharded to workers by conn id, so frames for any single
// connection are enqueued in the order they were broadcast.
type Fanout struct {
	shards []chan fanoutJob

	closeOnce sync.Once
	done      chan struct{}
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{
		shards: make([]chan fanoutJob, workers),
		done:   make(chan struct{}),
	}
	for i := range f.shards {
		ch := make(chan fanoutJob, queue)
		f.shards[i] = ch
		go func() {
			for {
				select {
				case <-f.done:
					return
				case job := <-ch:
					for _, c := range job.conns {
						c.enqueue(job.payload)
					}
				}
			}
		}()
	}
	return f
}

func (f *Fanout) shardOf(connID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(connID))
	return int(h.Sum32() % uint32(len(f.shards)))
}

// Broadcast enqueues a delivery job. The payload has already been persisted
// where durability matters; delivery itself is at-most-once per connection.
// After Close, broadcasts are dropped; disconnect cleanup racing a shutdown
// must not block or panic here.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	grouped := make(map[int][]*Client, len(f.shards))
	for _, c := range conns {
		i := f.shardOf(c.ConnID)
		grouped[i] = append(grouped[i], c)
	}
	for i, group := range grouped {
		select {
		case f.shards[i] <- fanoutJob{conns: group, payload: payload}:
		case <-f.done:
			return
		}
	}
}

// Close stops the shard workers. Idempotent.
func (f *Fanout) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
