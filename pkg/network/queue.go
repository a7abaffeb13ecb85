package network

import (
	"sync"

	"github.com/StoreStation/vibecraft/pkg/protocol"
)

// PacketQueue is an unbounded FIFO of packets, closable. The reader and
// writer tasks of a connection each own one direction's queue: the
// tick loop drains inbound queues and appends to outbound ones without
// ever blocking on socket I/O.
type PacketQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*protocol.Packet
	closed bool
}

// NewPacketQueue returns an empty, open queue.
func NewPacketQueue() *PacketQueue {
	q := &PacketQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends p. It is a no-op once the queue is closed.
func (q *PacketQueue) Push(p *protocol.Packet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, p)
	q.cond.Signal()
}

// Pop blocks until a packet is available or the queue is closed, in
// which case it returns (nil, false).
func (q *PacketQueue) Pop() (*protocol.Packet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p, true
}

// DrainAll returns and clears every packet currently queued without
// blocking — used by the tick loop's per-tick inbound drain.
func (q *PacketQueue) DrainAll() []*protocol.Packet {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Closed reports whether the queue has been closed — the connection
// worker closes both queues the moment the socket errors, so this
// doubles as the tick thread's "is this connection dead" check.
func (q *PacketQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close wakes any blocked Pop and marks the queue closed.
func (q *PacketQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
