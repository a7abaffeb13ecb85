package game

import (
	"time"

	"github.com/StoreStation/vibecraft/pkg/protocol"
)

// KeepaliveSweep is step 5: ping every client every KeepAliveInterval,
// and mark a client disconnected if it never answered the previous
// ping before this one came due.
func KeepaliveSweep(s *State) error {
	now := time.Now()
	for _, c := range s.Clients {
		if c.disconnected {
			continue
		}
		if c.lastKeepAlive.IsZero() {
			c.lastKeepAlive = now
			continue
		}
		if now.Sub(c.lastKeepAlive) < KeepAliveInterval {
			continue
		}
		if c.awaitingKeepAlive {
			c.disconnected = true
			continue
		}
		c.keepAliveID++
		c.awaitingKeepAlive = true
		c.lastKeepAlive = now
		c.Conn.Outbound.Push((&protocol.KeepAlive{ID: c.keepAliveID}).Encode())
	}
	return nil
}
