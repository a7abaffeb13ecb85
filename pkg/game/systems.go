package game

import (
	"log"

	"github.com/StoreStation/vibecraft/pkg/region"
)

// AcceptClients, ProcessInbound, ApplyTrackerEvents, BroadcastMovement,
// KeepaliveSweep, and DisconnectSweep are registered with tick.New in
// exactly that order — the six per-tick steps.

// Shutdown saves every connected client's player data and the world's
// level data, for an orderly exit outside the tick loop.
func (s *State) Shutdown() {
	for key, c := range s.Clients {
		s.dropClient(key, c)
	}
	if err := region.SaveLevelData(s.WorldRoot, s.Level); err != nil {
		log.Printf("game: save level data: %v", err)
	}
}
