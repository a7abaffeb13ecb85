package game

import (
	"log"

	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/tracker"
)

// DisconnectSweep is step 6: for every client whose connection has
// died (socket closed, or marked disconnected by the keepalive sweep),
// save its player data, remove its entity from the tracker, and drop
// it from the client table.
func DisconnectSweep(s *State) error {
	for key, c := range s.Clients {
		if !c.disconnected && !c.connDead() {
			continue
		}
		s.dropClient(key, c)
	}
	return nil
}

func (c *Client) connDead() bool {
	return c.Conn.Inbound.Closed() || c.Conn.Outbound.Closed()
}

func (s *State) dropClient(key tracker.EntityKey, c *Client) {
	pd := region.PlayerData{
		X: c.X, Y: c.Y, Z: c.Z,
		Yaw: c.Yaw, Pitch: c.Pitch,
		Health:    c.Health,
		GameMode:  c.GameMode,
		Dimension: int32(s.Dimension),
	}
	if err := region.SavePlayerData(s.WorldRoot, c.UUID, pd); err != nil {
		log.Printf("game: save player data for %s: %v", c.Name, err)
	}

	if err := s.Tracker.UnloadEntity(c.Entity); err != nil {
		log.Printf("game: unload entity for %s: %v", c.Name, err)
	}

	c.Conn.Close()

	delete(s.Clients, key)
	delete(s.byEntity, EntityID(c.EntityID))
	log.Printf("game: %s disconnected", c.Name)
}
