package game

import (
	"github.com/StoreStation/vibecraft/pkg/protocol"
	"github.com/StoreStation/vibecraft/pkg/tracker"
)

// BroadcastMovement is step 4: for every movement deferred in step 2,
// teleport-broadcast the mover's new position to every loader within
// entity view radius that already knows about it, excluding the mover
// itself.
func BroadcastMovement(s *State) error {
	moves := s.pendingMoves
	s.pendingMoves = nil

	for _, mv := range moves {
		mover, ok := s.byEntity[mv.mover]
		if !ok {
			continue
		}
		pkt := (&protocol.EntityTeleport{
			EntityID: int32(mv.mover),
			X:        mv.x, Y: mv.y, Z: mv.z,
			Yaw: mv.yaw, Pitch: mv.pitch,
			OnGround: mv.onGround,
		}).Encode()

		for _, c := range s.Clients {
			if c.Entity == mover.Entity || c.disconnected {
				continue
			}
			if !withinEntityViewRadius(mover, c) {
				continue
			}
			c.Conn.Outbound.Push(pkt)
		}
	}
	return nil
}

func withinEntityViewRadius(mover, viewer *Client) bool {
	a, b := mover.chunkPos(), viewer.chunkPos()
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	radius := int32(tracker.EntityViewRadius)
	return dx <= radius && dz <= radius
}
