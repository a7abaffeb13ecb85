package game

import (
	"errors"
	"log"

	"github.com/StoreStation/vibecraft/pkg/protocol"
)

// ProcessInbound is step 2: drain every client's inbound queue,
// apply movement/look updates to its tracked position, move it in the
// tracker when it crosses into a new chunk, and defer a movement
// broadcast for every update regardless of whether a chunk changed.
func ProcessInbound(s *State) error {
	for _, c := range s.Clients {
		if c.disconnected {
			continue
		}
		for _, pkt := range c.Conn.Inbound.DrainAll() {
			if err := s.handleInbound(c, pkt); err != nil {
				log.Printf("game: inbound packet from %s: %v", c.Name, err)
			}
		}
	}
	return nil
}

func (s *State) handleInbound(c *Client, pkt *protocol.Packet) error {
	val, err := protocol.Decode(protocol.StatePlay, protocol.Serverbound, pkt.ID, pkt.Data)
	if err != nil {
		if errors.Is(err, protocol.ErrMalformed) {
			return nil // unrecognized packet kind: ignore, don't drop the connection
		}
		return err
	}

	switch p := val.(type) {
	case *protocol.KeepAlive:
		if c.awaitingKeepAlive && p.ID == c.keepAliveID {
			c.awaitingKeepAlive = false
		}
	case *protocol.Player:
		c.OnGround = p.OnGround
	case *protocol.PlayerPosition:
		s.applyMove(c, p.X, p.FeetY, p.Z, c.Yaw, c.Pitch, p.OnGround)
	case *protocol.PlayerLook:
		s.applyMove(c, c.X, c.Y, c.Z, p.Yaw, p.Pitch, p.OnGround)
	case *protocol.PlayerPosAndLook:
		s.applyMove(c, p.X, p.FeetY, p.Z, p.Yaw, p.Pitch, p.OnGround)
	case *protocol.ClientSettings:
		// locale/view distance are presentation data; nothing to wire up.
	}
	return nil
}

// applyMove updates a client's authoritative position, tells the
// tracker when it has crossed into a new chunk, and defers the
// movement broadcast to step 4.
func (s *State) applyMove(c *Client, x, y, z float64, yaw, pitch float32, onGround bool) {
	oldChunk := c.chunkPos()
	c.X, c.Y, c.Z = x, y, z
	c.Yaw, c.Pitch = yaw, pitch
	c.OnGround = onGround

	if newChunk := c.chunkPos(); newChunk != oldChunk {
		if err := s.Tracker.MoveEntity(c.Entity, newChunk); err != nil {
			log.Printf("game: move entity for %s: %v", c.Name, err)
		}
	}

	s.pendingMoves = append(s.pendingMoves, pendingMove{
		mover: EntityID(c.EntityID),
		x: x, y: y, z: z,
		yaw: yaw, pitch: pitch,
		onGround: onGround,
	})
}
