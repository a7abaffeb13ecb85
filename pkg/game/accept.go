package game

import (
	"log"

	"github.com/StoreStation/vibecraft/pkg/network"
	"github.com/StoreStation/vibecraft/pkg/protocol"
	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/world"
)

// AcceptClients is step 1: drain every connection the network listener
// has finished logging in, spawn a loader entity for each at its saved
// (or default) position, and send the packets that put it in the
// world.
func AcceptClients(s *State) error {
	for {
		select {
		case established := <-s.Listener.Joined:
			s.accept(established)
		default:
			return nil
		}
	}
}

func (s *State) accept(established *network.Established) {
	pd, err := region.LoadPlayerData(s.WorldRoot, established.Profile.UUID)
	if err != nil {
		log.Printf("game: load player data for %s: %v", established.Profile.Name, err)
		pd = region.DefaultPlayerData()
	}

	entityID := s.allocEntityID()
	loc := world.Location{WorldID: 0, Dimension: s.Dimension}
	viewDistance := s.Config.ViewDistance

	c := &Client{
		Conn:     established,
		EntityID: int32(entityID),
		UUID:     established.Profile.UUID,
		Name:     established.Profile.Name,
		Location: loc,
		X:        pd.X, Y: pd.Y, Z: pd.Z,
		Yaw: pd.Yaw, Pitch: pd.Pitch,
		GameMode: pd.GameMode,
		Health:   pd.Health,
	}
	if c.Health <= 0 {
		c.Health = 20
	}

	key, err := s.Tracker.AddEntity(loc, c.chunkPos(), c.EntityID, &viewDistance)
	if err != nil {
		log.Printf("game: add entity for %s: %v", c.Name, err)
		established.Close()
		return
	}
	c.Entity = key

	s.Clients[key] = c
	s.byEntity[entityID] = c

	join := (&protocol.JoinGame{
		EntityID:   c.EntityID,
		GameMode:   c.GameMode,
		Dimension:  int8(s.Dimension),
		Difficulty: 1,
		MaxPlayers: byte(s.Config.MaxPlayers),
		LevelType:  "flat",
	}).Encode()
	established.Outbound.Push(join)

	spawn := (&protocol.PlayerPosAndLookClientbound{
		X: c.X, Y: c.Y, Z: c.Z,
		Yaw: c.Yaw, Pitch: c.Pitch,
		OnGround: false,
	}).Encode()
	established.Outbound.Push(spawn)

	log.Printf("game: %s joined at (%.1f, %.1f, %.1f)", c.Name, c.X, c.Y, c.Z)
}
