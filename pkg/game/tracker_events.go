package game

import (
	"log"

	"github.com/StoreStation/vibecraft/pkg/protocol"
	"github.com/StoreStation/vibecraft/pkg/regionio"
	"github.com/StoreStation/vibecraft/pkg/tracker"
	"github.com/StoreStation/vibecraft/pkg/world"
)

// ApplyTrackerEvents is step 3: drain region I/O results (caching the
// generated/loaded chunk and telling the tracker it arrived), then
// drain the tracker's own events and translate each into the outbound
// packets that keep every loader's view consistent.
func ApplyTrackerEvents(s *State) error {
	s.drainRegionResults()

	for _, ev := range s.Tracker.DrainEvents() {
		s.applyEvent(ev)
	}
	return nil
}

func (s *State) drainRegionResults() {
	for {
		select {
		case res, ok := <-s.Pool.Results():
			if !ok {
				return
			}
			s.applyRegionResult(res)
		default:
			return
		}
	}
}

func (s *State) applyRegionResult(res regionio.Result) {
	if res.Err != nil {
		log.Printf("game: region I/O error at %+v: %v", res.Position, res.Err)
		return
	}

	var chunk *world.Chunk
	if res.NeedsGeneration {
		chunk = world.NewFlatChunk(res.Position)
	} else {
		chunk = res.Chunk
	}
	s.chunks[res.Position] = chunk

	loc := world.Location{WorldID: 0, Dimension: res.Dimension}
	s.Tracker.AddChunk(loc, res.Position)
}

func (s *State) applyEvent(ev tracker.Event) {
	switch ev.Kind {
	case tracker.EvEntityViewsChunks:
		s.sendChunks(ev)
	case tracker.EvEntityNoLongerViewsChunks:
		s.unloadChunks(ev)
	case tracker.EvEntityViewsEntities:
		s.spawnEntities(ev)
	case tracker.EvEntityNoLongerViewsEntities:
		s.destroyEntities(ev)
	case tracker.EvUnloadChunk:
		s.unloadChunk(ev)
	case tracker.EvRequestLoad:
		s.requestLoad(ev)
	case tracker.EvUnloadEntity:
		// nothing client-facing here: the disconnect sweep drives the
		// connection teardown for the entity that just left.
	}
}

func (s *State) requestLoad(ev tracker.Event) {
	for _, pos := range ev.Chunks {
		if err := s.Pool.LoadChunk(s.Dimension, pos); err != nil {
			log.Printf("game: request load %+v: %v", pos, err)
		}
	}
}

// unloadChunk fires once a chunk has no remaining loaders or
// residents: save it back out and drop it from the in-memory cache.
func (s *State) unloadChunk(ev tracker.Event) {
	for _, pos := range ev.Chunks {
		chunk, ok := s.chunks[pos]
		if !ok {
			continue
		}
		delete(s.chunks, pos)
		if err := s.Pool.SaveChunk(s.Dimension, pos, chunk); err != nil {
			log.Printf("game: save chunk %+v: %v", pos, err)
		}
	}
}

func (s *State) sendChunks(ev tracker.Event) {
	c, ok := s.Clients[ev.Entity]
	if !ok {
		return
	}
	for _, pos := range ev.Chunks {
		chunk, ok := s.chunks[pos]
		if !ok {
			// Not yet loaded: EvRequestLoad already enqueued it and this
			// same view will be resent once EvEntityViewsChunks fires
			// again after the load result lands.
			continue
		}
		data, primary, add, err := chunk.EncodeColumn()
		if err != nil {
			log.Printf("game: encode chunk %+v for %s: %v", pos, c.Name, err)
			continue
		}
		pkt := (&protocol.ChunkData{
			ChunkX:             pos.X,
			ChunkZ:             pos.Z,
			GroundUpContinuous: true,
			PrimaryBitmask:     primary,
			AddBitmask:         add,
			Data:               data,
		}).Encode()
		c.Conn.Outbound.Push(pkt)
	}
}

func (s *State) unloadChunks(ev tracker.Event) {
	c, ok := s.Clients[ev.Entity]
	if !ok {
		return
	}
	for _, pos := range ev.Chunks {
		c.Conn.Outbound.Push(protocol.UnloadChunkData(pos.X, pos.Z))
	}
}

func (s *State) spawnEntities(ev tracker.Event) {
	viewer, ok := s.Clients[ev.Entity]
	if !ok {
		return
	}
	for _, key := range ev.Entities {
		other, ok := s.Clients[key]
		if !ok {
			continue
		}
		pkt := (&protocol.SpawnPlayer{
			EntityID: other.EntityID,
			UUID:     other.UUID,
			X:        other.X, Y: other.Y, Z: other.Z,
			Yaw: other.Yaw, Pitch: other.Pitch,
		}).Encode()
		viewer.Conn.Outbound.Push(pkt)
	}
}

func (s *State) destroyEntities(ev tracker.Event) {
	viewer, ok := s.Clients[ev.Entity]
	if !ok {
		return
	}
	ids := make([]int32, 0, len(ev.Entities))
	for _, key := range ev.Entities {
		if other, ok := s.Clients[key]; ok {
			ids = append(ids, other.EntityID)
		}
	}
	if len(ids) == 0 {
		return
	}
	viewer.Conn.Outbound.Push((&protocol.DestroyEntities{EntityIDs: ids}).Encode())
}
