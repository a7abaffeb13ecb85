// Package game holds the tick-thread-owned server state and the
// ordered systems that drive it: accepting new connections, applying
// inbound player packets, translating tracker events into outbound
// packets, broadcasting movement, and sweeping dead connections.
// Nothing here is safe for concurrent use — it all runs on the single
// tick goroutine per §4.G/§5.
package game

import (
	"time"

	"github.com/StoreStation/vibecraft/pkg/network"
	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/regionio"
	"github.com/StoreStation/vibecraft/pkg/tracker"
	"github.com/StoreStation/vibecraft/pkg/world"
)

// KeepAliveInterval is how often each client is pinged; a client that
// hasn't answered a ping by the time the next one comes due (one
// interval later) is dropped.
const KeepAliveInterval = 15 * time.Second

// Client is one joined player: the network half (queues, profile) and
// the game half (entity identity, last known position).
type Client struct {
	Conn   *network.Established
	Entity tracker.EntityKey

	EntityID int32
	UUID     string
	Name     string

	Location world.Location
	X, Y, Z  float64
	Yaw, Pitch float32
	OnGround bool

	GameMode byte
	Health   float32

	lastKeepAlive   time.Time
	awaitingKeepAlive bool
	keepAliveID       int32

	disconnected bool
}

func (c *Client) chunkPos() world.ChunkPosition {
	return world.ChunkPosition{X: int32(c.X) >> 4, Z: int32(c.Z) >> 4}
}

// pendingMove is a movement broadcast deferred from step 2 to step 4,
// so every client's inbound queue is drained before anyone's new
// position goes out on the wire.
type pendingMove struct {
	mover EntityID
	x, y, z    float64
	yaw, pitch float32
	onGround   bool
}

// EntityID is the wire entity id, distinct from tracker.EntityKey:
// it's what goes on the wire in SpawnPlayer/EntityTeleport/DestroyEntities.
type EntityID int32

// State is every piece of server state the tick loop's systems share.
type State struct {
	Tracker  *tracker.Tracker
	Pool     *regionio.Pool
	Listener *network.Listener

	WorldRoot string
	Dimension world.Dimension

	Config Config

	Clients  map[tracker.EntityKey]*Client
	byEntity map[EntityID]*Client

	// chunks caches the in-memory Chunk for every column currently
	// loaded, keyed by position. The tracker only tracks residency
	// bookkeeping; the actual block data lives here until saved back
	// out on unload.
	chunks map[world.ChunkPosition]*world.Chunk

	nextEntityID EntityID

	Level region.LevelData

	pendingMoves []pendingMove
}

// Config is the subset of server configuration the game systems need.
type Config struct {
	ViewDistance int32
	MaxPlayers   int
}

// New returns an empty State ready to be driven by the tick loop.
func New(tr *tracker.Tracker, pool *regionio.Pool, ln *network.Listener, worldRoot string, dim world.Dimension, cfg Config, level region.LevelData) *State {
	return &State{
		Tracker:      tr,
		Pool:         pool,
		Listener:     ln,
		WorldRoot:    worldRoot,
		Dimension:    dim,
		Config:       cfg,
		Clients:      make(map[tracker.EntityKey]*Client),
		byEntity:     make(map[EntityID]*Client),
		chunks:       make(map[world.ChunkPosition]*world.Chunk),
		nextEntityID: 1,
		Level:        level,
	}
}

func (s *State) allocEntityID() EntityID {
	id := s.nextEntityID
	s.nextEntityID++
	return id
}
