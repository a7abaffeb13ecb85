package game

import (
	"net"
	"testing"

	"github.com/StoreStation/vibecraft/pkg/auth"
	"github.com/StoreStation/vibecraft/pkg/network"
	"github.com/StoreStation/vibecraft/pkg/region"
	"github.com/StoreStation/vibecraft/pkg/regionio"
	"github.com/StoreStation/vibecraft/pkg/tracker"
	"github.com/StoreStation/vibecraft/pkg/world"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	pool := regionio.New(t.TempDir(), region.CompressionZLib)
	pool.AddDimension(world.DimensionOverworld)
	t.Cleanup(func() { pool.Shutdown() })

	return New(tracker.New(), pool, network.NewListener(nil, nil, nil), t.TempDir(),
		world.DimensionOverworld, Config{ViewDistance: 4, MaxPlayers: 20}, region.DefaultLevelData())
}

func newTestEstablished(name, uuid string) *network.Established {
	client, server := net.Pipe()
	_ = client
	return &network.Established{
		Profile:  auth.Profile{UUID: uuid, Name: name},
		Conn:     server,
		Inbound:  network.NewPacketQueue(),
		Outbound: network.NewPacketQueue(),
	}
}

func TestAcceptAssignsIncrementingEntityIDsAndSpawnsLoader(t *testing.T) {
	s := newTestState(t)

	s.accept(newTestEstablished("Alice", "uuid-1"))
	s.accept(newTestEstablished("Bob", "uuid-2"))

	if len(s.Clients) != 2 {
		t.Fatalf("len(Clients) = %d, want 2", len(s.Clients))
	}

	var ids []int32
	for _, c := range s.Clients {
		ids = append(ids, c.EntityID)
		if s.Tracker.Entity(c.Entity) == nil {
			t.Errorf("client %s has no tracker entity", c.Name)
		}
	}
	if ids[0] == ids[1] {
		t.Errorf("expected distinct entity ids, got %v", ids)
	}
}

func TestAcceptSendsJoinGameAndSpawnPosition(t *testing.T) {
	s := newTestState(t)
	established := newTestEstablished("Alice", "uuid-1")
	s.accept(established)

	pkts := established.Outbound.DrainAll()
	if len(pkts) != 2 {
		t.Fatalf("len(pkts) = %d, want 2 (JoinGame, PlayerPosAndLook)", len(pkts))
	}
	if pkts[0].ID != 0x01 {
		t.Errorf("first packet id = 0x%02X, want JoinGame 0x01", pkts[0].ID)
	}
	if pkts[1].ID != 0x08 {
		t.Errorf("second packet id = 0x%02X, want PlayerPosAndLook 0x08", pkts[1].ID)
	}
}

func TestClientChunkPosFloorsNegativeCoordinates(t *testing.T) {
	c := &Client{X: -1, Z: -17}
	pos := c.chunkPos()
	if pos.X != -1 || pos.Z != -2 {
		t.Errorf("chunkPos() = %+v, want {-1, -2}", pos)
	}
}

func TestWithinEntityViewRadius(t *testing.T) {
	mover := &Client{X: 0, Z: 0}
	near := &Client{X: float64(tracker.EntityViewRadius * 16), Z: 0}
	far := &Client{X: float64((tracker.EntityViewRadius + 1) * 16), Z: 0}

	if !withinEntityViewRadius(mover, near) {
		t.Error("expected near client within entity view radius")
	}
	if withinEntityViewRadius(mover, far) {
		t.Error("expected far client outside entity view radius")
	}
}
