package region

import (
	"os"
	"testing"
	"time"

	"github.com/StoreStation/vibecraft/pkg/world"
)

func TestManagerSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, world.DimensionOverworld, CompressionZLib)
	defer mgr.Close()

	pos := world.ChunkPosition{X: 12, Z: -7}
	c := buildSampleChunk(pos)

	if err := mgr.SaveChunk(pos, c, time.Unix(1600000000, 0)); err != nil {
		t.Fatalf("SaveChunk error: %v", err)
	}

	loaded, ts, err := mgr.LoadChunk(pos)
	if err != nil {
		t.Fatalf("LoadChunk error: %v", err)
	}
	if loaded.Position != pos {
		t.Errorf("loaded Position = %+v, want %+v", loaded.Position, pos)
	}
	if ts.Unix() != 1600000000 {
		t.Errorf("timestamp = %d, want 1600000000", ts.Unix())
	}
	if loaded.SectionAt(0).BlockID(0) != 7 {
		t.Errorf("loaded section 0 BlockID(0) = %d, want 7", loaded.SectionAt(0).BlockID(0))
	}
}

func TestManagerLoadChunkNotPresent(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, world.DimensionOverworld, CompressionZLib)
	defer mgr.Close()

	_, _, err := mgr.LoadChunk(world.ChunkPosition{X: 0, Z: 0})
	if err != ErrChunkNotPresent {
		t.Errorf("LoadChunk on empty store = %v, want %v", err, ErrChunkNotPresent)
	}
}

func TestManagerRefcountClosesRegionAtZero(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, world.DimensionOverworld, CompressionGZip)
	defer mgr.Close()

	pos := world.ChunkPosition{X: 0, Z: 0}
	if err := mgr.Acquire(pos); err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if err := mgr.Acquire(pos); err != nil {
		t.Fatalf("second Acquire error: %v", err)
	}
	if len(mgr.files) != 1 {
		t.Fatalf("expected one open region file, got %d", len(mgr.files))
	}

	if err := mgr.Release(pos); err != nil {
		t.Fatalf("Release error: %v", err)
	}
	if len(mgr.files) != 1 {
		t.Fatal("region file closed too early (refcount should still be 1)")
	}

	if err := mgr.Release(pos); err != nil {
		t.Fatalf("second Release error: %v", err)
	}
	if len(mgr.files) != 0 {
		t.Error("region file should be closed once its refcount reaches zero")
	}
}

func TestManagerDimensionDirLayout(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, world.Dimension(-1), CompressionUncompressed)
	defer mgr.Close()

	pos := world.ChunkPosition{X: 0, Z: 0}
	if err := mgr.SaveChunk(pos, buildSampleChunk(pos), time.Now()); err != nil {
		t.Fatalf("SaveChunk error: %v", err)
	}

	wantPath := RegionFilePath(dir, world.Dimension(-1), pos.Region())
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("region file not found at expected DIM<n> path %s: %v", wantPath, err)
	}
}
