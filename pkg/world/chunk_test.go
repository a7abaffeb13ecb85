package world

import "testing"

func TestNewChunkSectionIsAllAir(t *testing.T) {
	s := NewChunkSection(3)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate error on fresh section: %v", err)
	}
	if s.Add != nil {
		t.Error("fresh section should not allocate Add")
	}
	for i := 0; i < BlocksPerSection; i += 997 {
		if id := s.BlockID(i); id != 0 {
			t.Errorf("BlockID(%d) = %d, want 0", i, id)
		}
	}
}

func TestSetBlockIDAllocatesAddAboveByteRange(t *testing.T) {
	s := NewChunkSection(0)
	s.SetBlockID(0, 42)
	if s.Add != nil {
		t.Error("Add should stay nil for a block id under 256")
	}
	s.SetBlockID(1, 300) // needs the add nibble
	if s.Add == nil {
		t.Fatal("Add should be allocated once a block id exceeds 255")
	}
	if got := s.BlockID(1); got != 300 {
		t.Errorf("BlockID(1) = %d, want 300", got)
	}
	if got := s.BlockID(0); got != 42 {
		t.Errorf("BlockID(0) = %d, want 42 (unaffected by later Add allocation)", got)
	}
}

func TestChunkBitmasks(t *testing.T) {
	c := NewChunk(ChunkPosition{X: 1, Z: -1})
	c.Sections[0] = NewChunkSection(0)
	c.Sections[5] = NewChunkSection(5)
	c.Sections[5].Add = NewNibbleVec(BlocksPerSection)

	if got, want := c.PrimaryBitmask(), uint16(1<<0|1<<5); got != want {
		t.Errorf("PrimaryBitmask() = %016b, want %016b", got, want)
	}
	if got, want := c.AddBitmask(), uint16(1<<5); got != want {
		t.Errorf("AddBitmask() = %016b, want %016b", got, want)
	}
	if c.SectionAt(5) != c.Sections[5] {
		t.Error("SectionAt(5) should return Sections[5]")
	}
	if c.SectionAt(1) != nil {
		t.Error("SectionAt(1) should be nil: absent, not zero-filled")
	}
}

func TestChunkSectionValidateCatchesBadLengths(t *testing.T) {
	s := NewChunkSection(0)
	s.BlockLight = s.BlockLight[:len(s.BlockLight)-1]
	if err := s.Validate(); err == nil {
		t.Error("Validate should reject a truncated BlockLight array")
	}
}

func TestChunkPositionRegionAndLocalIndex(t *testing.T) {
	tests := []struct {
		pos      ChunkPosition
		region   RegionPosition
		lx, lz   int32
	}{
		{ChunkPosition{X: 0, Z: 0}, RegionPosition{X: 0, Z: 0}, 0, 0},
		{ChunkPosition{X: 31, Z: 31}, RegionPosition{X: 0, Z: 0}, 31, 31},
		{ChunkPosition{X: 32, Z: 32}, RegionPosition{X: 1, Z: 1}, 0, 0},
		{ChunkPosition{X: -1, Z: -1}, RegionPosition{X: -1, Z: -1}, 31, 31},
	}
	for _, tt := range tests {
		if got := tt.pos.Region(); got != tt.region {
			t.Errorf("%+v.Region() = %+v, want %+v", tt.pos, got, tt.region)
		}
		lx, lz := tt.pos.LocalIndex()
		if lx != tt.lx || lz != tt.lz {
			t.Errorf("%+v.LocalIndex() = (%d, %d), want (%d, %d)", tt.pos, lx, lz, tt.lx, tt.lz)
		}
	}
}
