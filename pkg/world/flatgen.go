package world

// FlatWorldBlock returns the default block id for a flat world at
// height y: bedrock at 0, dirt up to 3, grass at 4, air above. Kept
// from the teacher's flat-world stand-in; world generation itself is
// out of scope here, this just gives NeedsGeneration somewhere to
// land instead of leaving a chunk permanently absent.
func FlatWorldBlock(y int8) uint16 {
	switch {
	case y == 0:
		return 7 // bedrock
	case y <= 3:
		return 3 // dirt
	case y == 4:
		return 2 // grass
	default:
		return 0 // air
	}
}

// NewFlatChunk builds the deterministic placeholder column served in
// response to a NeedsGeneration result: five sections of FlatWorldBlock
// at y=0..79, everything above air.
func NewFlatChunk(pos ChunkPosition) *Chunk {
	c := NewChunk(pos)
	for sy := int8(0); sy < 5; sy++ {
		s := NewChunkSection(sy)
		for i := 0; i < BlocksPerSection; i++ {
			y := sy*16 + int8(i/(SectionWidth*SectionWidth))
			s.SetBlockID(i, FlatWorldBlock(y))
		}
		for i := range s.SkyLight {
			s.SkyLight[i] = 0xFF
		}
		c.Sections[sy] = s
	}
	c.TerrainPopulated = true
	return c
}
