package region

import (
	"fmt"

	"github.com/StoreStation/vibecraft/internal/nbt"
	"github.com/StoreStation/vibecraft/pkg/world"
)

// EncodeChunk translates an in-memory Chunk into its NBT tag tree,
// matching the vanilla "Level" compound's field names.
func EncodeChunk(c *world.Chunk) nbt.Compound {
	sections := &nbt.List{ElemType: nbt.TagCompound}
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		section := nbt.Compound{
			"Y":          &nbt.Byte{Value: s.Y},
			"Blocks":     &nbt.ByteArray{Value: s.Blocks},
			"Data":       &nbt.ByteArray{Value: []byte(s.Data)},
			"BlockLight": &nbt.ByteArray{Value: []byte(s.BlockLight)},
			"SkyLight":   &nbt.ByteArray{Value: []byte(s.SkyLight)},
		}
		if s.Add != nil {
			section["Add"] = &nbt.ByteArray{Value: []byte(s.Add)}
		}
		sections.Value = append(sections.Value, section)
	}

	return nbt.Compound{
		"Level": nbt.Compound{
			"xPos":             &nbt.Int{Value: c.Position.X},
			"zPos":             &nbt.Int{Value: c.Position.Z},
			"TerrainPopulated": &nbt.Byte{Value: boolToByte(c.TerrainPopulated)},
			"InhabitedTime":    &nbt.Long{Value: c.InhabitedTime},
			"Biomes":           &nbt.ByteArray{Value: c.Biomes},
			"HeightMap":        &nbt.IntArray{Value: c.Heightmap},
			"Sections":         sections,
		},
	}
}

// DecodeChunk translates a decoded NBT tag tree back into a Chunk,
// enforcing the position-match invariant and the byte-length
// invariants on each section.
func DecodeChunk(root nbt.Compound, want world.ChunkPosition) (*world.Chunk, error) {
	levelTag, ok := root["Level"]
	if !ok {
		return nil, fmt.Errorf("region: chunk NBT missing Level compound")
	}
	level, ok := levelTag.(nbt.Compound)
	if !ok {
		return nil, fmt.Errorf("region: Level is %T, want Compound", levelTag)
	}

	xPos, err := requireInt(level, "xPos")
	if err != nil {
		return nil, err
	}
	zPos, err := requireInt(level, "zPos")
	if err != nil {
		return nil, err
	}
	if xPos != want.X || zPos != want.Z {
		return nil, fmt.Errorf("%w: NBT has (%d, %d), requested (%d, %d)",
			ErrPositionMismatch, xPos, zPos, want.X, want.Z)
	}

	c := world.NewChunk(want)

	if tp, ok := level["TerrainPopulated"].(*nbt.Byte); ok {
		c.TerrainPopulated = tp.Value != 0
	}
	if it, ok := level["InhabitedTime"].(*nbt.Long); ok {
		c.InhabitedTime = it.Value
	}
	if biomes, ok := level["Biomes"].(*nbt.ByteArray); ok {
		if len(biomes.Value) != world.BiomesPerChunk {
			return nil, fmt.Errorf("region: Biomes is %d bytes, want %d", len(biomes.Value), world.BiomesPerChunk)
		}
		c.Biomes = biomes.Value
	}
	if hm, ok := level["HeightMap"].(*nbt.IntArray); ok {
		if len(hm.Value) != world.HeightmapEntries {
			return nil, fmt.Errorf("region: HeightMap is %d entries, want %d", len(hm.Value), world.HeightmapEntries)
		}
		c.Heightmap = hm.Value
	}

	sectionsTag, ok := level["Sections"]
	if !ok {
		return c, nil
	}
	sectionsList, ok := sectionsTag.(*nbt.List)
	if !ok {
		return nil, fmt.Errorf("region: Sections is %T, want *List", sectionsTag)
	}
	for _, st := range sectionsList.Value {
		sc, ok := st.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("region: section entry is %T, want Compound", st)
		}
		section, err := decodeSection(sc)
		if err != nil {
			return nil, err
		}
		if section.Y < 0 || int(section.Y) >= world.SectionsPerChunk {
			return nil, fmt.Errorf("region: section Y %d out of range", section.Y)
		}
		c.Sections[section.Y] = section
	}

	return c, nil
}

func decodeSection(sc nbt.Compound) (*world.ChunkSection, error) {
	y, ok := sc["Y"].(*nbt.Byte)
	if !ok {
		return nil, fmt.Errorf("region: section missing Y")
	}
	blocks, err := requireByteArray(sc, "Blocks", world.BlocksPerSection)
	if err != nil {
		return nil, err
	}
	data, err := requireByteArray(sc, "Data", world.NibblesPerSection)
	if err != nil {
		return nil, err
	}
	blockLight, err := requireByteArray(sc, "BlockLight", world.NibblesPerSection)
	if err != nil {
		return nil, err
	}
	skyLight, err := requireByteArray(sc, "SkyLight", world.NibblesPerSection)
	if err != nil {
		return nil, err
	}

	section := &world.ChunkSection{
		Y:          y.Value,
		Blocks:     blocks,
		Data:       world.NibbleVec(data),
		BlockLight: world.NibbleVec(blockLight),
		SkyLight:   world.NibbleVec(skyLight),
	}

	if addTag, ok := sc["Add"]; ok {
		add, ok := addTag.(*nbt.ByteArray)
		if !ok {
			return nil, fmt.Errorf("region: section Add is %T, want *ByteArray", addTag)
		}
		if len(add.Value) != world.NibblesPerSection {
			return nil, fmt.Errorf("region: section Add is %d bytes, want %d", len(add.Value), world.NibblesPerSection)
		}
		section.Add = world.NibbleVec(add.Value)
	}

	if err := section.Validate(); err != nil {
		return nil, err
	}
	return section, nil
}

func requireInt(c nbt.Compound, key string) (int32, error) {
	tag, ok := c[key].(*nbt.Int)
	if !ok {
		return 0, fmt.Errorf("region: chunk NBT missing %s", key)
	}
	return tag.Value, nil
}

func requireByteArray(c nbt.Compound, key string, want int) ([]byte, error) {
	tag, ok := c[key].(*nbt.ByteArray)
	if !ok {
		return nil, fmt.Errorf("region: section missing %s", key)
	}
	if len(tag.Value) != want {
		return nil, fmt.Errorf("region: section %s is %d bytes, want %d", key, len(tag.Value), want)
	}
	return tag.Value, nil
}

func boolToByte(b bool) int8 {
	if b {
		return 1
	}
	return 0
}
