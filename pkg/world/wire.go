package world

import (
	"bytes"

	"github.com/klauspost/compress/zlib"
)

// EncodeColumn serializes the present sections of c (low-to-high Y),
// biomes last, into the zlib-compressed blob protocol.ChunkData.Data
// carries on the wire. It returns the encoded bytes alongside the
// primary/add bitmasks the packet's header fields need.
func (c *Chunk) EncodeColumn() (data []byte, primary, add uint16, err error) {
	var raw bytes.Buffer
	for _, s := range c.Sections {
		if s == nil {
			continue
		}
		raw.Write(s.Blocks)
		raw.Write(s.Data)
		raw.Write(s.BlockLight)
		raw.Write(s.SkyLight)
	}
	for _, s := range c.Sections {
		if s != nil && s.Add != nil {
			raw.Write(s.Add)
		}
	}
	raw.Write(c.Biomes)

	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	if _, err := w.Write(raw.Bytes()); err != nil {
		return nil, 0, 0, err
	}
	if err := w.Close(); err != nil {
		return nil, 0, 0, err
	}
	return out.Bytes(), c.PrimaryBitmask(), c.AddBitmask(), nil
}
