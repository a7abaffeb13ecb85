package region

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/StoreStation/vibecraft/internal/nbt"
)

// PlayerData is the subset of a joined player's state persisted across
// sessions: position, rotation, health, gamemode, and a flat 45-slot
// inventory. It intentionally carries no crafting, durability, or
// stacking semantics — just the round trip a <uuid>.dat file needs.
type PlayerData struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Health     float32
	GameMode   byte
	Dimension  int32
	Inventory  [45]Slot
}

// Slot is one inventory slot: an empty slot has ItemID -1.
type Slot struct {
	ItemID int16
	Count  byte
	Damage int16
}

// DefaultPlayerData is what a never-before-seen player spawns with.
func DefaultPlayerData() PlayerData {
	pd := PlayerData{Health: 20, GameMode: 0}
	for i := range pd.Inventory {
		pd.Inventory[i].ItemID = -1
	}
	return pd
}

// LoadPlayerData reads and decodes a player's <uuid>.dat, returning
// DefaultPlayerData (not an error) if the file has never been written.
func LoadPlayerData(worldRoot, uuid string) (PlayerData, error) {
	path := PlayerDataPath(worldRoot, uuid)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPlayerData(), nil
		}
		return PlayerData{}, fmt.Errorf("region: read %s: %w", path, err)
	}
	root, err := readGzippedNBT(raw)
	if err != nil {
		return PlayerData{}, fmt.Errorf("region: decode player data %s: %w", path, err)
	}
	return decodePlayerData(root), nil
}

// SavePlayerData gzip-NBT encodes pd and writes it to uuid's data file,
// creating the players directory if needed.
func SavePlayerData(worldRoot, uuid string, pd PlayerData) error {
	path := PlayerDataPath(worldRoot, uuid)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("region: mkdir for %s: %w", path, err)
	}
	raw, err := writeGzippedNBT(encodePlayerData(pd))
	if err != nil {
		return fmt.Errorf("region: encode player data %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("region: write %s: %w", path, err)
	}
	return nil
}

func encodePlayerData(pd PlayerData) nbt.Compound {
	inv := &nbt.List{ElemType: nbt.TagCompound}
	for i, s := range pd.Inventory {
		if s.ItemID < 0 {
			continue
		}
		inv.Value = append(inv.Value, nbt.Compound{
			"Slot":   &nbt.Byte{Value: int8(i)},
			"id":     &nbt.Short{Value: s.ItemID},
			"Count":  &nbt.Byte{Value: int8(s.Count)},
			"Damage": &nbt.Short{Value: s.Damage},
		})
	}

	pos := &nbt.List{ElemType: nbt.TagDouble}
	pos.Value = append(pos.Value, &nbt.Double{Value: pd.X}, &nbt.Double{Value: pd.Y}, &nbt.Double{Value: pd.Z})
	rot := &nbt.List{ElemType: nbt.TagFloat}
	rot.Value = append(rot.Value, &nbt.Float{Value: pd.Yaw}, &nbt.Float{Value: pd.Pitch})

	return nbt.Compound{
		"Pos":        pos,
		"Rotation":   rot,
		"Health":     &nbt.Float{Value: pd.Health},
		"playerGameType": &nbt.Int{Value: int32(pd.GameMode)},
		"Dimension":  &nbt.Int{Value: pd.Dimension},
		"Inventory":  inv,
	}
}

func decodePlayerData(root nbt.Compound) PlayerData {
	pd := DefaultPlayerData()

	if pos, ok := root["Pos"].(*nbt.List); ok && len(pos.Value) == 3 {
		if d, ok := pos.Value[0].(*nbt.Double); ok {
			pd.X = d.Value
		}
		if d, ok := pos.Value[1].(*nbt.Double); ok {
			pd.Y = d.Value
		}
		if d, ok := pos.Value[2].(*nbt.Double); ok {
			pd.Z = d.Value
		}
	}
	if rot, ok := root["Rotation"].(*nbt.List); ok && len(rot.Value) == 2 {
		if f, ok := rot.Value[0].(*nbt.Float); ok {
			pd.Yaw = f.Value
		}
		if f, ok := rot.Value[1].(*nbt.Float); ok {
			pd.Pitch = f.Value
		}
	}
	if h, ok := root["Health"].(*nbt.Float); ok {
		pd.Health = h.Value
	}
	if gm, ok := root["playerGameType"].(*nbt.Int); ok {
		pd.GameMode = byte(gm.Value)
	}
	if dim, ok := root["Dimension"].(*nbt.Int); ok {
		pd.Dimension = dim.Value
	}
	if inv, ok := root["Inventory"].(*nbt.List); ok {
		for _, entry := range inv.Value {
			c, ok := entry.(nbt.Compound)
			if !ok {
				continue
			}
			slotTag, ok := c["Slot"].(*nbt.Byte)
			if !ok || slotTag.Value < 0 || int(slotTag.Value) >= len(pd.Inventory) {
				continue
			}
			s := Slot{ItemID: -1}
			if id, ok := c["id"].(*nbt.Short); ok {
				s.ItemID = id.Value
			}
			if count, ok := c["Count"].(*nbt.Byte); ok {
				s.Count = byte(count.Value)
			}
			if dmg, ok := c["Damage"].(*nbt.Short); ok {
				s.Damage = dmg.Value
			}
			pd.Inventory[slotTag.Value] = s
		}
	}
	return pd
}

func readGzippedNBT(raw []byte) (nbt.Compound, error) {
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return nbt.Read(r)
}

func writeGzippedNBT(root nbt.Compound) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if err := nbt.Write(w, root); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
