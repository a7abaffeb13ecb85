package region

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/StoreStation/vibecraft/internal/nbt"
)

// LevelData is the world-root metadata persisted in level.dat: spawn
// position, world seed, and the current time of day in ticks.
type LevelData struct {
	SpawnX, SpawnY, SpawnZ int32
	Seed                   int64
	Time                   int64
}

// DefaultLevelData is what a freshly created world starts with.
func DefaultLevelData() LevelData {
	return LevelData{SpawnX: 0, SpawnY: 4, SpawnZ: 0, Seed: 0, Time: 0}
}

// LoadLevelData reads and decodes level.dat, returning
// DefaultLevelData (not an error) if the world has never been saved.
func LoadLevelData(worldRoot string) (LevelData, error) {
	path := LevelDatPath(worldRoot)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultLevelData(), nil
		}
		return LevelData{}, fmt.Errorf("region: read %s: %w", path, err)
	}
	root, err := readGzippedNBT(raw)
	if err != nil {
		return LevelData{}, fmt.Errorf("region: decode level data %s: %w", path, err)
	}
	data, ok := root.Lookup("Data").(nbt.Compound)
	if !ok {
		return LevelData{}, fmt.Errorf("region: %s missing Data compound", path)
	}
	return decodeLevelData(data), nil
}

// SaveLevelData gzip-NBT encodes ld and writes it to level.dat at the
// world root, creating the directory if needed.
func SaveLevelData(worldRoot string, ld LevelData) error {
	path := LevelDatPath(worldRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("region: mkdir for %s: %w", path, err)
	}
	root := nbt.Compound{"Data": encodeLevelData(ld)}
	raw, err := writeGzippedNBT(root)
	if err != nil {
		return fmt.Errorf("region: encode level data %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("region: write %s: %w", path, err)
	}
	return nil
}

func encodeLevelData(ld LevelData) nbt.Compound {
	return nbt.Compound{
		"SpawnX":     &nbt.Int{Value: ld.SpawnX},
		"SpawnY":     &nbt.Int{Value: ld.SpawnY},
		"SpawnZ":     &nbt.Int{Value: ld.SpawnZ},
		"RandomSeed": &nbt.Long{Value: ld.Seed},
		"Time":       &nbt.Long{Value: ld.Time},
	}
}

func decodeLevelData(data nbt.Compound) LevelData {
	ld := DefaultLevelData()
	if v, ok := data["SpawnX"].(*nbt.Int); ok {
		ld.SpawnX = v.Value
	}
	if v, ok := data["SpawnY"].(*nbt.Int); ok {
		ld.SpawnY = v.Value
	}
	if v, ok := data["SpawnZ"].(*nbt.Int); ok {
		ld.SpawnZ = v.Value
	}
	if v, ok := data["RandomSeed"].(*nbt.Long); ok {
		ld.Seed = v.Value
	}
	if v, ok := data["Time"].(*nbt.Long); ok {
		ld.Time = v.Value
	}
	return ld
}
