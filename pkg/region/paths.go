package region

import (
	"fmt"
	"path/filepath"

	"github.com/StoreStation/vibecraft/pkg/world"
)

// DimensionDir returns the subdirectory, relative to a world's root,
// for that dimension: "region" for the overworld, which holds its
// region files directly, and "DIM<n>" for every other dimension, whose
// region files sit in a nested "region" directory (see RegionFilePath).
func DimensionDir(dim world.Dimension) string {
	if dim == world.DimensionOverworld {
		return "region"
	}
	return fmt.Sprintf("DIM%d", int32(dim))
}

// RegionFilePath returns the path of the .mca file holding rp, rooted
// at worldRoot for the given dimension.
func RegionFilePath(worldRoot string, dim world.Dimension, rp world.RegionPosition) string {
	dir := DimensionDir(dim)
	if dim == world.DimensionOverworld {
		return filepath.Join(worldRoot, dir, fmt.Sprintf("r.%d.%d.mca", rp.X, rp.Z))
	}
	return filepath.Join(worldRoot, dir, "region", fmt.Sprintf("r.%d.%d.mca", rp.X, rp.Z))
}

// LevelDatPath returns the path of a world's level.dat metadata file.
func LevelDatPath(worldRoot string) string {
	return filepath.Join(worldRoot, "level.dat")
}

// PlayerDataPath returns the path of a player's <uuid>.dat file.
func PlayerDataPath(worldRoot, uuid string) string {
	return filepath.Join(worldRoot, "players", uuid+".dat")
}
