package region

import "testing"

func TestLevelDataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ld := LevelData{SpawnX: 100, SpawnY: 68, SpawnZ: -50, Seed: 123456789, Time: 6000}

	if err := SaveLevelData(dir, ld); err != nil {
		t.Fatalf("SaveLevelData: %v", err)
	}
	got, err := LoadLevelData(dir)
	if err != nil {
		t.Fatalf("LoadLevelData: %v", err)
	}
	if got != ld {
		t.Errorf("got %+v, want %+v", got, ld)
	}
}

func TestLoadLevelDataMissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	got, err := LoadLevelData(dir)
	if err != nil {
		t.Fatalf("LoadLevelData: %v", err)
	}
	if got != DefaultLevelData() {
		t.Errorf("got %+v, want defaults %+v", got, DefaultLevelData())
	}
}
