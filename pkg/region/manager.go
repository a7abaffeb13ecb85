package region

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/StoreStation/vibecraft/pkg/world"
)

// Manager caches open region files for one (world, dimension) and
// reference-counts live chunks per region so a region file can be
// closed (forcing a header flush) once nothing references it.
type Manager struct {
	worldRoot string
	dimension world.Dimension
	compress  CompressionType

	mu       sync.Mutex
	files    map[world.RegionPosition]*File
	refcount map[world.RegionPosition]int
}

// NewManager returns a Manager rooted at worldRoot for the given
// dimension, compressing newly written chunks with compress.
func NewManager(worldRoot string, dim world.Dimension, compress CompressionType) *Manager {
	return &Manager{
		worldRoot: worldRoot,
		dimension: dim,
		compress:  compress,
		files:     make(map[world.RegionPosition]*File),
		refcount:  make(map[world.RegionPosition]int),
	}
}

func (m *Manager) open(rp world.RegionPosition) (*File, error) {
	if f, ok := m.files[rp]; ok {
		return f, nil
	}

	path := RegionFilePath(m.worldRoot, m.dimension, rp)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("region: create directory for %s: %w", path, err)
	}

	_, statErr := os.Stat(path)
	var f *File
	if os.IsNotExist(statErr) {
		osf, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("region: create %s: %w", path, err)
		}
		f, err = Create(osf)
		if err != nil {
			osf.Close()
			return nil, err
		}
	} else {
		osf, err := os.OpenFile(path, os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("region: open %s: %w", path, err)
		}
		f, err = Open(osf)
		if err != nil {
			osf.Close()
			return nil, err
		}
	}

	m.files[rp] = f
	return f, nil
}

// Acquire opens (if needed) the region file holding pos and bumps its
// ticket count. Callers must pair every Acquire with a Release.
func (m *Manager) Acquire(pos world.ChunkPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rp := pos.Region()
	if _, err := m.open(rp); err != nil {
		return err
	}
	m.refcount[rp]++
	return nil
}

// Release drops pos's region's ticket count; at zero the region file
// is flushed and closed.
func (m *Manager) Release(pos world.ChunkPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rp := pos.Region()
	m.refcount[rp]--
	if m.refcount[rp] > 0 {
		return nil
	}
	delete(m.refcount, rp)
	f, ok := m.files[rp]
	if !ok {
		return nil
	}
	delete(m.files, rp)
	return f.Close()
}

// LoadChunk reads and decodes the chunk at pos, returning
// ErrChunkNotPresent if the region file has no data for it.
func (m *Manager) LoadChunk(pos world.ChunkPosition) (*world.Chunk, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.open(pos.Region())
	if err != nil {
		return nil, time.Time{}, err
	}

	payload, kind, timestamp, err := f.ReadChunk(pos.X, pos.Z)
	if err != nil {
		return nil, time.Time{}, err
	}
	raw, err := decompress(kind, payload)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("region: decompress chunk %+v: %w", pos, err)
	}

	root, err := readNBT(raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("region: decode NBT for chunk %+v: %w", pos, err)
	}
	chunk, err := DecodeChunk(root, pos)
	if err != nil {
		return nil, time.Time{}, err
	}
	return chunk, time.Unix(int64(timestamp), 0), nil
}

// SaveChunk encodes and compresses c and writes it to the region file
// holding pos.
func (m *Manager) SaveChunk(pos world.ChunkPosition, c *world.Chunk, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := m.open(pos.Region())
	if err != nil {
		return err
	}

	root := EncodeChunk(c)
	raw, err := writeNBT(root)
	if err != nil {
		return fmt.Errorf("region: encode NBT for chunk %+v: %w", pos, err)
	}
	payload, err := compress(m.compress, raw)
	if err != nil {
		return fmt.Errorf("region: compress chunk %+v: %w", pos, err)
	}
	return f.WriteChunk(pos.X, pos.Z, m.compress, payload, now)
}

// Close flushes and closes every currently open region file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for rp, f := range m.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.files, rp)
	}
	for rp := range m.refcount {
		delete(m.refcount, rp)
	}
	return firstErr
}
