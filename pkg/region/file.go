// Package region implements the 4 KiB-sector on-disk chunk store:
// per-region location/timestamp tables, first-fit sector allocation,
// pluggable per-chunk compression, and the chunk<->NBT mapping.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	sectorSize        = 4096
	headerSectors     = 2
	locationTableSize = 1024 * 4
	timestampTableSize = 1024 * 4
	entriesPerTable   = 1024
	gridSize          = 32 // chunks per region file edge
)

// ErrChunkNotPresent is returned by ReadChunk when the region file
// has no data for the requested position.
var ErrChunkNotPresent = errors.New("region: chunk not present")

// ErrOffsetTooLarge is returned by WriteChunk when the allocated
// sector offset would overflow the 24-bit location-table field.
var ErrOffsetTooLarge = errors.New("region: sector offset too large for location table")

// ErrPositionMismatch is returned when a decoded chunk's Level.xPos/
// zPos doesn't match the position it was read at.
var ErrPositionMismatch = errors.New("region: chunk position does not match requested position")

// location is one entry of the location table: a sector offset and a
// sector count. The zero value means "not present".
type location struct {
	offset uint32 // sector index, fits in 24 bits
	count  uint8
}

func (l location) present() bool { return l.offset != 0 || l.count != 0 }

// File is one open region file, caching its two header tables and a
// free-sector bitmap in memory.
type File struct {
	f *os.File

	locations  [entriesPerTable]location
	timestamps [entriesPerTable]uint32

	// free[i] is true when sector i is unallocated. Indices 0 and 1
	// (the header sectors) are always false.
	free []bool
}

// Open reads an existing region file's header sectors and rebuilds
// the free-sector bitmap from the location table.
func Open(f *os.File) (*File, error) {
	rf := &File{f: f}

	header := make([]byte, locationTableSize+timestampTableSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("region: read header: %w", err)
	}
	for i := 0; i < entriesPerTable; i++ {
		b := header[i*4 : i*4+4]
		rf.locations[i] = location{
			offset: uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]),
			count:  b[3],
		}
	}
	tsBase := locationTableSize
	for i := 0; i < entriesPerTable; i++ {
		b := header[tsBase+i*4 : tsBase+i*4+4]
		rf.timestamps[i] = binary.BigEndian.Uint32(b)
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("region: stat: %w", err)
	}
	numSectors := int(fi.Size() / sectorSize)
	rf.free = make([]bool, numSectors)
	for i := range rf.free {
		rf.free[i] = true
	}
	if len(rf.free) >= 1 {
		rf.free[0] = false
	}
	if len(rf.free) >= 2 {
		rf.free[1] = false
	}

	for _, loc := range rf.locations {
		if !loc.present() {
			continue
		}
		if err := rf.markRun(loc, false); err != nil {
			return nil, fmt.Errorf("region: corrupt location table: %w", err)
		}
	}

	return rf, nil
}

// Create initializes a brand-new, empty region file: two zeroed
// header sectors and nothing else.
func Create(f *os.File) (*File, error) {
	header := make([]byte, locationTableSize+timestampTableSize)
	if _, err := f.Write(header); err != nil {
		return nil, fmt.Errorf("region: write empty header: %w", err)
	}
	return &File{
		f:    f,
		free: []bool{false, false},
	}, nil
}

// markRun marks sectors [loc.offset, loc.offset+loc.count) as free or
// occupied, extending the free slice if the run reaches past its
// current end (Create starts with only the two header sectors). It returns
// an error if any sector in the run is already in the requested
// state when marking occupied, flagging overlapping allocations.
func (rf *File) markRun(loc location, toFree bool) error {
	end := int(loc.offset) + int(loc.count)
	if end > len(rf.free) {
		grown := make([]bool, end)
		copy(grown, rf.free)
		for i := len(rf.free); i < end; i++ {
			grown[i] = true
		}
		rf.free = grown
	}
	for i := int(loc.offset); i < end; i++ {
		if !toFree && !rf.free[i] {
			return fmt.Errorf("region: sector %d already allocated (overlapping runs)", i)
		}
		rf.free[i] = toFree
	}
	return nil
}

func index(cx, cz int32) int {
	return int(cx&31) + 32*int(cz&31)
}

// ReadChunk reads the raw, still-compressed payload and its
// compression tag at (cx, cz), along with the stored timestamp.
// ErrChunkNotPresent is returned if the slot is empty.
func (rf *File) ReadChunk(cx, cz int32) (payload []byte, kind CompressionType, timestamp uint32, err error) {
	idx := index(cx, cz)
	loc := rf.locations[idx]
	if !loc.present() {
		return nil, 0, 0, ErrChunkNotPresent
	}

	if _, err = rf.f.Seek(int64(loc.offset)*sectorSize, io.SeekStart); err != nil {
		return nil, 0, 0, fmt.Errorf("region: seek: %w", err)
	}
	var lengthBuf [4]byte
	if _, err = io.ReadFull(rf.f, lengthBuf[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("region: read length: %w", err)
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	if length < 1 {
		return nil, 0, 0, fmt.Errorf("region: stored length %d too small", length)
	}

	var kindBuf [1]byte
	if _, err = io.ReadFull(rf.f, kindBuf[:]); err != nil {
		return nil, 0, 0, fmt.Errorf("region: read compression byte: %w", err)
	}
	kind = CompressionType(kindBuf[0])

	payload = make([]byte, length-1)
	if _, err = io.ReadFull(rf.f, payload); err != nil {
		return nil, 0, 0, fmt.Errorf("region: read payload: %w", err)
	}

	return payload, kind, rf.timestamps[idx], nil
}

// WriteChunk stores a pre-compressed payload at (cx, cz). The caller
// is responsible for compressing via the package's compress
// helper; WriteChunk only handles allocation and the durability
// ordering described in the format's contract: the payload write is
// flushed to disk before the header write that makes it visible.
func (rf *File) WriteChunk(cx, cz int32, kind CompressionType, payload []byte, now time.Time) error {
	idx := index(cx, cz)

	frame := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(payload)+1))
	frame[4] = byte(kind)
	copy(frame[5:], payload)

	sectorsNeeded := (len(frame) + sectorSize - 1) / sectorSize

	old := rf.locations[idx]
	if old.present() {
		if err := rf.markRun(old, true); err != nil {
			return fmt.Errorf("region: free old allocation: %w", err)
		}
	}

	offset := rf.firstFit(sectorsNeeded)
	if offset+sectorsNeeded > len(rf.free) {
		offset = rf.appendSectors(sectorsNeeded)
	}

	newLoc := location{offset: uint32(offset), count: uint8(sectorsNeeded)}
	if newLoc.offset >= 1<<24 {
		return ErrOffsetTooLarge
	}
	if err := rf.markRun(newLoc, false); err != nil {
		return fmt.Errorf("region: allocate: %w", err)
	}

	padded := make([]byte, sectorsNeeded*sectorSize)
	copy(padded, frame)
	if _, err := rf.f.WriteAt(padded, int64(offset)*sectorSize); err != nil {
		return fmt.Errorf("region: write payload: %w", err)
	}
	if err := rf.f.Sync(); err != nil {
		return fmt.Errorf("region: sync payload: %w", err)
	}

	rf.locations[idx] = newLoc
	rf.timestamps[idx] = uint32(now.Unix())
	if err := rf.flushHeader(); err != nil {
		return fmt.Errorf("region: flush header: %w", err)
	}
	return rf.f.Sync()
}

// firstFit scans the free-sector bitmap for the first contiguous run
// of n free sectors, returning an offset past the end of the bitmap
// if none is found.
func (rf *File) firstFit(n int) int {
	run := 0
	for i, free := range rf.free {
		if free {
			run++
			if run == n {
				return i - n + 1
			}
		} else {
			run = 0
		}
	}
	return len(rf.free)
}

// appendSectors grows the bitmap by n free sectors at the end and
// returns the offset of the first one; the caller marks them occupied.
func (rf *File) appendSectors(n int) int {
	offset := len(rf.free)
	for i := 0; i < n; i++ {
		rf.free = append(rf.free, true)
	}
	return offset
}

func (rf *File) flushHeader() error {
	header := make([]byte, locationTableSize+timestampTableSize)
	for i, loc := range rf.locations {
		b := header[i*4 : i*4+4]
		b[0] = byte(loc.offset >> 16)
		b[1] = byte(loc.offset >> 8)
		b[2] = byte(loc.offset)
		b[3] = loc.count
	}
	tsBase := locationTableSize
	for i, ts := range rf.timestamps {
		binary.BigEndian.PutUint32(header[tsBase+i*4:tsBase+i*4+4], ts)
	}
	_, err := rf.f.WriteAt(header, 0)
	return err
}

// Close flushes the header and closes the underlying file.
func (rf *File) Close() error {
	if err := rf.flushHeader(); err != nil {
		rf.f.Close()
		return err
	}
	return rf.f.Close()
}
