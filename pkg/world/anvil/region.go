package anvil

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	regionDim  = 32   // chunks per region edge
	sectorSize = 4096 // bytes per sector
	headerSize = 8192 // location table + timestamp table
)

// LocationEntry is one row of the region file's location table: where a
// chunk's frame lives, measured in 4096-byte sectors.
type LocationEntry struct {
	SectorOffset uint32
	SectorCount  uint8
}

// IsEmpty reports whether this entry denotes an ungenerated chunk.
func (e LocationEntry) IsEmpty() bool {
	return e.SectorOffset == 0 && e.SectorCount == 0
}

func (e LocationEntry) byteOffset() int64 {
	return int64(e.SectorOffset) * sectorSize
}

func (e LocationEntry) byteLength() int {
	return int(e.SectorCount) * sectorSize
}

// index maps a chunk's local (x,z) within its region to its row in both
// header tables. (x,z) must be in [0,31]^2; out-of-range coordinates are
// a programmer error and are not validated here.
func index(x, z int) int {
	return z*regionDim + x
}

// Region is a read-only handle on one Anvil region file: the two 4 KiB
// header tables plus a random-access byte source for its chunk frames.
// It is backed by io.ReaderAt rather than a seekable cursor: ReadAt calls
// need no shared seek position, so a Region needs no mutex to support
// concurrent GetChunk calls.
type Region struct {
	src        io.ReaderAt
	locations  [1024]LocationEntry
	timestamps [1024]int32
}

// Open parses the 8192-byte header of src and returns a Region ready for
// chunk lookups. src must contain a complete Anvil region file.
func Open(src io.ReaderAt) (*Region, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(io.NewSectionReader(src, 0, headerSize), header); err != nil {
		return nil, errIO(fmt.Errorf("reading region header: %w", err))
	}

	r := &Region{src: src}
	for i := 0; i < 1024; i++ {
		off := i * 4
		word := binary.BigEndian.Uint32(header[off : off+4])
		r.locations[i] = LocationEntry{
			SectorOffset: word >> 8,
			SectorCount:  byte(word),
		}
	}
	for i := 0; i < 1024; i++ {
		off := 4096 + i*4
		r.timestamps[i] = int32(binary.BigEndian.Uint32(header[off : off+4]))
	}
	return r, nil
}

// Locate returns the location table entry for local chunk coordinates
// (x,z) in [0,31]^2.
func (r *Region) Locate(x, z int) LocationEntry {
	return r.locations[index(x, z)]
}

// GetTimestamp returns the stored last-update time for (x,z). ok is false
// only when the coordinates are out of range; a stored 0 is a valid
// "never generated" marker and is returned as (0, true).
func (r *Region) GetTimestamp(x, z int) (ts int32, ok bool) {
	if x < 0 || x >= regionDim || z < 0 || z >= regionDim {
		return 0, false
	}
	return r.timestamps[index(x, z)], true
}

// GetChunk reads, decompresses, and parses the chunk at local coordinates
// (x,z). It returns ErrChunkDoesNotExist (via errors.Is) if the slot is
// unallocated.
func (r *Region) GetChunk(x, z int) (*Chunk, error) {
	entry := r.Locate(x, z)
	if entry.IsEmpty() {
		return nil, ErrChunkDoesNotExist
	}

	frame := make([]byte, entry.byteLength())
	if _, err := io.ReadFull(io.NewSectionReader(r.src, entry.byteOffset(), int64(entry.byteLength())), frame); err != nil {
		return nil, errIO(fmt.Errorf("reading chunk frame at (%d,%d): %w", x, z, err))
	}

	nbtBytes, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}

	return parseChunk(nbtBytes)
}
