package anvil

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"github.com/nickheyer/mcanvil/pkg/world/nbt"
)

// Compression tags recognized in a chunk frame header.
const (
	compressionGzip   = 1
	compressionZlib   = 2
	compressionNone   = 3
	compressionLZ4    = 4
	compressionCustom = 127
)

// decodeFrame reads one chunk frame: a 4-byte big-endian payload length N
// (including the 1-byte compression tag), the tag itself, and N-1 bytes
// of compressed NBT. frame is the full sector-aligned span read from the
// region file; trailing zero padding is ignored.
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < 5 {
		return nil, errMalformedChunk("frame header truncated: %d bytes", len(frame))
	}

	n := binary.BigEndian.Uint32(frame[0:4])
	if n == 0 {
		return nil, errMalformedChunk("zero-length frame")
	}
	tag := frame[4]

	payloadEnd := 4 + int(n)
	if payloadEnd > len(frame) {
		return nil, errMalformedChunk("frame payload (%d bytes) exceeds sector span (%d bytes)", n, len(frame))
	}
	compressed := frame[5:payloadEnd]

	switch tag {
	case compressionGzip:
		gr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, errIO(fmt.Errorf("opening gzip stream: %w", err))
		}
		defer gr.Close()
		data, err := io.ReadAll(gr)
		if err != nil {
			return nil, errIO(fmt.Errorf("reading gzip stream: %w", err))
		}
		return data, nil

	case compressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, errIO(fmt.Errorf("opening zlib stream: %w", err))
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, errIO(fmt.Errorf("reading zlib stream: %w", err))
		}
		return data, nil

	case compressionNone:
		data := make([]byte, len(compressed))
		copy(data, compressed)
		return data, nil

	case compressionLZ4:
		lr := lz4.NewReader(bytes.NewReader(compressed))
		data, err := io.ReadAll(lr)
		if err != nil {
			return nil, errIO(fmt.Errorf("reading lz4 stream: %w", err))
		}
		return data, nil

	case compressionCustom:
		return nil, errUnknownCompression(tag)

	default:
		return nil, errUnknownCompression(tag)
	}
}

// ChunkStatus is the total-ordered generation-pipeline stage a chunk has
// reached. Values compare numerically in pipeline order.
type ChunkStatus int

const (
	StatusEmpty ChunkStatus = iota
	StatusStructureStarts
	StatusStructureReferences
	StatusBiomes
	StatusNoise
	StatusSurface
	StatusCarvers
	StatusLiquidCarvers
	StatusFeatures
	StatusLight
	StatusInitializeLight
	StatusSpawn
	StatusFull
)

var statusNames = map[string]ChunkStatus{
	"empty":                  StatusEmpty,
	"structure_starts":       StatusStructureStarts,
	"structure_references":   StatusStructureReferences,
	"biomes":                 StatusBiomes,
	"noise":                  StatusNoise,
	"surface":                StatusSurface,
	"carvers":                StatusCarvers,
	"liquid_carvers":         StatusLiquidCarvers,
	"features":               StatusFeatures,
	"light":                  StatusLight,
	"initialize_light":       StatusInitializeLight,
	"spawn":                  StatusSpawn,
	"full":                   StatusFull,
}

func (s ChunkStatus) String() string {
	for name, v := range statusNames {
		if v == s {
			return name
		}
	}
	return "unknown"
}

// parseChunkStatus decodes a status string, stripping an optional
// "minecraft:" namespace prefix. Unknown values produce a MalformedChunk
// error carrying the offending string.
func parseChunkStatus(raw string) (ChunkStatus, error) {
	name := strings.TrimPrefix(raw, "minecraft:")
	status, ok := statusNames[name]
	if !ok {
		return 0, errMalformedChunk("unknown chunk status %q", raw)
	}
	return status, nil
}

// Chunk owns a fully decompressed NBT tree and the fields validated at
// construction time. Every view derived from it (ChunkSection,
// SectionBlocks, BlockState, Heightmap) borrows from this tree rather
// than copying it; none may outlive the Chunk.
type Chunk struct {
	nbtRoot    nbt.Compound
	Status     ChunkStatus
	Heightmaps nbt.Compound
}

func parseChunk(data []byte) (*Chunk, error) {
	root, err := nbt.ReadCompound(data)
	if err != nil {
		return nil, errNbt(err)
	}

	heightmaps, ok := root.GetCompound("Heightmaps")
	if !ok {
		return nil, errMalformedChunk("missing required Heightmaps compound")
	}

	statusStr, ok := root.GetString("Status")
	if !ok {
		return nil, errMalformedChunk("missing required Status string")
	}
	status, err := parseChunkStatus(statusStr)
	if err != nil {
		return nil, err
	}

	return &Chunk{
		nbtRoot:    root,
		Status:     status,
		Heightmaps: heightmaps,
	}, nil
}

// sectionsList returns the chunk's raw "sections" NBT list, or nil if
// absent (a chunk need not carry any generated sections yet).
func (c *Chunk) sectionsList() *nbt.List {
	list, ok := c.nbtRoot.GetList("sections")
	if !ok {
		return nil
	}
	return list
}

// SubchunkResult pairs a sections-list entry with its own decode outcome,
// so one malformed section doesn't prevent access to the others.
type SubchunkResult struct {
	Section *ChunkSection
	Err     error
}

// GetSubchunks decodes every entry of the sections list in array order.
// Each entry is independently validated: a bad section reports its own
// error in its own slot rather than failing the whole batch.
func (c *Chunk) GetSubchunks() []SubchunkResult {
	list := c.sectionsList()
	if list == nil {
		return nil
	}

	results := make([]SubchunkResult, len(list.Values))
	for i, v := range list.Values {
		compound, ok := v.(nbt.Compound)
		if !ok {
			results[i] = SubchunkResult{Err: errMalformedChunk("sections[%d] is not a compound", i)}
			continue
		}
		section, err := newChunkSection(compound)
		results[i] = SubchunkResult{Section: section, Err: err}
	}
	return results
}

// GetSubchunk returns the section at array index i of the sections list.
// i is a list position, not a Y coordinate. Out-of-range i is
// MissingSection.
func (c *Chunk) GetSubchunk(i int) (*ChunkSection, error) {
	list := c.sectionsList()
	if list == nil || i < 0 || i >= len(list.Values) {
		return nil, errMissingSection("index %d out of range", i)
	}
	compound, ok := list.Values[i].(nbt.Compound)
	if !ok {
		return nil, errMalformedChunk("sections[%d] is not a compound", i)
	}
	return newChunkSection(compound)
}

// GetHeightmap returns the named heightmap view, or ok=false if that key
// is absent from Heightmaps. It never returns an error.
func (c *Chunk) GetHeightmap(name HeightmapKind) (Heightmap, bool) {
	data, ok := c.Heightmaps.GetLongArray(string(name))
	if !ok {
		return Heightmap{}, false
	}
	return Heightmap{data: data}, true
}
