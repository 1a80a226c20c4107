package anvil

import (
	"iter"
	"sort"

	"github.com/nickheyer/mcanvil/pkg/world/nbt"
)

const (
	sectionEdge   = 16
	sectionVolume = sectionEdge * sectionEdge * sectionEdge // 4096
)

// Property is one key/value pair from a palette entry's Properties
// compound. Value holds whatever primitive payload the NBT tag carried
// (almost always a string in vanilla data, but the format does not
// require it).
type Property struct {
	Key   string
	Value any
}

// BlockState is a namespaced block id plus its properties, borrowed from
// a palette entry. Two BlockStates are equal when their Name and
// Properties are equal.
type BlockState struct {
	Name       string
	Properties []Property
}

// Equal reports structural equality of name and properties, per the
// equality contract every palette lookup must satisfy.
func (b BlockState) Equal(other BlockState) bool {
	if b.Name != other.Name || len(b.Properties) != len(other.Properties) {
		return false
	}
	for i := range b.Properties {
		if b.Properties[i] != other.Properties[i] {
			return false
		}
	}
	return true
}

// SectionBlocks is the decoded palette-indexed block array of one
// section: a borrowed palette plus a fully materialized, validated index
// for every one of the 4096 positions. Because indices are validated at
// construction, no further access ever fails. Raw block iteration does
// not return errors.
type SectionBlocks struct {
	Palette []BlockState
	indices []int // always length sectionVolume
}

// newSectionBlocks decodes a "block_states" compound into palette and
// indices. palette defaults to empty when absent, and an empty palette is
// MalformedChunk whether or not data is present; data defaults to empty,
// in which case every position resolves to palette[0] regardless of
// palette length.
func newSectionBlocks(compound nbt.Compound) (SectionBlocks, error) {
	palette := decodePalette(compound)
	rawData, _ := compound.GetLongArray("data")

	indices := make([]int, sectionVolume)

	if len(rawData) == 0 {
		if len(palette) == 0 {
			return SectionBlocks{}, errMalformedChunk("empty palette with no packed data")
		}
		// indices already all zero: every position is palette[0].
		return SectionBlocks{Palette: palette, indices: indices}, nil
	}

	if len(palette) == 0 {
		return SectionBlocks{}, errMalformedChunk("empty palette with non-empty packed data")
	}

	bpb := bitsPerBlock(len(palette))
	for i := range indices {
		idx := int(unpackAt(rawData, i, bpb))
		if idx < 0 || idx >= len(palette) {
			return SectionBlocks{}, errMalformedChunk("palette index %d out of range (palette has %d entries)", idx, len(palette))
		}
		indices[i] = idx
	}
	return SectionBlocks{Palette: palette, indices: indices}, nil
}

// Len is always sectionVolume (4096); stable regardless of how much of
// the iterator has been consumed, to support buffer pre-allocation.
func (sb SectionBlocks) Len() int {
	return sectionVolume
}

// BlockAt returns the block at canonical linear index i (x = i%16,
// z = (i/16)%16, y = i/256).
func (sb SectionBlocks) BlockAt(i int) *BlockState {
	return &sb.Palette[sb.indices[i]]
}

// GetBlock is the coordinate-based equivalent of BlockAt, using the same
// linear-index formula so it is guaranteed to agree with iteration.
func (sb SectionBlocks) GetBlock(x, y, z int) *BlockState {
	return sb.BlockAt((y*sectionEdge+z)*sectionEdge + x)
}

// All iterates all 4096 blocks in canonical linear order.
func (sb SectionBlocks) All() iter.Seq2[int, *BlockState] {
	return func(yield func(int, *BlockState) bool) {
		for i := 0; i < sectionVolume; i++ {
			if !yield(i, sb.BlockAt(i)) {
				return
			}
		}
	}
}

// WithCoordinates iterates all 4096 blocks paired with their (x,y,z).
func (sb SectionBlocks) WithCoordinates() iter.Seq2[[3]int, *BlockState] {
	return func(yield func([3]int, *BlockState) bool) {
		for i := 0; i < sectionVolume; i++ {
			coord := [3]int{i % sectionEdge, i / 256, (i / sectionEdge) % sectionEdge}
			if !yield(coord, sb.BlockAt(i)) {
				return
			}
		}
	}
}

// ChunkSection is one entry of a chunk's "sections" list, addressed by
// list position rather than Y coordinate.
type ChunkSection struct {
	Y      int8
	Blocks SectionBlocks
}

// newChunkSection validates and decodes one entry of the "sections" NBT
// list. Y is required; block_states is required (its absence is
// EmptySection, not MalformedChunk, since a section can legitimately
// exist without block data while other section fields are populated).
func newChunkSection(compound nbt.Compound) (*ChunkSection, error) {
	y, ok := compound.GetByte("Y")
	if !ok {
		return nil, errMalformedChunk("section missing required Y")
	}

	blockStates, ok := compound.GetCompound("block_states")
	if !ok {
		return nil, errEmptySection("section missing block_states")
	}

	blocks, err := newSectionBlocks(blockStates)
	if err != nil {
		return nil, err
	}

	return &ChunkSection{Y: int8(y), Blocks: blocks}, nil
}

// decodePalette reads the optional "palette" list of a block_states
// compound. A missing palette decodes to an empty slice, which
// newSectionBlocks rejects as MalformedChunk.
func decodePalette(compound nbt.Compound) []BlockState {
	list, ok := compound.GetList("palette")
	if !ok {
		return nil
	}

	palette := make([]BlockState, 0, len(list.Values))
	for _, v := range list.Values {
		entry, ok := v.(nbt.Compound)
		if !ok {
			continue
		}
		name, _ := entry.GetString("Name")
		var props []Property
		if propsCompound, ok := entry.GetCompound("Properties"); ok {
			props = make([]Property, 0, len(propsCompound))
			for key, tag := range propsCompound {
				props = append(props, Property{Key: key, Value: tag.Value})
			}
			// Compound is a Go map; range order is randomized per
			// iteration. Sort so two decodes of identical Properties
			// data produce identical, comparable Property slices.
			sort.Slice(props, func(i, j int) bool { return props[i].Key < props[j].Key })
		}
		palette = append(palette, BlockState{Name: name, Properties: props})
	}
	return palette
}
