package anvil

import "iter"

const (
	heightmapEdge  = 16
	heightmapCells = heightmapEdge * heightmapEdge // 256
)

// HeightmapKind names one of the four heightmaps a chunk may carry.
type HeightmapKind string

const (
	MotionBlocking          HeightmapKind = "MOTION_BLOCKING"
	MotionBlockingNoLeaves  HeightmapKind = "MOTION_BLOCKING_NO_LEAVES"
	OceanFloor              HeightmapKind = "OCEAN_FLOOR"
	WorldSurface            HeightmapKind = "WORLD_SURFACE"
)

// Heightmap is a borrowed, fixed-width (9 bits/value) packed array of 256
// height samples in row-major (z*16+x) order. Values are unsigned
// "distance from world floor"; subtract 64 for the Java-Edition
// Y-coordinate.
type Heightmap struct {
	data []int64
}

// Len is always heightmapCells (256).
func (h Heightmap) Len() int {
	return heightmapCells
}

// GetAt returns the height sample at (x,z), linear index i = z*16+x.
func (h Heightmap) GetAt(x, z int) uint16 {
	i := z*heightmapEdge + x
	return uint16(unpackAt(h.data, i, heightmapBitsPerValue))
}

// All iterates all 256 heights in row-major order.
func (h Heightmap) All() iter.Seq2[int, uint16] {
	return func(yield func(int, uint16) bool) {
		for i := 0; i < heightmapCells; i++ {
			if !yield(i, uint16(unpackAt(h.data, i, heightmapBitsPerValue))) {
				return
			}
		}
	}
}

// WithCoordinates iterates all 256 heights paired with their (x,z).
func (h Heightmap) WithCoordinates() iter.Seq2[[2]int, uint16] {
	return func(yield func([2]int, uint16) bool) {
		for i := 0; i < heightmapCells; i++ {
			coord := [2]int{i % heightmapEdge, i / heightmapEdge}
			if !yield(coord, uint16(unpackAt(h.data, i, heightmapBitsPerValue))) {
				return
			}
		}
	}
}
