package anvil

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"

	"github.com/nickheyer/mcanvil/pkg/world/nbt"
)

// Minimal hand-rolled NBT encoder used only by tests to build fixtures.
// The production library never writes NBT (writing is out of scope); this
// exists purely so tests can construct byte-exact region/chunk frames to
// feed back into the decoder under test.

func tagHeader(tagType byte, name string) []byte {
	buf := make([]byte, 1+2+len(name))
	buf[0] = tagType
	binary.BigEndian.PutUint16(buf[1:3], uint16(len(name)))
	copy(buf[3:], name)
	return buf
}

func stringPayload(s string) []byte {
	buf := make([]byte, 2+len(s))
	binary.BigEndian.PutUint16(buf[0:2], uint16(len(s)))
	copy(buf[2:], s)
	return buf
}

func byteTag(name string, v byte) []byte {
	return append(tagHeader(nbt.TagByte, name), v)
}

func intTag(name string, v int32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(v))
	return append(tagHeader(nbt.TagInt, name), buf...)
}

func stringTag(name, s string) []byte {
	return append(tagHeader(nbt.TagString, name), stringPayload(s)...)
}

func longArrayTag(name string, vals []int64) []byte {
	out := tagHeader(nbt.TagLongArray, name)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(vals)))
	out = append(out, lenBuf...)
	for _, v := range vals {
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v))
		out = append(out, b...)
	}
	return out
}

// listOfCompoundsTag builds a TagList of TagCompound, where each element
// in elements is the already-assembled inner-bytes-plus-TagEnd payload of
// one compound (no header, lists don't name their elements).
func listOfCompoundsTag(name string, elements [][]byte) []byte {
	out := tagHeader(nbt.TagList, name)
	out = append(out, nbt.TagCompound)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(elements)))
	out = append(out, lenBuf...)
	for _, e := range elements {
		out = append(out, e...)
	}
	return out
}

// compoundPayload wraps inner tag bytes with a trailing TagEnd, i.e. the
// *payload* of a compound tag (used both for named compound tags and for
// list-of-compound elements, which carry no header of their own).
func compoundPayload(innerTags ...[]byte) []byte {
	var buf bytes.Buffer
	for _, t := range innerTags {
		buf.Write(t)
	}
	buf.WriteByte(nbt.TagEnd)
	return buf.Bytes()
}

func compoundTag(name string, innerTags ...[]byte) []byte {
	return append(tagHeader(nbt.TagCompound, name), compoundPayload(innerTags...)...)
}

// rootDocument wraps a root compound's inner tags into a full NBT
// document: an unnamed (empty-name) root compound tag, exactly as region
// files store chunk NBT.
func rootDocument(innerTags ...[]byte) []byte {
	return compoundTag("", innerTags...)
}

// buildChunkFrame zlib-compresses nbtDoc when tag is compressionZlib and
// embeds it unchanged for any other tag (so callers can pass a raw
// pre-built payload for malformed-input tests), and returns a
// sector-padded chunk frame ready to embed in a region file.
func buildChunkFrame(tag byte, nbtDoc []byte) []byte {
	var compressed []byte
	switch tag {
	case compressionZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		w.Write(nbtDoc)
		w.Close()
		compressed = buf.Bytes()
	case compressionNone:
		compressed = nbtDoc
	default:
		compressed = nbtDoc
	}

	payloadLen := len(compressed) + 1
	frame := make([]byte, 5+len(compressed))
	binary.BigEndian.PutUint32(frame[0:4], uint32(payloadLen))
	frame[4] = tag
	copy(frame[5:], compressed)

	padded := len(frame)
	if rem := padded % sectorSize; rem != 0 {
		padded += sectorSize - rem
	}
	out := make([]byte, padded)
	copy(out, frame)
	return out
}

// buildRegion assembles a full region file from a set of local (x,z) ->
// pre-built, sector-padded chunk frames, plus optional timestamps.
// Unlisted coordinates are left as empty (ungenerated) slots.
func buildRegion(frames map[[2]int][]byte, timestamps map[[2]int]int32) []byte {
	body := make([]byte, 0, sectorSize*4)
	locations := make([]byte, headerSize/2)
	tsTable := make([]byte, headerSize/2)

	nextSector := uint32(2) // sectors 0-1 are the header itself
	for x := 0; x < regionDim; x++ {
		for z := 0; z < regionDim; z++ {
			frame, ok := frames[[2]int{x, z}]
			if !ok {
				continue
			}
			sectors := uint32(len(frame) / sectorSize)
			word := (nextSector << 8) | (sectors & 0xFF)
			off := index(x, z) * 4
			binary.BigEndian.PutUint32(locations[off:off+4], word)
			body = append(body, frame...)
			nextSector += sectors
		}
	}
	for coord, ts := range timestamps {
		off := index(coord[0], coord[1]) * 4
		binary.BigEndian.PutUint32(tsTable[off:off+4], uint32(ts))
	}

	out := make([]byte, 0, headerSize+len(body))
	out = append(out, locations...)
	out = append(out, tsTable...)
	out = append(out, body...)
	return out
}
