// Package testimg builds minimal synthetic image files with embedded
// metadata directories for tests. Nothing here produces a renderable
// picture; the fixtures carry just enough container structure for the
// extraction pipeline and the standard header decoders.
package testimg

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/alxgraphy/photostat/core"
)

// TIFF data types used by the builder.
const (
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeSRational uint16 = 10
)

// Standard tag IDs used across the tests.
const (
	TagImageWidth       uint16 = 0x0100
	TagImageLength      uint16 = 0x0101
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagDateTime         uint16 = 0x0132
	TagExposureTime     uint16 = 0x829A
	TagFNumber          uint16 = 0x829D
	TagISO              uint16 = 0x8827
	TagDateTimeOriginal uint16 = 0x9003
	TagShutterApex      uint16 = 0x9201
	TagApertureApex     uint16 = 0x9202
	TagFlash            uint16 = 0x9209
	TagFocalLength      uint16 = 0x920A
	TagPixelX           uint16 = 0xA002
	TagPixelY           uint16 = 0xA003
	TagLensModel        uint16 = 0xA434

	tagGPSPointer uint16 = 0x8825

	TagGPSLatitudeRef  uint16 = 0x0001
	TagGPSLatitude     uint16 = 0x0002
	TagGPSLongitudeRef uint16 = 0x0003
	TagGPSLongitude    uint16 = 0x0004
)

// Entry is one directory entry to encode.
type Entry struct {
	ID    uint16
	Type  uint16
	Value any
}

// Ascii builds an ASCII entry (NUL terminator appended on encode).
func Ascii(id uint16, s string) Entry { return Entry{ID: id, Type: TypeASCII, Value: s} }

// Short builds a SHORT entry.
func Short(id uint16, v ...uint16) Entry { return Entry{ID: id, Type: TypeShort, Value: v} }

// Long builds a LONG entry.
func Long(id uint16, v ...uint32) Entry { return Entry{ID: id, Type: TypeLong, Value: v} }

// Rat builds a RATIONAL entry from alternating numerator/denominator pairs.
func Rat(id uint16, pairs ...int64) Entry {
	return Entry{ID: id, Type: TypeRational, Value: toRats(pairs)}
}

// SRat builds a signed RATIONAL entry.
func SRat(id uint16, pairs ...int64) Entry {
	return Entry{ID: id, Type: TypeSRational, Value: toRats(pairs)}
}

func toRats(pairs []int64) []core.Rational {
	rats := make([]core.Rational, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rats = append(rats, core.Rational{Num: pairs[i], Den: pairs[i+1]})
	}
	return rats
}

// TIFF builds a little-endian TIFF block: IFD0 with the main entries plus,
// when gps is non-empty, a GPS sub-directory reached through the standard
// pointer tag. The result is both a standalone .tif file and a valid Exif
// payload for the JPEG and PNG wrappers.
func TIFF(main, gps []Entry) []byte {
	pre := []byte{'I', 'I', 0x2A, 0x00, 8, 0, 0, 0}
	return build(pre, main, gps)
}

// CR2 builds a Canon RAW header: TIFF magic, the "CR" marker at offset 8,
// and IFD0 at offset 16.
func CR2(main, gps []Entry) []byte {
	pre := []byte{
		'I', 'I', 0x2A, 0x00,
		16, 0, 0, 0,
		'C', 'R', 0x02, 0x00,
		0, 0, 0, 0,
	}
	return build(pre, main, gps)
}

// TruncatedTIFF returns a TIFF header whose directory offset points past
// the end of the file.
func TruncatedTIFF() []byte {
	return []byte{'I', 'I', 0x2A, 0x00, 0x40, 0, 0, 0, 0xDE, 0xAD}
}

func build(pre []byte, main, gps []Entry) []byte {
	entries := append([]Entry(nil), main...)
	var gpsOff int
	if len(gps) > 0 {
		n := len(entries) + 1 // plus the pointer entry
		gpsOff = len(pre) + 2 + 12*n + 4 + overflowBytes(entries)
		entries = append(entries, Long(tagGPSPointer, uint32(gpsOff)))
	}

	out := append([]byte(nil), pre...)
	out = appendIFD(out, entries)
	if len(gps) > 0 {
		if len(out) != gpsOff {
			panic("testimg: GPS directory offset miscomputed")
		}
		out = appendIFD(out, gps)
	}
	return out
}

// appendIFD serializes one directory at the current end of out, entries
// sorted by tag ID, oversized values in an overflow area directly after
// the directory.
func appendIFD(out []byte, entries []Entry) []byte {
	entries = append([]Entry(nil), entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	ifdOffset := len(out)
	valOff := ifdOffset + 2 + 12*len(entries) + 4

	var buf bytes.Buffer
	var overflow []byte
	le := binary.LittleEndian

	binary.Write(&buf, le, uint16(len(entries)))
	for _, e := range entries {
		data, count := encodeValue(e)
		binary.Write(&buf, le, e.ID)
		binary.Write(&buf, le, e.Type)
		binary.Write(&buf, le, count)
		if len(data) <= 4 {
			var cell [4]byte
			copy(cell[:], data)
			buf.Write(cell[:])
		} else {
			binary.Write(&buf, le, uint32(valOff+len(overflow)))
			overflow = append(overflow, data...)
			if len(overflow)%2 == 1 {
				overflow = append(overflow, 0)
			}
		}
	}
	buf.Write([]byte{0, 0, 0, 0}) // no next directory

	out = append(out, buf.Bytes()...)
	return append(out, overflow...)
}

func encodeValue(e Entry) (data []byte, count uint32) {
	le := binary.LittleEndian
	switch v := e.Value.(type) {
	case string:
		data = append([]byte(v), 0)
		return data, uint32(len(data))
	case []uint16:
		data = make([]byte, 2*len(v))
		for i, x := range v {
			le.PutUint16(data[2*i:], x)
		}
		return data, uint32(len(v))
	case []uint32:
		data = make([]byte, 4*len(v))
		for i, x := range v {
			le.PutUint32(data[4*i:], x)
		}
		return data, uint32(len(v))
	case []core.Rational:
		data = make([]byte, 8*len(v))
		for i, r := range v {
			le.PutUint32(data[8*i:], uint32(r.Num))
			le.PutUint32(data[8*i+4:], uint32(r.Den))
		}
		return data, uint32(len(v))
	}
	panic("testimg: unsupported entry value")
}

func overflowBytes(entries []Entry) int {
	total := 0
	for _, e := range entries {
		data, _ := encodeValue(e)
		if len(data) > 4 {
			total += len(data)
			if total%2 == 1 {
				total++
			}
		}
	}
	return total
}

// ──────────────────────────────────────────────────────────────────────────────
// Containers
// ──────────────────────────────────────────────────────────────────────────────

// JPEG wraps a TIFF payload in a minimal JPEG stream: SOI, the Exif APP1
// segment (skipped when payload is nil), a single-component frame header
// carrying the dimensions, a scan header, EOI.
func JPEG(payload []byte, width, height int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	if payload != nil {
		seg := append([]byte("Exif\x00\x00"), payload...)
		b.Write([]byte{0xFF, 0xE1})
		binary.Write(&b, binary.BigEndian, uint16(len(seg)+2))
		b.Write(seg)
	}
	b.Write([]byte{
		0xFF, 0xC0, 0x00, 0x0B, 0x08,
		byte(height >> 8), byte(height),
		byte(width >> 8), byte(width),
		0x01, 0x01, 0x11, 0x00,
	})
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// PNG builds a minimal PNG: signature, IHDR with the dimensions, an
// optional eXIf chunk carrying a TIFF payload, IEND.
func PNG(payload []byte, width, height int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor
	writeChunk(&b, "IHDR", ihdr)

	if payload != nil {
		writeChunk(&b, "eXIf", payload)
	}
	writeChunk(&b, "IEND", nil)
	return b.Bytes()
}

func writeChunk(b *bytes.Buffer, typ string, data []byte) {
	binary.Write(b, binary.BigEndian, uint32(len(data)))
	b.WriteString(typ)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	binary.Write(b, binary.BigEndian, crc.Sum32())
}
