package tagread

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var exifHeader = []byte("Exif\x00\x00")

// exifSegment scans JPEG markers for the APP1 segment carrying the Exif
// payload, and returns the TIFF data after the header. Returns (nil, nil)
// when the stream is well formed but carries no such segment, and an error
// when the marker structure itself is broken.
func exifSegment(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("missing SOI marker")
	}
	i := 2
	for i+1 < len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("bad marker byte at offset %d", i)
		}
		marker := data[i+1]
		i += 2

		switch {
		case marker == 0xD9: // EOI, no scan data seen
			return nil, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue // standalone markers carry no length
		}

		if i+2 > len(data) {
			return nil, fmt.Errorf("truncated segment header")
		}
		segLen := int(binary.BigEndian.Uint16(data[i:i+2])) - 2
		if segLen < 0 || i+2+segLen > len(data) {
			return nil, fmt.Errorf("segment length out of bounds")
		}
		seg := data[i+2 : i+2+segLen]
		i += 2 + segLen

		if marker == 0xE1 && bytes.HasPrefix(seg, exifHeader) {
			return seg[len(exifHeader):], nil
		}
		if marker == 0xDA {
			// Start of scan; metadata segments only precede it.
			return nil, nil
		}
	}
	return nil, fmt.Errorf("truncated marker stream")
}

// exifChunk walks PNG chunks for an eXIf chunk, whose data is a raw TIFF
// block. Returns (nil, nil) for a valid PNG without one.
func exifChunk(data []byte) ([]byte, error) {
	sig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if !bytes.HasPrefix(data, sig) {
		return nil, fmt.Errorf("bad PNG signature")
	}
	i := len(sig)
	for i < len(data) {
		if i+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header")
		}
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		i += 8
		if length < 0 || i+length+4 > len(data) {
			return nil, fmt.Errorf("chunk %q length out of bounds", typ)
		}
		chunk := data[i : i+length]
		i += length + 4 // data + CRC

		switch typ {
		case "eXIf":
			return chunk, nil
		case "IEND":
			return nil, nil
		}
	}
	return nil, fmt.Errorf("missing IEND chunk")
}
