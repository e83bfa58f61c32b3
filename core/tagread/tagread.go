// Package tagread reads raw metadata tags from a single file. Each supported
// container has its own path to the embedded TIFF-style directory; decoding
// of the directory itself is shared and built on goexif.
package tagread

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/alxgraphy/photostat/core"
)

func init() {
	// Vendor maker-note parsers so Canon/Nikon specific fields decode.
	exif.RegisterParsers(mknote.All...)
}

// Read extracts the raw tag directory from data, using the strategy for the
// sniffed format. Failures wrap core.ErrCorruptMetadata or core.ErrNoMetadata.
func Read(data []byte, format core.Format) (core.RawTags, error) {
	switch format {
	case core.FmtJPEG:
		return readJPEG(data)
	case core.FmtPNG:
		return readPNG(data)
	case core.FmtTIFF, core.FmtCR2, core.FmtNEF, core.FmtARW:
		return readTIFF(data)
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, format)
}

// readJPEG locates the Exif APP1 payload and decodes it. A structurally
// sound JPEG without that payload is the metadata-stripped case.
func readJPEG(data []byte) (core.RawTags, error) {
	payload, err := exifSegment(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptMetadata, err)
	}
	if payload == nil {
		return nil, core.ErrNoMetadata
	}
	return decodeDirectory(payload)
}

// readPNG walks the chunk stream looking for an eXIf chunk, which carries a
// TIFF-formatted payload.
func readPNG(data []byte) (core.RawTags, error) {
	payload, err := exifChunk(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptMetadata, err)
	}
	if payload == nil {
		return nil, core.ErrNoMetadata
	}
	return decodeDirectory(payload)
}

// readTIFF handles TIFF and the TIFF-compatible RAW headers (CR2/NEF/ARW):
// the file head is itself the directory, and goexif walks the IFD chain
// without touching the vendor pixel payload. A directory that decodes to
// zero tags is treated as stripped, not corrupt; a bare IFD skeleton is
// still a valid file.
func readTIFF(data []byte) (core.RawTags, error) {
	tags, err := decodeDirectory(data)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, core.ErrNoMetadata
	}
	return tags, nil
}

// decodeDirectory parses a TIFF-formatted metadata block into RawTags.
// goexif's walk covers every tag it can name, across the main directory and
// its Exif/GPS sub-directories; a second pass over the raw directory tree
// keeps the tag IDs it skips, bucketed under hex identifiers.
func decodeDirectory(payload []byte) (core.RawTags, error) {
	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptMetadata, err)
	}

	c := collector{tags: make(core.RawTags), seen: make(map[seenKey]bool)}
	x.Walk(c)
	c.keepUnnamed(payload)
	return c.tags, nil
}

// Sub-IFD pointer tags of the main directory chain.
const (
	tagExifIFD    uint16 = 0x8769
	tagGPSInfoIFD uint16 = 0x8825
	tagInteropIFD uint16 = 0xA005
)

// tagScope is the namespace a tag ID is unique within. The main directory
// chain and the Exif sub-IFD share one namespace; the GPS and interop
// sub-directories each reuse low IDs for their own fields.
type tagScope uint8

const (
	scopeTIFF tagScope = iota
	scopeGPS
	scopeInterop
)

// scopeOf classifies a walked field by its naming scheme; the walk itself
// does not say which directory a tag came from.
func scopeOf(name exif.FieldName) tagScope {
	switch {
	case strings.HasPrefix(string(name), "GPS"):
		return scopeGPS
	case strings.HasPrefix(string(name), "Interop"):
		return scopeInterop
	}
	return scopeTIFF
}

type seenKey struct {
	scope tagScope
	id    uint16
}

// collector converts each decoded tag into the RawValue sum type. Tags whose
// IDs goexif cannot name still arrive with a reader-assigned identifier and
// are kept in the map untouched.
type collector struct {
	tags core.RawTags
	seen map[seenKey]bool
}

func (c collector) Walk(name exif.FieldName, t *tiff.Tag) error {
	c.tags[string(name)] = rawValue(t)
	c.seen[seenKey{scopeOf(name), t.Id}] = true
	return nil
}

// keepUnnamed re-walks the raw directory tree, following sub-IFD pointers,
// and buckets every tag the named walk skipped. Tag IDs are only unique
// within a directory, so both the skip check and the bucket key carry the
// directory.
func (c collector) keepUnnamed(payload []byte) {
	tif, err := tiff.Decode(bytes.NewReader(payload))
	if err != nil {
		return
	}
	for i, dir := range tif.Dirs {
		prefix := ""
		if i > 0 {
			prefix = fmt.Sprintf("IFD%d.", i)
		}
		c.keepDir(payload, tif.Order, dir, scopeTIFF, prefix)
	}
}

func (c collector) keepDir(payload []byte, order binary.ByteOrder, dir *tiff.Dir, scope tagScope, prefix string) {
	for _, t := range dir.Tags {
		switch t.Id {
		case tagExifIFD:
			c.keepSubDir(payload, order, t, scopeTIFF, "Exif.")
			continue
		case tagGPSInfoIFD:
			c.keepSubDir(payload, order, t, scopeGPS, "GPS.")
			continue
		case tagInteropIFD:
			c.keepSubDir(payload, order, t, scopeInterop, "Interop.")
			continue
		}
		if !c.seen[seenKey{scope, t.Id}] {
			c.tags[fmt.Sprintf("%sTag0x%04X", prefix, t.Id)] = rawValue(t)
		}
	}
}

func (c collector) keepSubDir(payload []byte, order binary.ByteOrder, ptr *tiff.Tag, scope tagScope, prefix string) {
	offset, err := ptr.Int64(0)
	if err != nil {
		return
	}
	r := bytes.NewReader(payload)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return
	}
	sub, _, err := tiff.DecodeDir(r, order)
	if err != nil {
		return
	}
	c.keepDir(payload, order, sub, scope, prefix)
}

func rawValue(t *tiff.Tag) core.RawValue {
	n := int(t.Count)
	switch t.Format() {
	case tiff.IntVal:
		v := core.RawValue{Kind: core.RawInt}
		for i := 0; i < n; i++ {
			iv, err := t.Int64(i)
			if err != nil {
				break
			}
			v.Ints = append(v.Ints, iv)
		}
		return v
	case tiff.RatVal:
		v := core.RawValue{Kind: core.RawRational}
		for i := 0; i < n; i++ {
			num, den, err := t.Rat2(i)
			if err != nil {
				break
			}
			v.Rats = append(v.Rats, core.Rational{Num: num, Den: den})
		}
		return v
	case tiff.FloatVal:
		v := core.RawValue{Kind: core.RawFloat}
		for i := 0; i < n; i++ {
			fv, err := t.Float(i)
			if err != nil {
				break
			}
			v.Flts = append(v.Flts, fv)
		}
		return v
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return core.RawValue{Kind: core.RawBytes, Bytes: t.Val}
		}
		return core.RawValue{Kind: core.RawString, Str: s}
	}
	return core.RawValue{Kind: core.RawBytes, Bytes: t.Val}
}
