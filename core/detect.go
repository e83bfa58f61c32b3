package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dhowden/tag"
)

// Format enumerates every container the pipeline can read.
type Format string

const (
	FmtJPEG Format = "jpeg"
	FmtPNG  Format = "png"
	FmtTIFF Format = "tiff"
	FmtCR2  Format = "raw-cr2"
	FmtNEF  Format = "raw-nef"
	FmtARW  Format = "raw-arw"

	FmtUnknown Format = "unknown"
)

// IsRaw reports whether the format is a vendor RAW container.
func (f Format) IsRaw() bool {
	return f == FmtCR2 || f == FmtNEF || f == FmtARW
}

// Display returns the human-readable format name.
func (f Format) Display() string {
	switch f {
	case FmtJPEG:
		return "JPEG"
	case FmtPNG:
		return "PNG"
	case FmtTIFF:
		return "TIFF"
	case FmtCR2:
		return "RAW-CR2"
	case FmtNEF:
		return "RAW-NEF"
	case FmtARW:
		return "RAW-ARW"
	}
	return "Unknown"
}

// extMap maps lowercase extensions to formats. Used only when the container
// signature is inconclusive: NEF and ARW share the plain TIFF magic, and a
// file with a stripped or mangled header can still be admitted by name.
var extMap = map[string]Format{
	".jpg":  FmtJPEG,
	".jpeg": FmtJPEG,
	".jpe":  FmtJPEG,
	".png":  FmtPNG,
	".tiff": FmtTIFF,
	".tif":  FmtTIFF,
	".cr2":  FmtCR2,
	".nef":  FmtNEF,
	".arw":  FmtARW,
}

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// DetectFormat determines the metadata-reading strategy for one file. The
// container signature decides; name and hint (a declared extension such as
// ".nef", optional) only refine or rescue inconclusive cases. Returns
// ErrUnsupportedFormat when neither matches. No side effects.
func DetectFormat(data []byte, name, hint string) (Format, error) {
	ext := normalizeExt(hint)
	if ext == "" {
		ext = extOf(name)
	}

	switch f := detectMagic(data); f {
	case FmtTIFF:
		// NEF and ARW are structurally TIFF; only the hint tells them apart.
		if byExt, ok := extMap[ext]; ok && byExt.IsRaw() {
			return byExt, nil
		}
		return FmtTIFF, nil
	case FmtUnknown:
		// fall through to the extension
	default:
		return f, nil
	}

	if f, ok := extMap[ext]; ok {
		return f, nil
	}
	if detail := probeForeign(data); detail != "" {
		return FmtUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detail)
	}
	return FmtUnknown, ErrUnsupportedFormat
}

func detectMagic(b []byte) Format {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, pngMagic):
		return FmtPNG
	// CR2: TIFF little-endian magic plus "CR" at offset 8
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) &&
		len(b) >= 10 && b[8] == 'C' && b[9] == 'R':
		return FmtCR2
	// TIFF: 49 49 2A 00 (little-endian) or 4D 4D 00 2A (big-endian)
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FmtTIFF
	}
	return FmtUnknown
}

// probeForeign identifies common audio containers that end up in photo
// batches swept out of archives, so the failure diagnostic can say what the
// file actually is instead of a bare "unknown".
func probeForeign(b []byte) string {
	f, ft, err := tag.Identify(bytes.NewReader(b))
	if err != nil || f == tag.UnknownFormat {
		return ""
	}
	if ft != tag.UnknownFileType {
		return fmt.Sprintf("%s audio container, not a photo", ft)
	}
	return fmt.Sprintf("%s audio container, not a photo", f)
}

func extOf(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		return ""
	}
	return strings.ToLower(name[dot:])
}

func normalizeExt(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return ""
	}
	if !strings.HasPrefix(hint, ".") {
		hint = "." + hint
	}
	return hint
}
