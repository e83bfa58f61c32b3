// Package normalize converts raw metadata tags into canonical typed fields.
// Every conversion is local to its field: a value that cannot be normalized
// becomes absent, and the rest of the record is unaffected. Nothing in this
// package fails a whole file.
package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/alxgraphy/photostat/core"
)

// exifTimeLayout is the standard "YYYY:MM:DD HH:MM:SS" capture timestamp.
const exifTimeLayout = "2006:01:02 15:04:05"

// Fields holds the normalized values extracted from one file's raw tags.
// nil means the tag was missing or could not be parsed.
type Fields struct {
	CameraMake  *string
	CameraModel *string
	LensModel   *string
	FocalLength *float64
	ISO         *int
	Aperture    *float64
	Shutter     *float64
	FlashFired  *bool
	TakenAt     *time.Time
	Latitude    *float64
	Longitude   *float64

	// Dimension tags from the directory; the assembler prefers the image
	// header and uses these only when the header cannot be decoded.
	TagWidth  *int
	TagHeight *int
}

// Normalize converts the raw tag map into typed fields. Pure function.
func Normalize(tags core.RawTags) Fields {
	var f Fields

	f.CameraMake = str(tags, "Make")
	f.CameraModel = str(tags, "Model")
	f.LensModel = str(tags, "LensModel")

	if v, ok := ratTag(tags, "FocalLength"); ok {
		f.FocalLength = &v
	}
	if v, ok := intTag(tags, "ISOSpeedRatings"); ok {
		iso := int(v)
		f.ISO = &iso
	}

	f.Aperture = aperture(tags)
	f.Shutter = shutter(tags)
	f.FlashFired = flash(tags)
	f.TakenAt = timestamp(tags)
	f.Latitude, f.Longitude = coordinates(tags)

	if v, ok := firstIntTag(tags, "PixelXDimension", "ImageWidth"); ok {
		w := int(v)
		f.TagWidth = &w
	}
	if v, ok := firstIntTag(tags, "PixelYDimension", "ImageLength"); ok {
		h := int(v)
		f.TagHeight = &h
	}

	return f
}

// RatFloat converts a rational pair to a float. A zero denominator means the
// value is absent, never infinity and never an error.
func RatFloat(r core.Rational) (float64, bool) {
	if r.Den == 0 {
		return 0, false
	}
	return float64(r.Num) / float64(r.Den), true
}

// ApexShutter converts an APEX shutter speed value to seconds: 2^(-apex).
func ApexShutter(apex float64) float64 { return math.Pow(2, -apex) }

// ApexAperture converts an APEX aperture value to an f-number: 2^(apex/2).
func ApexAperture(apex float64) float64 { return math.Pow(2, apex/2) }

// aperture prefers the direct FNumber rational and falls back to the APEX
// ApertureValue encoding. APEX zero is legitimate (f/1.0), so the fallback
// only rejects broken denominators.
func aperture(tags core.RawTags) *float64 {
	if v, ok := ratTag(tags, "FNumber"); ok {
		return &v
	}
	if apex, ok := apexTag(tags, "ApertureValue"); ok {
		v := ApexAperture(apex)
		return &v
	}
	return nil
}

// shutter prefers the direct ExposureTime rational (already seconds) and
// falls back to the APEX ShutterSpeedValue encoding, which is signed:
// exposures of a second and longer have APEX values of zero and below.
func shutter(tags core.RawTags) *float64 {
	if v, ok := ratTag(tags, "ExposureTime"); ok {
		return &v
	}
	if apex, ok := apexTag(tags, "ShutterSpeedValue"); ok {
		v := ApexShutter(apex)
		return &v
	}
	return nil
}

// flash decodes the bit-encoded Flash tag: bit 0 is "fired". Bit 5 set means
// the camera has no flash function, and any non-integer encoding is
// unrecognized; both yield unknown, never a silent "not fired".
func flash(tags core.RawTags) *bool {
	raw, ok := tags["Flash"]
	if !ok {
		return nil
	}
	v, ok := raw.FirstInt()
	if !ok || v&0x20 != 0 {
		return nil
	}
	fired := v&0x1 == 1
	return &fired
}

// timestamp picks the first parseable capture time, preferring the original
// capture tag over digitization and file-modification times.
func timestamp(tags core.RawTags) *time.Time {
	for _, name := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"} {
		s := str(tags, name)
		if s == nil {
			continue
		}
		if t, err := time.Parse(exifTimeLayout, *s); err == nil {
			return &t
		}
	}
	return nil
}

// coordinates converts the GPS degree/minute/second triplets plus hemisphere
// references into signed decimal degrees. South and West are negative. A
// coordinate pair is only present when both halves normalize.
func coordinates(tags core.RawTags) (lat, lon *float64) {
	la, ok := dmsDecimal(tags, "GPSLatitude", "GPSLatitudeRef", "S")
	if !ok {
		return nil, nil
	}
	lo, ok := dmsDecimal(tags, "GPSLongitude", "GPSLongitudeRef", "W")
	if !ok {
		return nil, nil
	}
	return &la, &lo
}

func dmsDecimal(tags core.RawTags, name, refName, negRef string) (float64, bool) {
	raw, ok := tags[name]
	if !ok || raw.Kind != core.RawRational || len(raw.Rats) == 0 {
		return 0, false
	}
	var parts [3]float64
	for i, r := range raw.Rats {
		if i >= 3 {
			break
		}
		v, ok := RatFloat(r)
		if !ok {
			return 0, false
		}
		parts[i] = v
	}
	dec := parts[0] + parts[1]/60 + parts[2]/3600

	if ref := str(tags, refName); ref != nil && strings.EqualFold(*ref, negRef) {
		dec = -dec
	}
	return dec, true
}

// str returns a trimmed non-empty string tag, or nil.
func str(tags core.RawTags, name string) *string {
	raw, ok := tags[name]
	if !ok || raw.Kind != core.RawString {
		return nil
	}
	s := strings.TrimSpace(strings.Trim(raw.Str, "\x00"))
	if s == "" {
		return nil
	}
	return &s
}

// ratTag returns a named rational tag as float. Photographic magnitudes
// (focal length, f-number, exposure time) are strictly positive, so a zero
// value is a writer's placeholder and treated as absent, like a zero
// denominator.
func ratTag(tags core.RawTags, name string) (float64, bool) {
	v, ok := apexTag(tags, name)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// apexTag returns a named rational tag as float with only the denominator
// rule applied; zero and negative values pass through.
func apexTag(tags core.RawTags, name string) (float64, bool) {
	raw, ok := tags[name]
	if !ok {
		return 0, false
	}
	r, ok := raw.FirstRat()
	if !ok {
		return 0, false
	}
	return RatFloat(r)
}

func intTag(tags core.RawTags, name string) (int64, bool) {
	raw, ok := tags[name]
	if !ok {
		return 0, false
	}
	return raw.FirstInt()
}

func firstIntTag(tags core.RawTags, names ...string) (int64, bool) {
	for _, name := range names {
		if v, ok := intTag(tags, name); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}
