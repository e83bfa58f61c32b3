package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/alxgraphy/photostat/core"
)

func ratTags(name string, pairs ...int64) core.RawTags {
	v := core.RawValue{Kind: core.RawRational}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Rats = append(v.Rats, core.Rational{Num: pairs[i], Den: pairs[i+1]})
	}
	return core.RawTags{name: v}
}

func strTag(tags core.RawTags, name, s string) core.RawTags {
	tags[name] = core.RawValue{Kind: core.RawString, Str: s}
	return tags
}

func TestRatFloatZeroDenominatorIsAbsent(t *testing.T) {
	if _, ok := RatFloat(core.Rational{Num: 5, Den: 0}); ok {
		t.Error("zero denominator must be absent, not infinity")
	}
	if v, ok := RatFloat(core.Rational{Num: 1, Den: 4}); !ok || v != 0.25 {
		t.Errorf("(1, 4) = %v, %v; want 0.25, true", v, ok)
	}
}

func TestRationalPlaceholdersAbsent(t *testing.T) {
	// A (0, 5) pair is a writer's placeholder for a magnitude that is
	// always positive; it is absent, not 0.0.
	f := Normalize(ratTags("FocalLength", 0, 5))
	if f.FocalLength != nil {
		t.Errorf("FocalLength(0/5) = %v, want absent", *f.FocalLength)
	}
	f = Normalize(ratTags("FocalLength", 50, 0))
	if f.FocalLength != nil {
		t.Errorf("FocalLength(50/0) = %v, want absent", *f.FocalLength)
	}
}

func TestNegativeShutterAPEXIsLongExposure(t *testing.T) {
	f := Normalize(ratTags("ShutterSpeedValue", -1, 1))
	if f.Shutter == nil || *f.Shutter != 2 {
		t.Errorf("Shutter = %v, want 2s for APEX -1", f.Shutter)
	}
}

func TestGPSHemisphereSign(t *testing.T) {
	tags := ratTags("GPSLatitude", 43, 1, 0, 1, 0, 1)
	for k, v := range ratTags("GPSLongitude", 79, 1, 0, 1, 0, 1) {
		tags[k] = v
	}
	strTag(tags, "GPSLatitudeRef", "S")
	strTag(tags, "GPSLongitudeRef", "E")

	f := Normalize(tags)
	if f.Latitude == nil || f.Longitude == nil {
		t.Fatal("coordinates absent")
	}
	if *f.Latitude != -43.0 {
		t.Errorf("latitude = %v, want -43.0", *f.Latitude)
	}
	if *f.Longitude != 79.0 {
		t.Errorf("longitude = %v, want 79.0", *f.Longitude)
	}
}

func TestGPSDecimalConversion(t *testing.T) {
	tags := ratTags("GPSLatitude", 43, 1, 36, 1, 0, 1)
	for k, v := range ratTags("GPSLongitude", 79, 1, 24, 1, 0, 1) {
		tags[k] = v
	}
	strTag(tags, "GPSLatitudeRef", "N")
	strTag(tags, "GPSLongitudeRef", "W")

	f := Normalize(tags)
	if f.Latitude == nil || f.Longitude == nil {
		t.Fatal("coordinates absent")
	}
	if math.Abs(*f.Latitude-43.6) > 1e-9 {
		t.Errorf("latitude = %v, want 43.6", *f.Latitude)
	}
	if math.Abs(*f.Longitude - -79.4) > 1e-9 {
		t.Errorf("longitude = %v, want -79.4", *f.Longitude)
	}
}

func TestGPSBrokenComponentDropsPair(t *testing.T) {
	tags := ratTags("GPSLatitude", 43, 1, 36, 0, 0, 1) // minutes have zero denominator
	for k, v := range ratTags("GPSLongitude", 79, 1, 24, 1, 0, 1) {
		tags[k] = v
	}
	f := Normalize(tags)
	if f.Latitude != nil || f.Longitude != nil {
		t.Error("a coordinate pair with an unparseable half must be wholly absent")
	}
}

func TestApertureAPEX(t *testing.T) {
	if got := ApexAperture(4); got != 4 {
		t.Errorf("ApexAperture(4) = %v, want 4", got)
	}
	f := Normalize(ratTags("ApertureValue", 4, 1))
	if f.Aperture == nil || *f.Aperture != 4 {
		t.Errorf("Aperture = %v, want 4", f.Aperture)
	}
}

func TestApertureFNumberPreferred(t *testing.T) {
	tags := ratTags("FNumber", 28, 10)
	for k, v := range ratTags("ApertureValue", 4, 1) {
		tags[k] = v
	}
	f := Normalize(tags)
	if f.Aperture == nil || *f.Aperture != 2.8 {
		t.Errorf("Aperture = %v, want 2.8 from FNumber", f.Aperture)
	}
}

func TestShutterAPEX(t *testing.T) {
	if got := ApexShutter(8); got != 1.0/256 {
		t.Errorf("ApexShutter(8) = %v, want 1/256", got)
	}
	f := Normalize(ratTags("ShutterSpeedValue", 8, 1))
	if f.Shutter == nil || *f.Shutter != 1.0/256 {
		t.Errorf("Shutter = %v, want 1/256", f.Shutter)
	}
}

func TestShutterExposureTimePreferred(t *testing.T) {
	tags := ratTags("ExposureTime", 1, 250)
	for k, v := range ratTags("ShutterSpeedValue", 8, 1) {
		tags[k] = v
	}
	f := Normalize(tags)
	if f.Shutter == nil || *f.Shutter != 1.0/250 {
		t.Errorf("Shutter = %v, want 1/250 from ExposureTime", f.Shutter)
	}
}

func TestTimestamp(t *testing.T) {
	tags := strTag(core.RawTags{}, "DateTimeOriginal", "2024:06:15 19:45:00")
	f := Normalize(tags)
	if f.TakenAt == nil {
		t.Fatal("TakenAt absent")
	}
	want := time.Date(2024, 6, 15, 19, 45, 0, 0, time.UTC)
	if !f.TakenAt.Equal(want) {
		t.Errorf("TakenAt = %v, want %v", f.TakenAt, want)
	}
}

func TestTimestampBadLayoutAbsentNotError(t *testing.T) {
	tags := strTag(core.RawTags{}, "DateTimeOriginal", "June 15th 2024")
	strTag(tags, "Make", "Canon")
	f := Normalize(tags)
	if f.TakenAt != nil {
		t.Errorf("TakenAt = %v, want absent", f.TakenAt)
	}
	if f.CameraMake == nil || *f.CameraMake != "Canon" {
		t.Error("the rest of the record must survive a bad timestamp")
	}
}

func TestTimestampPreferenceOrder(t *testing.T) {
	tags := strTag(core.RawTags{}, "DateTime", "2024:01:01 00:00:00")
	strTag(tags, "DateTimeOriginal", "2024:06:15 19:45:00")
	f := Normalize(tags)
	if f.TakenAt == nil || f.TakenAt.Month() != time.June {
		t.Errorf("TakenAt = %v, want the DateTimeOriginal value", f.TakenAt)
	}
}

func TestFlashDecoding(t *testing.T) {
	tests := []struct {
		name  string
		value core.RawValue
		want  *bool
	}{
		{"fired", core.RawValue{Kind: core.RawInt, Ints: []int64{1}}, boolPtr(true)},
		{"fired with return light", core.RawValue{Kind: core.RawInt, Ints: []int64{0x19}}, boolPtr(true)},
		{"not fired", core.RawValue{Kind: core.RawInt, Ints: []int64{0}}, boolPtr(false)},
		{"no flash function", core.RawValue{Kind: core.RawInt, Ints: []int64{0x20}}, nil},
		{"unrecognized encoding", core.RawValue{Kind: core.RawString, Str: "yes"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(core.RawTags{"Flash": tt.value})
			switch {
			case tt.want == nil && f.FlashFired != nil:
				t.Errorf("FlashFired = %v, want unknown", *f.FlashFired)
			case tt.want != nil && (f.FlashFired == nil || *f.FlashFired != *tt.want):
				t.Errorf("FlashFired = %v, want %v", f.FlashFired, *tt.want)
			}
		})
	}
}

func TestStringFieldsTrimmed(t *testing.T) {
	tags := strTag(core.RawTags{}, "Make", "  NIKON CORPORATION\x00")
	strTag(tags, "Model", "\x00")
	f := Normalize(tags)
	if f.CameraMake == nil || *f.CameraMake != "NIKON CORPORATION" {
		t.Errorf("CameraMake = %v", f.CameraMake)
	}
	if f.CameraModel != nil {
		t.Errorf("empty model should be absent, got %q", *f.CameraModel)
	}
}

func TestISO(t *testing.T) {
	f := Normalize(core.RawTags{"ISOSpeedRatings": {Kind: core.RawInt, Ints: []int64{400}}})
	if f.ISO == nil || *f.ISO != 400 {
		t.Errorf("ISO = %v, want 400", f.ISO)
	}
}

func boolPtr(b bool) *bool { return &b }
