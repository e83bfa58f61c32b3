// Package core defines the shared types, the format sniffer, and the
// failure taxonomy for photostat's extraction pipeline.
package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Raw tag values
// ──────────────────────────────────────────────────────────────────────────────

// RawKind discriminates the variants of RawValue.
type RawKind uint8

const (
	RawInt RawKind = iota
	RawRational
	RawFloat
	RawString
	RawBytes
)

// Rational is a numerator/denominator pair as stored in a metadata directory.
// Signed rationals reuse the same shape with negative components.
type Rational struct {
	Num int64
	Den int64
}

// RawValue is one raw tag value read from a metadata directory. Exactly one
// of the variant fields is populated, selected by Kind. Multi-valued tags
// (e.g. a GPS degree/minute/second triplet) keep all components.
type RawValue struct {
	Kind  RawKind
	Ints  []int64
	Rats  []Rational
	Flts  []float64
	Str   string
	Bytes []byte
}

// FirstInt returns the first integer component, if the value holds one.
func (v RawValue) FirstInt() (int64, bool) {
	if v.Kind != RawInt || len(v.Ints) == 0 {
		return 0, false
	}
	return v.Ints[0], true
}

// FirstRat returns the first rational component, if the value holds one.
func (v RawValue) FirstRat() (Rational, bool) {
	if v.Kind != RawRational || len(v.Rats) == 0 {
		return Rational{}, false
	}
	return v.Rats[0], true
}

// RawTags maps tag names to their raw values for a single file. Tag names
// follow the standard EXIF naming scheme; tags the reader cannot name are
// kept under reader-assigned identifiers rather than dropped.
type RawTags map[string]RawValue

// ──────────────────────────────────────────────────────────────────────────────
// Records
// ──────────────────────────────────────────────────────────────────────────────

// Orientation is derived from pixel dimensions, never from rotation tags.
type Orientation string

const (
	OrientPortrait  Orientation = "portrait"
	OrientLandscape Orientation = "landscape"
	OrientUnknown   Orientation = "unknown"
)

// PhotoRecord is the canonical per-file result of an ingestion pass.
// Every pointer field is either a fully parsed value or nil for absent;
// a nil pointer is never interchangeable with a zero value.
type PhotoRecord struct {
	FileName string `json:"file"`
	Format   Format `json:"format"`

	CameraMake  *string `json:"cameraMake,omitempty"`
	CameraModel *string `json:"cameraModel,omitempty"`

	LensModel   *string  `json:"lensModel,omitempty"`
	FocalLength *float64 `json:"focalLengthMM,omitempty"`

	ISO        *int     `json:"iso,omitempty"`
	Aperture   *float64 `json:"aperture,omitempty"`
	Shutter    *float64 `json:"shutterSec,omitempty"`
	FlashFired *bool    `json:"flashFired,omitempty"`

	TakenAt *time.Time `json:"takenAt,omitempty"` // no timezone guarantee

	Width       *int        `json:"width,omitempty"`
	Height      *int        `json:"height,omitempty"`
	Orientation Orientation `json:"orientation"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasGPS reports whether the source file encoded a usable coordinate pair.
func (r *PhotoRecord) HasGPS() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Failures
// ──────────────────────────────────────────────────────────────────────────────

// FailureKind classifies why a single file was excluded from the records.
type FailureKind string

const (
	FailUnsupportedFormat FailureKind = "unsupported_format"
	FailCorruptMetadata   FailureKind = "corrupt_metadata"
	FailNoMetadata        FailureKind = "no_metadata"
)

// Sentinel errors matching the failure kinds. Pipeline stages wrap these
// with fmt.Errorf("…: %w", …) so callers can classify with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptMetadata   = errors.New("corrupt metadata directory")
	ErrNoMetadata        = errors.New("no metadata directory")
)

// ClassifyFailure maps a pipeline error to its FailureKind.
func ClassifyFailure(err error) (FailureKind, bool) {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return FailUnsupportedFormat, true
	case errors.Is(err, ErrCorruptMetadata):
		return FailCorruptMetadata, true
	case errors.Is(err, ErrNoMetadata):
		return FailNoMetadata, true
	}
	return "", false
}

// FailureEntry records one file that could not be processed.
type FailureEntry struct {
	FileName string      `json:"file"`
	Kind     FailureKind `json:"kind"`
	Detail   string      `json:"detail,omitempty"` // optional diagnostic
}

// ──────────────────────────────────────────────────────────────────────────────
// Corpus
// ──────────────────────────────────────────────────────────────────────────────

// Corpus holds every outcome of one ingestion pass. Records and Failures
// each preserve input order, and every input file appears in exactly one of
// the two. A Corpus is append-only during ingestion and frozen afterwards.
type Corpus struct {
	BatchID  uuid.UUID      `json:"batchId"`
	Records  []PhotoRecord  `json:"records"`
	Failures []FailureEntry `json:"failures"`
}

// Len returns the total number of files accounted for.
func (c *Corpus) Len() int { return len(c.Records) + len(c.Failures) }
