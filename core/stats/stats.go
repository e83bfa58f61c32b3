// Package stats computes derived statistics over a frozen Corpus. Every
// function here is pure: the same Corpus and Options always produce the
// same AggregateStats, row for row. Failures never contribute to a table;
// their count is exposed separately.
package stats

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/alxgraphy/photostat/core"
)

// Frequency selects the timeline bucketing granularity.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Time-of-day bucket names.
const (
	Morning    = "Morning"
	Midday     = "Midday"
	GoldenHour = "Golden Hour"
	Night      = "Night"
)

// TimeOfDayBounds fixes the local-clock-hour ranges for the time-of-day
// buckets. Classification uses the timestamp's clock hour only, with no
// timezone correction; that is a known approximation, since the capture
// timestamps themselves carry no timezone.
type TimeOfDayBounds struct {
	MorningStart int // Morning: [MorningStart, MiddayStart)
	MiddayStart  int // Midday:  [MiddayStart, GoldenStart)
	GoldenStart  int // Golden:  [GoldenStart, NightStart)
	NightStart   int // Night:   everything else
}

// Classify buckets a clock hour.
func (b TimeOfDayBounds) Classify(hour int) string {
	switch {
	case hour >= b.MorningStart && hour < b.MiddayStart:
		return Morning
	case hour >= b.MiddayStart && hour < b.GoldenStart:
		return Midday
	case hour >= b.GoldenStart && hour < b.NightStart:
		return GoldenHour
	}
	return Night
}

// Options tunes the aggregation. Zero-valued fields fall back to the
// defaults, so Compute(c, Options{}) behaves like Compute(c, DefaultOptions()).
type Options struct {
	Frequency Frequency
	TimeOfDay TimeOfDayBounds

	// Histogram bucket edges per field, ascending. Values below the first
	// edge and at or above the last get open-ended buckets.
	ISOEdges      []float64
	ApertureEdges []float64
	FocalEdges    []float64
	ShutterEdges  []float64
}

// DefaultOptions returns the fixed default bucketing policy.
func DefaultOptions() Options {
	return Options{
		Frequency: Daily,
		TimeOfDay: TimeOfDayBounds{MorningStart: 5, MiddayStart: 11, GoldenStart: 17, NightStart: 21},

		ISOEdges:      []float64{100, 200, 400, 800, 1600, 3200, 6400},
		ApertureEdges: []float64{1.4, 2, 2.8, 4, 5.6, 8, 11, 16},
		FocalEdges:    []float64{16, 24, 35, 50, 85, 135, 200, 400},
		ShutterEdges:  []float64{1.0 / 4000, 1.0 / 1000, 1.0 / 250, 1.0 / 60, 1.0 / 15, 1.0 / 4, 1},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Frequency == "" {
		o.Frequency = def.Frequency
	}
	if o.TimeOfDay == (TimeOfDayBounds{}) {
		o.TimeOfDay = def.TimeOfDay
	}
	if o.ISOEdges == nil {
		o.ISOEdges = def.ISOEdges
	}
	if o.ApertureEdges == nil {
		o.ApertureEdges = def.ApertureEdges
	}
	if o.FocalEdges == nil {
		o.FocalEdges = def.FocalEdges
	}
	if o.ShutterEdges == nil {
		o.ShutterEdges = def.ShutterEdges
	}
	return o
}

// Row is one (key, count) entry of a named table.
type Row struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Distribution summarizes one numeric field over the records where it is
// present; absent values are excluded from every figure.
type Distribution struct {
	Count     int     `json:"count"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Histogram []Row   `json:"histogram"`
}

// FlashStats counts flash outcomes. Unknown is excluded from the ratio.
type FlashStats struct {
	Fired    int `json:"fired"`
	NotFired int `json:"notFired"`
	Unknown  int `json:"unknown"`
}

// Ratio returns fired / (fired + not-fired); ok is false when no record
// carries a known flash state.
func (f FlashStats) Ratio() (float64, bool) {
	den := f.Fired + f.NotFired
	if den == 0 {
		return 0, false
	}
	return float64(f.Fired) / float64(den), true
}

// OrientationStats counts derived orientations. Unknown is excluded from
// the ratio.
type OrientationStats struct {
	Portrait  int `json:"portrait"`
	Landscape int `json:"landscape"`
	Unknown   int `json:"unknown"`
}

// Point is one GPS coordinate pair. Duplicates are retained: a repeated
// location is a repeated shooting spot, which is itself a signal.
type Point struct {
	FileName  string  `json:"file"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Summary is the headline block of the report.
type Summary struct {
	TotalPhotos   int        `json:"totalPhotos"`
	Failures      int        `json:"failures"`
	UniqueCameras int        `json:"uniqueCameras"`
	UniqueLenses  int        `json:"uniqueLenses"`
	PhotosWithGPS int        `json:"photosWithGPS"`
	Earliest      *time.Time `json:"earliest,omitempty"`
	Latest        *time.Time `json:"latest,omitempty"`
	SpanDays      int        `json:"spanDays"`
	ISOMean       *float64   `json:"isoMean,omitempty"`
	TopAperture   *float64   `json:"topAperture,omitempty"`
}

// AggregateStats is an immutable snapshot of every derived table. It is
// recomputed from a Corpus on demand and never mutated in place.
type AggregateStats struct {
	Summary Summary `json:"summary"`

	Gear   []Row `json:"gear"`   // (make, model) pairs, ranked
	Lenses []Row `json:"lenses"` // lens models, ranked

	ISO         Distribution `json:"iso"`
	Aperture    Distribution `json:"aperture"`
	FocalLength Distribution `json:"focalLength"`
	Shutter     Distribution `json:"shutter"`

	Timeline  []Row `json:"timeline"`  // chronological buckets
	TimeOfDay []Row `json:"timeOfDay"` // Morning/Midday/Golden Hour/Night
	DayOfWeek []Row `json:"dayOfWeek"` // Monday..Sunday

	Flash       FlashStats       `json:"flash"`
	Orientation OrientationStats `json:"orientation"`

	GPSPoints []Point `json:"gpsPoints"`
}

// Compute derives every table from the Corpus snapshot. The Corpus must not
// be mutated concurrently. An empty Corpus yields empty tables, never an
// error.
func Compute(c *core.Corpus, opts Options) *AggregateStats {
	opts = opts.withDefaults()

	s := &AggregateStats{}
	s.Summary.TotalPhotos = len(c.Records)
	s.Summary.Failures = len(c.Failures)

	gear := newCounter()
	lenses := newCounter()
	timeline := map[string]int{}
	tod := map[string]int{}
	dow := map[time.Weekday]int{}

	var isoVals, apVals, flVals, shVals []float64
	apCounter := newCounter()
	var earliest, latest *time.Time

	for i := range c.Records {
		r := &c.Records[i]

		if key := gearKey(r.CameraMake, r.CameraModel); key != "" {
			gear.add(key)
		}
		if r.LensModel != nil {
			lenses.add(*r.LensModel)
		}

		if r.ISO != nil {
			isoVals = append(isoVals, float64(*r.ISO))
		}
		if r.Aperture != nil {
			apVals = append(apVals, *r.Aperture)
			apCounter.add(fmtNum(*r.Aperture))
		}
		if r.FocalLength != nil {
			flVals = append(flVals, *r.FocalLength)
		}
		if r.Shutter != nil {
			shVals = append(shVals, *r.Shutter)
		}

		if r.TakenAt != nil {
			t := *r.TakenAt
			timeline[timelineKey(t, opts.Frequency)]++
			tod[opts.TimeOfDay.Classify(t.Hour())]++
			dow[t.Weekday()]++
			if earliest == nil || t.Before(*earliest) {
				earliest = &t
			}
			if latest == nil || t.After(*latest) {
				latest = &t
			}
		}

		if r.FlashFired != nil {
			if *r.FlashFired {
				s.Flash.Fired++
			} else {
				s.Flash.NotFired++
			}
		} else {
			s.Flash.Unknown++
		}

		switch r.Orientation {
		case core.OrientPortrait:
			s.Orientation.Portrait++
		case core.OrientLandscape:
			s.Orientation.Landscape++
		default:
			s.Orientation.Unknown++
		}

		if r.HasGPS() {
			s.GPSPoints = append(s.GPSPoints, Point{
				FileName:  r.FileName,
				Latitude:  *r.Latitude,
				Longitude: *r.Longitude,
			})
		}
	}

	s.Gear = gear.ranked()
	s.Lenses = lenses.ranked()

	s.ISO = distribute(isoVals, opts.ISOEdges)
	s.Aperture = distribute(apVals, opts.ApertureEdges)
	s.FocalLength = distribute(flVals, opts.FocalEdges)
	s.Shutter = distribute(shVals, opts.ShutterEdges)

	s.Timeline = sortedRows(timeline)
	s.TimeOfDay = orderedRows(tod, []string{Morning, Midday, GoldenHour, Night})
	s.DayOfWeek = weekdayRows(dow)

	s.Summary.UniqueCameras = len(s.Gear)
	s.Summary.UniqueLenses = len(s.Lenses)
	s.Summary.PhotosWithGPS = len(s.GPSPoints)
	s.Summary.Earliest = earliest
	s.Summary.Latest = latest
	if earliest != nil && latest != nil {
		s.Summary.SpanDays = int(latest.Sub(*earliest).Hours() / 24)
	}
	if len(isoVals) > 0 {
		mean := 0.0
		for _, v := range isoVals {
			mean += v
		}
		mean /= float64(len(isoVals))
		s.Summary.ISOMean = &mean
	}
	if top := apCounter.ranked(); len(top) > 0 {
		if v, err := strconv.ParseFloat(top[0].Key, 64); err == nil {
			s.Summary.TopAperture = &v
		}
	}

	return s
}

// ──────────────────────────────────────────────────────────────────────────────
// helpers
// ──────────────────────────────────────────────────────────────────────────────

// counter is a frequency table that remembers first-seen order, so ranking
// ties break deterministically in favor of the key encountered first.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns rows sorted by count descending; equal counts keep
// first-seen order.
func (c *counter) ranked() []Row {
	rows := make([]Row, 0, len(c.order))
	for _, key := range c.order {
		rows = append(rows, Row{Key: key, Count: c.counts[key]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return rows
}

func gearKey(mk, model *string) string {
	switch {
	case mk != nil && model != nil:
		return *mk + " " + *model
	case model != nil:
		return *model
	case mk != nil:
		return *mk
	}
	return ""
}

func timelineKey(t time.Time, freq Frequency) string {
	switch freq {
	case Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Monthly:
		return t.Format("2006-01")
	case Yearly:
		return t.Format("2006")
	}
	return t.Format("2006-01-02")
}

// distribute summarizes present values into count/min/max and a histogram
// over the given bucket edges. Empty input yields a zeroed Distribution
// with no histogram rows.
func distribute(vals []float64, edges []float64) Distribution {
	var d Distribution
	if len(vals) == 0 {
		return d
	}
	d.Count = len(vals)
	d.Min, d.Max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < d.Min {
			d.Min = v
		}
		if v > d.Max {
			d.Max = v
		}
	}

	buckets := make([]int, len(edges)+1)
	for _, v := range vals {
		i := sort.SearchFloat64s(edges, v)
		// SearchFloat64s returns the insertion point; values equal to an
		// edge belong to the bucket starting at that edge.
		if i < len(edges) && edges[i] == v {
			i++
		}
		buckets[i]++
	}
	for i, n := range buckets {
		d.Histogram = append(d.Histogram, Row{Key: bucketLabel(edges, i), Count: n})
	}
	return d
}

func bucketLabel(edges []float64, i int) string {
	switch {
	case i == 0:
		return "< " + fmtNum(edges[0])
	case i == len(edges):
		return ">= " + fmtNum(edges[len(edges)-1])
	}
	return fmtNum(edges[i-1]) + " - " + fmtNum(edges[i])
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'g', 5, 64)
}

// sortedRows orders bucket keys lexicographically, which is chronological
// for every timeline key format used here.
func sortedRows(m map[string]int) []Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, Row{Key: k, Count: m[k]})
	}
	return rows
}

// orderedRows emits the non-empty buckets in the fixed given order.
func orderedRows(m map[string]int, order []string) []Row {
	var rows []Row
	for _, k := range order {
		if n := m[k]; n > 0 {
			rows = append(rows, Row{Key: k, Count: n})
		}
	}
	return rows
}

func weekdayRows(m map[time.Weekday]int) []Row {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	var rows []Row
	for _, d := range order {
		if n := m[d]; n > 0 {
			rows = append(rows, Row{Key: d.String(), Count: n})
		}
	}
	return rows
}
