// Package report renders a Corpus and its AggregateStats for the CLI.
// The in-memory schema is owned by core and stats; this package only
// formats it, as text sections or as one lossless JSON document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alxgraphy/photostat/core"
	"github.com/alxgraphy/photostat/core/stats"
)

// Printer handles all display output for the CLI.
type Printer struct {
	JSON   bool
	Writer io.Writer
}

// NewPrinter creates a default Printer writing to stdout.
func NewPrinter(jsonMode bool) *Printer {
	return &Printer{JSON: jsonMode, Writer: os.Stdout}
}

// PrintReport renders the batch outcome and every statistics table.
func (p *Printer) PrintReport(c *core.Corpus, s *stats.AggregateStats) error {
	if p.JSON {
		return p.printJSON(c, s)
	}
	p.printText(c, s)
	return nil
}

func (p *Printer) printJSON(c *core.Corpus, s *stats.AggregateStats) error {
	out := struct {
		BatchID  string                `json:"batchId"`
		Records  []core.PhotoRecord    `json:"records"`
		Failures []core.FailureEntry   `json:"failures"`
		Stats    *stats.AggregateStats `json:"stats"`
	}{
		BatchID:  c.BatchID.String(),
		Records:  c.Records,
		Failures: c.Failures,
		Stats:    s,
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.Writer, string(b))
	return err
}

func (p *Printer) printText(c *core.Corpus, s *stats.AggregateStats) {
	fmt.Fprintf(p.Writer, "Batch : %s\n", c.BatchID)
	fmt.Fprintf(p.Writer, "Photos: %d   Failures: %d\n\n", s.Summary.TotalPhotos, s.Summary.Failures)

	p.section("Summary")
	fmt.Fprintf(p.Writer, "  %-24s %d\n", "Cameras used:", s.Summary.UniqueCameras)
	fmt.Fprintf(p.Writer, "  %-24s %d\n", "Lenses used:", s.Summary.UniqueLenses)
	fmt.Fprintf(p.Writer, "  %-24s %d\n", "Photos with GPS:", s.Summary.PhotosWithGPS)
	if s.Summary.Earliest != nil && s.Summary.Latest != nil {
		fmt.Fprintf(p.Writer, "  %-24s %s to %s (%d days)\n", "Date range:",
			s.Summary.Earliest.Format("2006-01-02"),
			s.Summary.Latest.Format("2006-01-02"),
			s.Summary.SpanDays)
	}
	if s.Summary.ISOMean != nil {
		fmt.Fprintf(p.Writer, "  %-24s %.0f\n", "Mean ISO:", *s.Summary.ISOMean)
	}
	if s.Summary.TopAperture != nil {
		fmt.Fprintf(p.Writer, "  %-24s f/%.1f\n", "Most used aperture:", *s.Summary.TopAperture)
	}
	fmt.Fprintln(p.Writer)

	p.table("Gear", s.Gear)
	p.table("Lenses", s.Lenses)

	p.distribution("ISO", s.ISO)
	p.distribution("Aperture", s.Aperture)
	p.distribution("Focal length (mm)", s.FocalLength)
	p.distribution("Shutter (s)", s.Shutter)

	p.table("Timeline", s.Timeline)
	p.table("Time of day", s.TimeOfDay)
	p.table("Day of week", s.DayOfWeek)

	p.section("Flash")
	if ratio, ok := s.Flash.Ratio(); ok {
		fmt.Fprintf(p.Writer, "  fired %d, not fired %d, unknown %d (ratio %.2f)\n\n",
			s.Flash.Fired, s.Flash.NotFired, s.Flash.Unknown, ratio)
	} else {
		fmt.Fprintln(p.Writer, "  (no flash data)")
		fmt.Fprintln(p.Writer)
	}

	p.section("Orientation")
	fmt.Fprintf(p.Writer, "  portrait %d, landscape %d, unknown %d\n\n",
		s.Orientation.Portrait, s.Orientation.Landscape, s.Orientation.Unknown)

	if len(s.GPSPoints) > 0 {
		p.section("GPS points")
		for _, pt := range s.GPSPoints {
			fmt.Fprintf(p.Writer, "  %9.4f, %9.4f  %s\n", pt.Latitude, pt.Longitude, pt.FileName)
		}
		fmt.Fprintln(p.Writer)
	}

	if len(c.Failures) > 0 {
		p.section("Failures")
		for _, f := range c.Failures {
			fmt.Fprintf(p.Writer, "  %-30s %-20s %s\n", f.FileName, f.Kind, f.Detail)
		}
		fmt.Fprintln(p.Writer)
	}
}

func (p *Printer) section(name string) {
	fmt.Fprintf(p.Writer, "── %s ──\n", name)
}

func (p *Printer) table(name string, rows []stats.Row) {
	p.section(name)
	if len(rows) == 0 {
		fmt.Fprintln(p.Writer, "  (no data)")
		fmt.Fprintln(p.Writer)
		return
	}
	for _, r := range rows {
		fmt.Fprintf(p.Writer, "  %-30s %d\n", r.Key, r.Count)
	}
	fmt.Fprintln(p.Writer)
}

func (p *Printer) distribution(name string, d stats.Distribution) {
	p.section(name)
	if d.Count == 0 {
		fmt.Fprintln(p.Writer, "  (no data)")
		fmt.Fprintln(p.Writer)
		return
	}
	fmt.Fprintf(p.Writer, "  count %d, min %g, max %g\n", d.Count, d.Min, d.Max)
	for _, r := range d.Histogram {
		if r.Count > 0 {
			fmt.Fprintf(p.Writer, "  %-30s %d\n", r.Key, r.Count)
		}
	}
	fmt.Fprintln(p.Writer)
}

// PrintError prints an error to stderr.
func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, "✗ Error: "+msg)
}
