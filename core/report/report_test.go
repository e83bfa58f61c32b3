package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/alxgraphy/photostat/core"
	"github.com/alxgraphy/photostat/core/report"
	"github.com/alxgraphy/photostat/core/stats"
)

func sampleCorpus() *core.Corpus {
	mk, model := "Canon", "EOS R5"
	iso := 400
	return &core.Corpus{
		BatchID: uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Records: []core.PhotoRecord{{
			FileName:    "keeper.jpg",
			Format:      core.FmtJPEG,
			CameraMake:  &mk,
			CameraModel: &model,
			ISO:         &iso,
			Orientation: core.OrientLandscape,
		}},
		Failures: []core.FailureEntry{{
			FileName: "stripped.png",
			Kind:     core.FailNoMetadata,
		}},
	}
}

func TestPrintJSONIsLossless(t *testing.T) {
	c := sampleCorpus()
	s := stats.Compute(c, stats.Options{})

	var buf bytes.Buffer
	p := &report.Printer{JSON: true, Writer: &buf}
	if err := p.PrintReport(c, s); err != nil {
		t.Fatalf("PrintReport: %v", err)
	}

	var out struct {
		BatchID  string               `json:"batchId"`
		Records  []core.PhotoRecord   `json:"records"`
		Failures []core.FailureEntry  `json:"failures"`
		Stats    stats.AggregateStats `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.BatchID != c.BatchID.String() {
		t.Errorf("batchId = %q", out.BatchID)
	}
	if len(out.Records) != 1 || out.Records[0].FileName != "keeper.jpg" {
		t.Errorf("records = %+v", out.Records)
	}
	if len(out.Failures) != 1 || out.Failures[0].Kind != core.FailNoMetadata {
		t.Errorf("failures = %+v", out.Failures)
	}
	if out.Stats.Summary.TotalPhotos != 1 {
		t.Errorf("stats totalPhotos = %d", out.Stats.Summary.TotalPhotos)
	}
}

func TestPrintTextSections(t *testing.T) {
	c := sampleCorpus()
	s := stats.Compute(c, stats.Options{})

	var buf bytes.Buffer
	p := &report.Printer{Writer: &buf}
	if err := p.PrintReport(c, s); err != nil {
		t.Fatalf("PrintReport: %v", err)
	}

	text := buf.String()
	for _, want := range []string{
		"── Summary ──",
		"── Gear ──",
		"Canon EOS R5",
		"── ISO ──",
		"── Failures ──",
		"stripped.png",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q", want)
		}
	}
}
