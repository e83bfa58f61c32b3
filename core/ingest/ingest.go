// Package ingest runs the per-file extraction pipeline over a batch of
// inputs and assembles the resulting Corpus. Files are independent, so the
// batch fans out to a bounded worker pool and results are re-joined into
// input order before the Corpus is built.
package ingest

import (
	"bytes"
	"context"
	"image"
	"runtime"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/google/uuid"

	"github.com/alxgraphy/photostat/core"
	"github.com/alxgraphy/photostat/core/normalize"
	"github.com/alxgraphy/photostat/core/tagread"
)

// Input is one file to ingest: its name, full content, and an optional
// declared format hint (an extension such as ".nef") supplied by the caller
// when the name alone is unreliable.
type Input struct {
	Name string
	Data []byte
	Hint string
}

// Options tunes a batch run.
type Options struct {
	// Workers bounds the pool; <= 0 means GOMAXPROCS.
	Workers int
	// Progress, if set, is called after each file with (done, total).
	// It runs on the collecting goroutine, never concurrently.
	Progress func(done, total int)
}

type outcome struct {
	idx    int
	record *core.PhotoRecord
	fail   *core.FailureEntry
}

// Ingest processes the batch and returns the Corpus. Every input yields
// exactly one record or one failure; no single file aborts the batch.
// Cancellation is cooperative and checked between files: a file already
// dispatched completes as a whole, files never dispatched are absent from
// the Corpus, and the context error is returned alongside the partial
// result.
func Ingest(ctx context.Context, inputs []Input, opts Options) (*core.Corpus, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(inputs) && len(inputs) > 0 {
		workers = len(inputs)
	}

	jobs := make(chan int)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- processOne(idx, inputs[idx])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range inputs {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]*outcome, len(inputs))
	done := 0
	for out := range results {
		out := out
		collected[out.idx] = &out
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(inputs))
		}
	}

	corpus := &core.Corpus{BatchID: uuid.New()}
	for _, out := range collected {
		if out == nil {
			continue // never dispatched: batch was cancelled
		}
		if out.record != nil {
			corpus.Records = append(corpus.Records, *out.record)
		} else {
			corpus.Failures = append(corpus.Failures, *out.fail)
		}
	}
	return corpus, ctx.Err()
}

// processOne runs the full pipeline for a single file. A file is atomic:
// it produces a record or a failure, never both and never neither.
func processOne(idx int, in Input) outcome {
	format, err := core.DetectFormat(in.Data, in.Name, in.Hint)
	if err != nil {
		return failure(idx, in.Name, err)
	}

	tags, err := tagread.Read(in.Data, format)
	if err != nil {
		return failure(idx, in.Name, err)
	}

	rec := assemble(in, format, normalize.Normalize(tags))
	return outcome{idx: idx, record: rec}
}

// assemble combines normalized fields with directly-read file facts into
// one PhotoRecord. Pixel dimensions come from the image header; directory
// dimension tags are a fallback for vendor payloads the header decoders
// cannot handle. A record is only built once tag reading has succeeded.
func assemble(in Input, format core.Format, f normalize.Fields) *core.PhotoRecord {
	rec := &core.PhotoRecord{
		FileName:    in.Name,
		Format:      format,
		CameraMake:  f.CameraMake,
		CameraModel: f.CameraModel,
		LensModel:   f.LensModel,
		FocalLength: f.FocalLength,
		ISO:         f.ISO,
		Aperture:    f.Aperture,
		Shutter:     f.Shutter,
		FlashFired:  f.FlashFired,
		TakenAt:     f.TakenAt,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
	}

	if w, h, ok := headerDims(in.Data); ok {
		rec.Width, rec.Height = &w, &h
	} else {
		rec.Width, rec.Height = f.TagWidth, f.TagHeight
	}

	rec.Orientation = orient(rec.Width, rec.Height)
	return rec
}

func headerDims(data []byte) (w, h int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

func orient(w, h *int) core.Orientation {
	if w == nil || h == nil || *w == *h {
		return core.OrientUnknown
	}
	if *w > *h {
		return core.OrientLandscape
	}
	return core.OrientPortrait
}

func failure(idx int, name string, err error) outcome {
	kind, ok := core.ClassifyFailure(err)
	if !ok {
		kind = core.FailUnsupportedFormat
	}
	return outcome{idx: idx, fail: &core.FailureEntry{
		FileName: name,
		Kind:     kind,
		Detail:   err.Error(),
	}}
}
