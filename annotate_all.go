package featloc

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// AnnotateJob is one feature stream to annotate.
type AnnotateJob struct {
	// Name identifies the stream in the returned stats map.
	Name string

	// In is the feature stream.
	In io.Reader

	// Out receives the annotated stream.
	Out io.Writer

	// Options configure this pass.
	Options []AnnotateOption
}

// AnnotateAll runs one annotation pipeline per job concurrently over the
// built index and returns per-job stats plus the aggregate.
//
// The index must be fully ingested before AnnotateAll is called; pipelines
// only read it. The first pipeline error cancels the remaining jobs.
func (l *Locator) AnnotateAll(ctx context.Context, jobs []AnnotateJob) (map[string]Stats, Stats, error) {
	// Sorting is lazy and a lookup is a write until it has happened once, so
	// force it before fanning out.
	if !l.warmed {
		l.Warm()
	}

	results := make([]Stats, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			stats, err := l.Annotate(ctx, job.In, job.Out, job.Options...)
			results[i] = stats
			return err
		})
	}
	err := g.Wait()

	perJob := make(map[string]Stats, len(jobs))
	var total Stats
	for i, job := range jobs {
		perJob[job.Name] = results[i]
		total.add(results[i])
	}
	return perJob, total, err
}
