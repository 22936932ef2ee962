// Package batch verifies many proof inputs concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"n3proof/internal/logging"
	"n3proof/internal/nquads"
	"n3proof/internal/proof"
	"n3proof/internal/rdf"
)

// Job is one verification input: the files merged into a single graph and
// the document to check. An empty Document checks every log:Proof in the
// graph.
type Job struct {
	Files    []string
	Document string
}

// Source names the job's inputs for history records.
func (j Job) Source() string { return strings.Join(j.Files, ",") }

// Result is the outcome for one document of one job. Err is set when the
// job's files could not be loaded; verification failures are carried by
// Report.Err.
type Result struct {
	Job    Job
	Report *proof.Report
	Digest string
	Err    error
}

// Failed reports whether the input failed to load or the proof failed.
func (r Result) Failed() bool {
	return r.Err != nil || r.Report == nil || !r.Report.Verified()
}

// Run verifies every job with at most concurrency jobs in flight. Results
// come back in job order, and within a job in document order. Load and
// verification failures are recorded per result; the returned error is
// only set when ctx ends the run early.
func Run(ctx context.Context, v *proof.Verifier, jobs []Job, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	timer := logging.StartTimer(logging.CategoryBatch, "Batch verification")
	defer timer.StopWithInfo()

	perJob := make([][]Result, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			perJob[i] = runJob(egCtx, v, job)
			return nil
		})
	}
	err := eg.Wait()

	var out []Result
	for _, rs := range perJob {
		out = append(out, rs...)
	}
	logging.BatchDebug("Batch finished: %d jobs, %d results", len(jobs), len(out))
	return out, err
}

func runJob(ctx context.Context, v *proof.Verifier, job Job) []Result {
	g, err := nquads.LoadFiles(job.Files...)
	if err != nil {
		logging.Get(logging.CategoryBatch).Warn("Failed to load %s: %v", job.Source(), err)
		return []Result{{Job: job, Err: err}}
	}
	digest := nquads.DigestHex(g)

	if job.Document != "" {
		report, _ := v.Verify(ctx, g, job.Document)
		return []Result{{Job: job, Report: report, Digest: digest}}
	}

	reports, err := VerifyAll(ctx, v, g, 1)
	if err != nil {
		return []Result{{Job: job, Err: err}}
	}
	if len(reports) == 0 {
		return []Result{{Job: job, Digest: digest, Err: fmt.Errorf("%s: %w", job.Source(), ErrNoProofs)}}
	}
	out := make([]Result, len(reports))
	for i, r := range reports {
		out[i] = Result{Job: job, Report: r, Digest: digest}
	}
	return out
}

// ErrNoProofs is reported for inputs without any log:Proof document.
var ErrNoProofs = errors.New("no log:Proof documents found")

// VerifyAll checks every proof document in g, at most concurrency at a
// time, and returns the reports in document order. g is only read.
func VerifyAll(ctx context.Context, v *proof.Verifier, g *rdf.Graph, concurrency int) ([]*proof.Report, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	docs := g.ProofDocuments()
	reports := make([]*proof.Report, len(docs))
	logging.VerifyDebug("Verifying %d proof documents over %d triples", len(docs), g.Len())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		eg.Go(func() error {
			reports[i], _ = v.Verify(egCtx, g, doc.Value)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	verified := 0
	for _, r := range reports {
		if r != nil && r.Verified() {
			verified++
		}
	}
	logging.Verify("Verified %d of %d proof documents", verified, len(docs))
	return reports, nil
}
