package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"n3proof/internal/batch"
	"n3proof/internal/nquads"
	"n3proof/internal/rdf"
	"n3proof/internal/store"
)

var (
	verifyDoc    string
	verifyAll    bool
	verifyEach   bool
	verifyWhy    bool
	verifyRecord bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify FILE...",
	Short: "Verify proof documents",
	Long: `Loads FILE... into one graph (a directory stands for its .nq and .nt files) and verifies a proof document in it.

The document is chosen with --doc. Without --doc, a graph holding exactly
one log:Proof verifies that one; --all verifies every log:Proof found.
With --each every file is an independent graph, verified concurrently.

Exits non-zero if any proof fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyDoc, "doc", "d", "", "Proof document IRI")
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "Verify every log:Proof in the graph")
	verifyCmd.Flags().BoolVar(&verifyEach, "each", false, "Treat every file as its own graph")
	verifyCmd.Flags().BoolVar(&verifyWhy, "why", false, "Print the verification trace")
	verifyCmd.Flags().BoolVar(&verifyRecord, "record", false, "Record results in the history database")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(commandContext(cmd), verifyTimeout())
	defer cancel()
	ctx, stop := signalContext(ctx)
	defer stop()

	files, err := expandPaths(args)
	if err != nil {
		return err
	}
	v := newVerifier()
	var results []batch.Result

	if verifyEach {
		jobs := make([]batch.Job, len(files))
		for i, path := range files {
			jobs[i] = batch.Job{Files: []string{path}, Document: verifyDoc}
		}
		results, err = batch.Run(ctx, v, jobs, cfg.Batch.Concurrency)
		if err != nil {
			return err
		}
	} else {
		g, err := nquads.LoadFiles(files...)
		if err != nil {
			return err
		}
		job := batch.Job{Files: files, Document: verifyDoc}
		digest := nquads.DigestHex(g)

		switch {
		case verifyAll:
			reports, err := batch.VerifyAll(ctx, v, g, cfg.Batch.Concurrency)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				return batch.ErrNoProofs
			}
			for _, r := range reports {
				results = append(results, batch.Result{Job: job, Report: r, Digest: digest})
			}
		default:
			doc, err := pickDocument(g, verifyDoc)
			if err != nil {
				return err
			}
			report, _ := v.Verify(ctx, g, doc)
			results = append(results, batch.Result{Job: job, Report: report, Digest: digest})
		}
	}

	if err := recordResults(ctx, results); err != nil {
		return err
	}
	return printResults(cmd.OutOrStdout(), results, verifyWhy)
}

// pickDocument returns doc, or the only log:Proof in g when doc is empty.
func pickDocument(g *rdf.Graph, doc string) (string, error) {
	if doc != "" {
		return doc, nil
	}
	docs := g.ProofDocuments()
	switch len(docs) {
	case 0:
		return "", batch.ErrNoProofs
	case 1:
		return docs[0].Value, nil
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Value
	}
	return "", fmt.Errorf("graph holds %d proofs (%s): choose one with --doc or use --all", len(docs), strings.Join(names, ", "))
}

func printResults(w io.Writer, results []batch.Result, why bool) error {
	failed := false
	for _, r := range results {
		if r.Failed() {
			failed = true
		}
		switch {
		case r.Report == nil:
			fmt.Fprintf(w, "%s: error: %v\n", r.Job.Source(), r.Err)
		case why:
			if _, err := r.Report.WriteTo(w); err != nil {
				return err
			}
		case r.Report.Verified():
			fmt.Fprintf(w, "%s: verified (%d derived)\n", r.Report.Document, len(r.Report.Derived()))
		default:
			fmt.Fprintf(w, "%s: failed: %v\n", r.Report.Document, r.Report.Err)
		}
	}
	if failed {
		return errProofFailed
	}
	return nil
}

// recordResults stores reports in the history database when recording is
// requested by flag or enabled in config.
func recordResults(ctx context.Context, results []batch.Result) error {
	if !verifyRecord && !cfg.Store.Enabled {
		return nil
	}
	h, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, r := range results {
		if r.Report == nil {
			continue
		}
		run, err := h.Record(context.WithoutCancel(ctx), store.RunFromReport(r.Report, r.Job.Source(), r.Digest))
		if err != nil {
			return err
		}
		logger.Debug("Recorded verification", zap.String("id", run.ID), zap.String("document", run.Document), zap.String("db", h.Path()))
	}
	return nil
}
