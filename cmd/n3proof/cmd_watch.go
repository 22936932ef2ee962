package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"n3proof/internal/batch"
	"n3proof/internal/logging"
	"n3proof/internal/metrics"
	"n3proof/internal/nquads"
	"n3proof/internal/proof"
	"n3proof/internal/rdf"
	"n3proof/internal/rulegraph"
	"n3proof/internal/watch"
)

var (
	watchDoc         string
	watchMetricsAddr string
	watchCheck       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE...",
	Short: "Re-verify proofs whenever their files change",
	Long: `Verifies FILE... once, then again every time one of them is written.
Without --doc every log:Proof in the graph is verified. A directory argument
watches every .nq and .nt file in it.

With --metrics-addr (or metrics.listen_addr in config) verification counters
are served at /metrics for Prometheus.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDoc, "doc", "d", "", "Proof document IRI")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	watchCmd.Flags().BoolVar(&watchCheck, "check", false, "Also report rule graph problems after each change")
}

// watchSession owns what one watch run shares between verifications.
type watchSession struct {
	mu      sync.Mutex
	out     io.Writer
	paths   []string
	doc     string
	v       *proof.Verifier
	metrics *metrics.Metrics
	rules   *rulegraph.Analyzer // nil without --check
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()

	s := &watchSession{
		out:     cmd.OutOrStdout(),
		paths:   args,
		doc:     watchDoc,
		v:       newVerifier(),
		metrics: metrics.New(nil),
	}

	if watchCheck {
		an, err := rulegraph.NewAnalyzer(rulegraph.Options{Logger: logger})
		if err != nil {
			return err
		}
		s.rules = an
	}

	addr := watchMetricsAddr
	if addr == "" {
		addr = cfg.Metrics.ListenAddr
	}
	if addr != "" {
		s.metrics.Registry().MustRegister(collectors.NewGoCollector())
		srv := &http.Server{Addr: addr, Handler: metricsMux(s.metrics), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logging.Watch("Serving metrics on %s/metrics", addr)
	}

	s.verify(ctx, args)

	w, err := watch.New(args, cfg.GetWatchDebounce(), s.verify)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(s.out, "watching %d path(s); Ctrl-C to stop\n", len(args))
	<-ctx.Done()
	return nil
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

// verify reloads every watched path and verifies the graph. Failures are
// printed, never returned, so watching continues.
func (s *watchSession) verify(ctx context.Context, changed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.WatchDebug("Re-verifying after change to %v", changed)
	files, err := expandPaths(s.paths)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	vctx, cancel := context.WithTimeout(ctx, verifyTimeout())
	defer cancel()

	g, err := nquads.LoadFiles(files...)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if s.rules != nil {
		s.checkRules(g)
	}
	job := batch.Job{Files: files, Document: s.doc}
	digest := nquads.DigestHex(g)

	var results []batch.Result
	if s.doc != "" {
		report, _ := s.v.Verify(vctx, g, s.doc)
		results = append(results, batch.Result{Job: job, Report: report, Digest: digest})
	} else {
		reports, err := batch.VerifyAll(vctx, s.v, g, cfg.Batch.Concurrency)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		if len(reports) == 0 {
			fmt.Fprintf(s.out, "error: %v\n", batch.ErrNoProofs)
			return
		}
		for _, r := range reports {
			results = append(results, batch.Result{Job: job, Report: r, Digest: digest})
		}
	}

	for _, r := range results {
		s.metrics.Observe(r.Report)
	}
	if err := recordResults(vctx, results); err != nil {
		logger.Warn("Failed to record verification", zap.Error(err))
	}
	fmt.Fprintf(s.out, "[%s] ", time.Now().Format("15:04:05"))
	_ = printResults(s.out, results, false)
}

func (s *watchSession) checkRules(g *rdf.Graph) {
	a, err := s.rules.Analyze(g)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if a.Clean() {
		return
	}
	fmt.Fprintf(s.out, "rule graph: %d cyclic, %d unsupported, %d unreached\n",
		len(a.Cyclic), len(a.Unsupported), len(a.Unreached))
}
