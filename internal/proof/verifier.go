// Package proof verifies Notation3 proof documents held in an RDF graph.
//
// A proof document is a node typed log:Proof. Its log:includes formulas are
// premises that must already hold in the graph; its log:conclusion formulas
// must be derivable through log:implies edges found anywhere in the graph.
// Derived conclusions are added to a working knowledge base so later
// conclusions can build on earlier ones.
package proof

import (
	"context"
	"time"

	"go.uber.org/zap"

	"n3proof/internal/formula"
	"n3proof/internal/kb"
	"n3proof/internal/rdf"
)

// Options tune the verifier. The zero value gives the reference behaviour:
// wildcard blank nodes, single-level formulas, indexed knowledge base.
type Options struct {
	Mode           formula.Mode
	NestedFormulas bool
	DisableIndex   bool
}

// Verifier checks proof documents. It holds no per-run state and may be
// shared between goroutines; every call builds its own knowledge base.
type Verifier struct {
	opts   Options
	logger *zap.Logger
}

// NewVerifier returns a Verifier. A nil logger disables logging.
func NewVerifier(opts Options, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{opts: opts, logger: logger}
}

// Verify checks docIRI in g with default options.
func Verify(g *rdf.Graph, docIRI string) error {
	_, err := NewVerifier(Options{}, nil).Verify(context.Background(), g, docIRI)
	return err
}

// Verify checks the proof document docIRI against g. The returned report is
// never nil and describes how far verification got; the error is a *Error
// when the proof fails. g is not modified.
func (v *Verifier) Verify(ctx context.Context, g *rdf.Graph, docIRI string) (*Report, error) {
	report := &Report{Document: docIRI, Started: time.Now()}
	err := v.verify(ctx, g, docIRI, report)
	report.Duration = time.Since(report.Started)
	report.Err = err

	if err != nil {
		v.logger.Info("Proof verification failed",
			zap.String("document", docIRI),
			zap.Error(err),
			zap.Duration("elapsed", report.Duration))
	} else {
		v.logger.Info("Proof verified",
			zap.String("document", docIRI),
			zap.Int("derived", len(report.Derived())),
			zap.Duration("elapsed", report.Duration))
	}
	return report, err
}

func (v *Verifier) verify(ctx context.Context, g *rdf.Graph, docIRI string, report *Report) error {
	v.logger.Debug("Verifying proof", zap.String("document", docIRI))

	doc, err := rdf.ParseIRI(docIRI)
	if err != nil {
		return &Error{Kind: KindInvalidIRI, Subject: docIRI, Err: err}
	}
	if g == nil {
		g = rdf.NewGraph()
	}

	if !g.Has(doc, rdf.TypeTerm, rdf.ProofTerm) {
		return newError(KindNotAProof, docIRI, "")
	}

	includes := namedObjects(g, doc, rdf.IncludesTerm)
	conclusions := namedObjects(g, doc, rdf.ConclusionTerm)
	if len(includes) == 0 || len(conclusions) == 0 {
		return newError(KindMissingConclusionIncludes, docIRI, "")
	}

	r := &run{
		opts:   v.opts,
		logger: v.logger.With(zap.String("document", docIRI)),
		graph:  g,
		report: report,
	}
	var kbOpts []kb.Option
	if v.opts.DisableIndex {
		kbOpts = append(kbOpts, kb.WithoutIndex())
	}
	r.kb = kb.New(g, kbOpts...)
	if v.opts.NestedFormulas {
		r.resolver = formula.NewResolver(g)
	}
	report.KBBefore = r.kb.Len()
	defer func() { report.KBAfter = r.kb.Len() }()

	for _, inc := range includes {
		if err := ctx.Err(); err != nil {
			return &Error{Kind: KindOther, Subject: docIRI, Err: err}
		}
		if err := r.checkAssertions(inc); err != nil {
			return err
		}
	}

	for _, conc := range conclusions {
		if err := ctx.Err(); err != nil {
			return &Error{Kind: KindOther, Subject: docIRI, Err: err}
		}
		if err := r.checkImplications(conc); err != nil {
			return err
		}
	}
	return nil
}

// namedObjects returns the IRI objects of (subject, predicate, ?o); other
// object kinds are dropped.
func namedObjects(g *rdf.Graph, subject, predicate rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, o := range g.Objects(subject, predicate) {
		if o.IsIRI() {
			out = append(out, o)
		}
	}
	return out
}
