// Package rulegraph analyzes the log:implies structure of a proof graph with
// Mangle: which formulas reach which, which rules form cycles, which declared
// conclusions have no rule at all and which could be derived from premises
// that hold.
//
// The derivability analysis ignores conclusion declaration order, so it is
// an upper bound on what the verifier proves: a conclusion the verifier
// proves is always derivable here, but not the other way round.
package rulegraph

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"n3proof/internal/formula"
	"n3proof/internal/kb"
	"n3proof/internal/logging"
	"n3proof/internal/mangle"
	"n3proof/internal/rdf"
)

// Edge is one step of implication reachability.
type Edge struct {
	From rdf.Term
	To   rdf.Term
}

// DocFormula names a formula declared by a proof document.
type DocFormula struct {
	Document rdf.Term
	Formula  rdf.Term
}

// Analysis is the result of Analyze. Every slice is sorted by the
// N-Triples rendering of its terms.
type Analysis struct {
	Rules       int
	Skipped     int // log:implies edges with a non-IRI antecedent
	Reachable   []Edge
	Cyclic      []rdf.Term
	Unsupported []DocFormula
	Unreached   []DocFormula
	Derivable   []rdf.Term
	Holding     []rdf.Term

	// Facts counts base and derived facts per predicate.
	Facts map[string]int

	program *mangle.Program
}

// Program exposes the evaluated Mangle program for ad hoc queries. It is
// only valid until the Analyzer that produced it analyzes another graph.
func (a *Analysis) Program() *mangle.Program { return a.program }

// Clean reports whether every declared conclusion has a rule and could be
// derived, and no rule is cyclic.
func (a *Analysis) Clean() bool {
	return len(a.Cyclic) == 0 && len(a.Unsupported) == 0 && len(a.Unreached) == 0
}

// Options tune an Analyzer.
type Options struct {
	Logger    *zap.Logger
	FactLimit int
}

// Analyzer compiles the analysis program once and runs it over one graph
// at a time. It is not safe for concurrent use.
type Analyzer struct {
	program *mangle.Program
	logger  *zap.Logger
}

// NewAnalyzer compiles the analysis program.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := mangle.Compile(schema, mangle.Options{Logger: logger, MaxFacts: opts.FactLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule-graph program: %w", err)
	}
	return &Analyzer{program: p, logger: logger}, nil
}

// Analyze compiles the analysis program and runs it over g.
func Analyze(g *rdf.Graph, opts Options) (*Analysis, error) {
	an, err := NewAnalyzer(opts)
	if err != nil {
		return nil, err
	}
	return an.Analyze(g)
}

// Analyze replaces the facts of the previous run with those of g and
// evaluates the program.
func (an *Analyzer) Analyze(g *rdf.Graph) (*Analysis, error) {
	timer := logging.StartTimer(logging.CategoryRules, "Rule graph analysis")
	defer timer.Stop()

	an.program.Reset()
	a := &Analysis{program: an.program}
	terms := make(map[string]rdf.Term)
	assert := func(pred string, ts ...rdf.Term) error {
		args := make([]string, len(ts))
		for i, t := range ts {
			args[i] = t.String()
			terms[args[i]] = t
		}
		return an.program.Assert(pred, args...)
	}

	anchors := make(map[rdf.Term]struct{})
	for _, t := range g.Triples() {
		if t.Predicate != rdf.ImpliesTerm {
			continue
		}
		if !t.Subject.IsIRI() {
			a.Skipped++
			continue
		}
		a.Rules++
		if err := assert("implies", t.Subject, t.Object); err != nil {
			return nil, err
		}
		anchors[t.Subject] = struct{}{}
	}

	for _, doc := range g.ProofDocuments() {
		for _, rel := range []struct {
			pred string
			term rdf.Term
		}{{"includes", rdf.IncludesTerm}, {"conclusion", rdf.ConclusionTerm}} {
			for _, f := range g.Objects(doc, rel.term) {
				if !f.IsIRI() {
					continue
				}
				if err := assert(rel.pred, doc, f); err != nil {
					return nil, err
				}
				anchors[f] = struct{}{}
			}
		}
	}

	base := kb.New(g)
	for anchor := range anchors {
		if formula.Extract(g, anchor).IsSatisfiedBy(base) {
			if err := assert("premise_holds", anchor); err != nil {
				return nil, err
			}
		}
	}

	if err := an.program.Run(); err != nil {
		return nil, err
	}
	a.Facts = an.program.Counts()

	read := func(pred string) ([][]rdf.Term, error) {
		rows, err := an.program.Tuples(pred)
		if err != nil {
			return nil, err
		}
		out := make([][]rdf.Term, len(rows))
		for i, row := range rows {
			out[i] = make([]rdf.Term, len(row))
			for j, s := range row {
				t, ok := terms[s]
				if !ok {
					return nil, fmt.Errorf("%s mentions unknown term %s", pred, s)
				}
				out[i][j] = t
			}
		}
		return out, nil
	}

	unary := map[string]*[]rdf.Term{"cyclic": &a.Cyclic, "derivable": &a.Derivable, "premise_holds": &a.Holding}
	for pred, dst := range unary {
		rows, err := read(pred)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			*dst = append(*dst, r[0])
		}
		sortTerms(*dst)
	}

	rows, err := read("reachable")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		a.Reachable = append(a.Reachable, Edge{From: r[0], To: r[1]})
	}
	sort.Slice(a.Reachable, func(i, j int) bool {
		return pairLess(a.Reachable[i].From, a.Reachable[i].To, a.Reachable[j].From, a.Reachable[j].To)
	})

	for pred, dst := range map[string]*[]DocFormula{"unsupported": &a.Unsupported, "unreached": &a.Unreached} {
		rows, err := read(pred)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			*dst = append(*dst, DocFormula{Document: r[0], Formula: r[1]})
		}
		list := *dst
		sort.Slice(list, func(i, j int) bool {
			return pairLess(list[i].Document, list[i].Formula, list[j].Document, list[j].Formula)
		})
	}

	logging.RulesDebug("Rule graph: %d rules (%d skipped), %d reachable, %d cyclic, %d unsupported, %d derivable",
		a.Rules, a.Skipped, len(a.Reachable), len(a.Cyclic), len(a.Unsupported), len(a.Derivable))
	return a, nil
}

func sortTerms(ts []rdf.Term) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].String() < ts[j].String() })
}

func pairLess(a1, a2, b1, b2 rdf.Term) bool {
	if a1 != b1 {
		return a1.String() < b1.String()
	}
	return a2.String() < b2.String()
}
