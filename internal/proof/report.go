package proof

import (
	"fmt"
	"io"
	"time"

	"n3proof/internal/rdf"
)

// RuleOutcome records what happened when one implication edge was examined.
type RuleOutcome string

const (
	// OutcomeUnsatisfied: the antecedent does not hold, no obligation.
	OutcomeUnsatisfied RuleOutcome = "antecedent_unsatisfied"
	// OutcomeAlreadyHeld: the antecedent holds and so does the conclusion.
	OutcomeAlreadyHeld RuleOutcome = "conclusion_already_held"
	// OutcomeDerived: the conclusion triples were inserted into the KB.
	OutcomeDerived RuleOutcome = "derived"
	// OutcomeSkipped: the antecedent is not an IRI and is not evaluated.
	OutcomeSkipped RuleOutcome = "skipped"
)

// RuleStep is one implication edge examined for a conclusion.
type RuleStep struct {
	Antecedent rdf.Term
	Outcome    RuleOutcome
	Derived    []rdf.Triple
}

// PremiseResult is the outcome of one log:includes check.
type PremiseResult struct {
	Anchor    rdf.Term
	Triples   int
	Satisfied bool
}

// ConclusionResult is the outcome of one log:conclusion check.
type ConclusionResult struct {
	Anchor  rdf.Term
	Triples int
	Rules   []RuleStep
	Proven  bool
}

// Report traces a single verification. It is filled in as far as the
// verification got, so failed runs still explain themselves.
type Report struct {
	Document    string
	Premises    []PremiseResult
	Conclusions []ConclusionResult
	KBBefore    int
	KBAfter     int
	Started     time.Time
	Duration    time.Duration
	Err         error
}

// Verified reports whether the proof checked out.
func (r *Report) Verified() bool { return r.Err == nil }

// Verdict is "verified" or "failed".
func (r *Report) Verdict() string {
	if r.Verified() {
		return "verified"
	}
	return "failed"
}

// ErrorKind returns the failure kind, or "" for verified proofs.
func (r *Report) ErrorKind() string {
	if r.Err == nil {
		return ""
	}
	kind, _ := KindOf(r.Err)
	return kind.String()
}

// Derived lists every triple the run inserted, in insertion order.
func (r *Report) Derived() []rdf.Triple {
	var out []rdf.Triple
	for _, c := range r.Conclusions {
		for _, step := range c.Rules {
			out = append(out, step.Derived...)
		}
	}
	return out
}

// WriteTo renders the trace for humans.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "proof <%s>: %s (%v)\n", r.Document, r.Verdict(), r.Duration.Round(time.Microsecond))
	for _, p := range r.Premises {
		mark := "ok"
		if !p.Satisfied {
			mark = "UNSATISFIED"
		}
		fmt.Fprintf(cw, "  includes %s [%d triples] %s\n", rdf.Short(p.Anchor), p.Triples, mark)
	}
	for _, c := range r.Conclusions {
		mark := "proven"
		if !c.Proven {
			mark = "NOT PROVEN"
		}
		fmt.Fprintf(cw, "  conclusion %s [%d triples] %s\n", rdf.Short(c.Anchor), c.Triples, mark)
		for _, step := range c.Rules {
			fmt.Fprintf(cw, "    %s log:implies: %s\n", rdf.Short(step.Antecedent), step.Outcome)
			for _, t := range step.Derived {
				fmt.Fprintf(cw, "      + %s\n", t)
			}
		}
	}
	fmt.Fprintf(cw, "  knowledge base: %d -> %d triples\n", r.KBBefore, r.KBAfter)
	if r.Err != nil {
		fmt.Fprintf(cw, "  error: %v\n", r.Err)
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
