package proof

import (
	"go.uber.org/zap"

	"n3proof/internal/formula"
	"n3proof/internal/kb"
	"n3proof/internal/rdf"
)

// run is the state of one verification. The knowledge base is owned by the
// run and only ever grows.
type run struct {
	opts     Options
	logger   *zap.Logger
	graph    *rdf.Graph
	kb       *kb.KB
	resolver *formula.Resolver
	report   *Report
}

func (r *run) extract(anchor rdf.Term) (formula.Formula, error) {
	if r.resolver != nil {
		return r.resolver.Resolve(anchor)
	}
	return formula.Extract(r.graph, anchor), nil
}

func (r *run) satisfied(f formula.Formula) bool {
	return f.SatisfiedWith(r.kb, r.opts.Mode)
}

// checkAssertions verifies that the premise formula at anchor holds in the
// knowledge base. It never mutates the knowledge base.
func (r *run) checkAssertions(anchor rdf.Term) error {
	f, err := r.extract(anchor)
	if err != nil {
		return &Error{Kind: KindAssertionFailure, Subject: anchor.Value, Err: err}
	}

	result := PremiseResult{Anchor: anchor, Triples: len(f.Triples)}
	defer func() { r.report.Premises = append(r.report.Premises, result) }()

	if f.Empty() {
		r.logger.Debug("Included formula is empty; treating as trivially satisfied",
			zap.String("formula", anchor.Value))
		result.Satisfied = true
		return nil
	}

	if !r.satisfied(f) {
		if ce := r.logger.Check(zap.DebugLevel, "Included formula not satisfied"); ce != nil {
			unmatched := make([]string, 0)
			for _, t := range f.Unmatched(r.kb) {
				unmatched = append(unmatched, t.String())
			}
			ce.Write(zap.String("formula", anchor.Value), zap.Strings("unmatched", unmatched))
		}
		return newError(KindAssertionFailure, anchor.Value, "")
	}

	result.Satisfied = true
	return nil
}

// checkImplications verifies that the conclusion formula at anchor follows
// from some log:implies edge whose antecedent holds, inserting the
// conclusion's triples into the knowledge base when they are not yet held.
func (r *run) checkImplications(anchor rdf.Term) error {
	conclusion, err := r.extract(anchor)
	if err != nil {
		return &Error{Kind: KindImplicationFailure, Subject: anchor.Value, Err: err}
	}

	result := ConclusionResult{Anchor: anchor, Triples: len(conclusion.Triples)}
	defer func() { r.report.Conclusions = append(r.report.Conclusions, result) }()

	found := false
	for _, edge := range r.graph.Triples() {
		if edge.Predicate != rdf.ImpliesTerm || edge.Object != anchor {
			continue
		}
		found = true

		step, err := r.applyRule(edge.Subject, anchor, conclusion)
		result.Rules = append(result.Rules, step)
		if err != nil {
			return err
		}
	}

	if !found {
		return newError(KindImplicationFailure, anchor.Value, "no log:implies derives this conclusion")
	}

	// Proven when the conclusion holds now; it may still be unproven if no
	// antecedent was satisfied, which the resolver does not treat as failure.
	result.Proven = r.satisfied(conclusion)
	return nil
}

func (r *run) applyRule(antecedent, anchor rdf.Term, conclusion formula.Formula) (RuleStep, error) {
	step := RuleStep{Antecedent: antecedent}

	// Anonymous antecedents carry no formula the verifier can extract.
	if !antecedent.IsIRI() {
		r.logger.Debug("Ignoring log:implies with non-IRI antecedent",
			zap.String("antecedent", antecedent.String()),
			zap.String("conclusion", anchor.Value))
		step.Outcome = OutcomeSkipped
		return step, nil
	}

	ante, err := r.extract(antecedent)
	if err != nil {
		return step, &Error{Kind: KindImplicationFailure, Subject: anchor.Value, Err: err}
	}
	if !r.satisfied(ante) {
		r.logger.Debug("Antecedent not satisfied; no conclusion needed",
			zap.String("antecedent", antecedent.Value))
		step.Outcome = OutcomeUnsatisfied
		return step, nil
	}

	r.logger.Debug("Antecedent satisfied; checking conclusion",
		zap.String("antecedent", antecedent.Value),
		zap.String("conclusion", anchor.Value))

	if r.satisfied(conclusion) {
		step.Outcome = OutcomeAlreadyHeld
		return step, nil
	}

	for _, t := range conclusion.Triples {
		if r.kb.Insert(t) {
			step.Derived = append(step.Derived, t)
		}
	}
	step.Outcome = OutcomeDerived
	r.logger.Debug("Added conclusion statements as derived knowledge",
		zap.String("conclusion", anchor.Value),
		zap.Int("inserted", len(step.Derived)))

	if !r.satisfied(conclusion) {
		return step, newError(KindImplicationFailure, anchor.Value, "not derivable even after adding its statements")
	}
	return step, nil
}
