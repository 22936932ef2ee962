package unify

import "n3proof/internal/rdf"

// Bindings maps blank node labels of a pattern to the terms they matched.
// A Bindings value is never mutated once shared: Bind returns a copy.
type Bindings map[string]rdf.Term

// Lookup returns the term bound to a blank node label.
func (b Bindings) Lookup(label string) (rdf.Term, bool) {
	t, ok := b[label]
	return t, ok
}

// Bind returns a copy of b extended with label -> t.
func (b Bindings) Bind(label string, t rdf.Term) Bindings {
	out := make(Bindings, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[label] = t
	return out
}

// TermWith unifies a pattern term against a data term, honouring and
// extending existing bindings. Only blank nodes in the pattern bind; a blank
// node in the data still matches anything.
func TermWith(b Bindings, pattern, data rdf.Term) (Bindings, bool) {
	if pattern.IsBlank() {
		if bound, ok := b.Lookup(pattern.Value); ok {
			if data.IsBlank() {
				return b, true
			}
			return b, Terms(bound, data)
		}
		return b.Bind(pattern.Value, data), true
	}
	return b, Terms(pattern, data)
}

// TriplesWith unifies pattern against data position by position, threading
// the bindings. On failure the input bindings are returned unchanged.
func TriplesWith(b Bindings, pattern, data rdf.Triple) (Bindings, bool) {
	next, ok := TermWith(b, pattern.Subject, data.Subject)
	if !ok {
		return b, false
	}
	next, ok = TermWith(next, pattern.Predicate, data.Predicate)
	if !ok {
		return b, false
	}
	next, ok = TermWith(next, pattern.Object, data.Object)
	if !ok {
		return b, false
	}
	return next, true
}
