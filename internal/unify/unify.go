// Package unify matches RDF terms and triples.
//
// The default matcher treats blank nodes as unconditional wildcards: a blank
// node matches anything, every time it is compared, and no substitution is
// carried between comparisons. Bindings provides the stricter alternative in
// which repeated occurrences of one blank node must bind to the same term.
package unify

import "n3proof/internal/rdf"

// Terms reports whether a and b unify under wildcard semantics.
func Terms(a, b rdf.Term) bool {
	if a.IsBlank() || b.IsBlank() {
		return true
	}
	switch {
	case a.IsIRI() && b.IsIRI():
		return a.Value == b.Value
	case a.IsLiteral() && b.IsLiteral():
		return a.Value == b.Value && a.Datatype == b.Datatype && a.Lang == b.Lang
	default:
		return false
	}
}

// Triples reports whether every position of a and b unifies.
func Triples(a, b rdf.Triple) bool {
	return Terms(a.Subject, b.Subject) &&
		Terms(a.Predicate, b.Predicate) &&
		Terms(a.Object, b.Object)
}
