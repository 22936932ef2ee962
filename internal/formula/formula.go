// Package formula extracts quoted formulas from a graph and decides whether
// a knowledge base satisfies them.
//
// A formula is the set of triples whose subject is the formula's anchor node.
// Extraction is single level: objects that are themselves formula anchors are
// not followed, and reified statements are not resolved. Resolver lifts that
// restriction for blank-node sub-structures when nested formulas are enabled.
package formula

import (
	"n3proof/internal/rdf"
	"n3proof/internal/unify"
)

// Formula is a named collection of triples treated as one quoted unit.
type Formula struct {
	Anchor  rdf.Term
	Triples []rdf.Triple
}

// Empty reports whether the formula has no triples. Empty formulas are
// satisfied by every knowledge base.
func (f Formula) Empty() bool { return len(f.Triples) == 0 }

// Source is anything triples can be matched against.
type Source interface {
	Match(pattern rdf.Triple, fn func(rdf.Triple) bool) bool
}

// Mode selects how blank nodes in a formula behave during satisfaction.
type Mode int

const (
	// Wildcard lets each blank node occurrence match anything independently.
	Wildcard Mode = iota
	// Bound requires every occurrence of a blank node to match the same term.
	Bound
)

func (m Mode) String() string {
	if m == Bound {
		return "bound"
	}
	return "wildcard"
}

// ParseMode maps the config spelling to a Mode; unknown strings are Wildcard.
func ParseMode(s string) Mode {
	if s == "bound" {
		return Bound
	}
	return Wildcard
}

// Extract collects every triple of g whose subject equals anchor, followed by
// any quoted content filed under anchor that is not already among them.
func Extract(g *rdf.Graph, anchor rdf.Term) Formula {
	triples := g.TriplesForSubject(anchor)
	quoted := g.QuotedTriples(anchor)
	if len(quoted) == 0 {
		return Formula{Anchor: anchor, Triples: triples}
	}
	seen := make(map[rdf.Triple]struct{}, len(triples))
	for _, t := range triples {
		seen[t] = struct{}{}
	}
	for _, t := range quoted {
		if _, dup := seen[t]; !dup {
			triples = append(triples, t)
		}
	}
	return Formula{Anchor: anchor, Triples: triples}
}

// IsSatisfiedBy reports whether every triple of f unifies with at least one
// triple of kb. Each triple is matched independently and the check stops at
// the first triple without a match.
func (f Formula) IsSatisfiedBy(kb Source) bool {
	for _, pattern := range f.Triples {
		matched := kb.Match(pattern, func(t rdf.Triple) bool {
			return unify.Triples(pattern, t)
		})
		if !matched {
			return false
		}
	}
	return true
}

// Unmatched returns the triples of f that have no match in kb.
func (f Formula) Unmatched(kb Source) []rdf.Triple {
	var out []rdf.Triple
	for _, pattern := range f.Triples {
		if !kb.Match(pattern, func(t rdf.Triple) bool { return unify.Triples(pattern, t) }) {
			out = append(out, pattern)
		}
	}
	return out
}

// Ground reports whether no triple of f mentions a blank node.
func (f Formula) Ground() bool {
	for _, t := range f.Triples {
		if t.HasBlank() {
			return false
		}
	}
	return true
}

// SatisfiedWith reports satisfaction under the given mode. Ground formulas
// have nothing to bind, so both modes agree on them.
func (f Formula) SatisfiedWith(kb Source, mode Mode) bool {
	if mode == Bound && !f.Ground() {
		_, ok := f.Solve(kb)
		return ok
	}
	return f.IsSatisfiedBy(kb)
}

// Solve searches for one assignment of the formula's blank nodes under which
// every triple matches kb. It backtracks over candidate matches triple by
// triple and returns the first consistent bindings found.
func (f Formula) Solve(kb Source) (unify.Bindings, bool) {
	return solve(kb, f.Triples, unify.Bindings{})
}

func solve(kb Source, patterns []rdf.Triple, b unify.Bindings) (unify.Bindings, bool) {
	if len(patterns) == 0 {
		return b, true
	}
	pattern := patterns[0]
	var result unify.Bindings
	found := kb.Match(pattern, func(t rdf.Triple) bool {
		next, ok := unify.TriplesWith(b, pattern, t)
		if !ok {
			return false
		}
		if final, ok := solve(kb, patterns[1:], next); ok {
			result = final
			return true
		}
		return false
	})
	return result, found
}
