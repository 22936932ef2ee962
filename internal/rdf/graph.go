package rdf

import "sort"

// Graph is a set of asserted triples deduplicated by structural equality.
//
// Triples are enumerated in insertion order so that every scan over a graph
// is deterministic. A subject index backs TriplesForSubject.
//
// A graph may also carry quoted formulas: triples filed under an anchor node
// that are part of that formula's content without being asserted. They come
// from N-Quads statements whose graph label is the anchor and are never
// returned by Triples.
type Graph struct {
	triples   []Triple
	seen      map[Triple]struct{}
	bySubject map[Term][]int

	quoted     map[Term][]Triple
	quotedSeen map[Term]map[Triple]struct{}
}

// NewGraph returns an empty graph, optionally seeded with triples.
func NewGraph(triples ...Triple) *Graph {
	g := &Graph{
		seen:      make(map[Triple]struct{}, len(triples)),
		bySubject: make(map[Term][]int),
	}
	for _, t := range triples {
		g.Insert(t)
	}
	return g
}

// Insert adds t and reports whether it was not already present.
func (g *Graph) Insert(t Triple) bool {
	if g.seen == nil {
		g.seen = make(map[Triple]struct{})
		g.bySubject = make(map[Term][]int)
	}
	if _, ok := g.seen[t]; ok {
		return false
	}
	g.seen[t] = struct{}{}
	g.bySubject[t.Subject] = append(g.bySubject[t.Subject], len(g.triples))
	g.triples = append(g.triples, t)
	return true
}

// Contains reports whether t is in the graph.
func (g *Graph) Contains(t Triple) bool {
	_, ok := g.seen[t]
	return ok
}

// Len is the number of distinct triples.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Triples returns the triples in insertion order. The slice is shared; do not
// modify it.
func (g *Graph) Triples() []Triple {
	if g == nil {
		return nil
	}
	return g.triples
}

// TriplesForSubject returns the triples whose subject equals s, in insertion
// order.
func (g *Graph) TriplesForSubject(s Term) []Triple {
	if g == nil {
		return nil
	}
	idx := g.bySubject[s]
	out := make([]Triple, len(idx))
	for i, j := range idx {
		out[i] = g.triples[j]
	}
	return out
}

// Objects returns the objects of (s, p, ?o) in insertion order.
func (g *Graph) Objects(s, p Term) []Term {
	var out []Term
	for _, t := range g.TriplesForSubject(s) {
		if t.Predicate == p {
			out = append(out, t.Object)
		}
	}
	return out
}

// Has reports whether (s, p, o) is asserted.
func (g *Graph) Has(s, p, o Term) bool {
	return g.Contains(T(s, p, o))
}

// Clone returns an independent copy with the same enumeration order.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		triples:   make([]Triple, len(g.triples)),
		seen:      make(map[Triple]struct{}, len(g.triples)),
		bySubject: make(map[Term][]int, len(g.bySubject)),
	}
	copy(c.triples, g.triples)
	for k := range g.seen {
		c.seen[k] = struct{}{}
	}
	for k, v := range g.bySubject {
		c.bySubject[k] = append([]int(nil), v...)
	}
	for anchor, ts := range g.quoted {
		for _, t := range ts {
			c.Quote(anchor, t)
		}
	}
	return c
}

// Quote files t under the formula anchored at anchor without asserting it.
// It reports whether t was new to that formula.
func (g *Graph) Quote(anchor Term, t Triple) bool {
	if g.quoted == nil {
		g.quoted = make(map[Term][]Triple)
		g.quotedSeen = make(map[Term]map[Triple]struct{})
	}
	seen := g.quotedSeen[anchor]
	if seen == nil {
		seen = make(map[Triple]struct{})
		g.quotedSeen[anchor] = seen
	}
	if _, ok := seen[t]; ok {
		return false
	}
	seen[t] = struct{}{}
	g.quoted[anchor] = append(g.quoted[anchor], t)
	return true
}

// QuotedTriples returns the quoted content filed under anchor.
func (g *Graph) QuotedTriples(anchor Term) []Triple {
	if g == nil {
		return nil
	}
	return append([]Triple(nil), g.quoted[anchor]...)
}

// QuotedAnchors lists the anchors that carry quoted content, sorted by their
// N-Triples rendering.
func (g *Graph) QuotedAnchors() []Term {
	if g == nil {
		return nil
	}
	anchors := make([]Term, 0, len(g.quoted))
	for a := range g.quoted {
		anchors = append(anchors, a)
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].String() < anchors[j].String() })
	return anchors
}

// ProofDocuments lists every IRI subject typed log:Proof, in order of first
// appearance.
func (g *Graph) ProofDocuments() []Term {
	var docs []Term
	for _, t := range g.Triples() {
		if t.Predicate == TypeTerm && t.Object == ProofTerm && t.Subject.IsIRI() {
			docs = append(docs, t.Subject)
		}
	}
	return docs
}
