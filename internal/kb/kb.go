// Package kb implements the working knowledge base used during one proof
// verification: a monotonic copy of the input graph with a predicate index.
package kb

import "n3proof/internal/rdf"

// KB is a mutable, grow-only working set of triples.
//
// A KB is owned by exactly one verification; it is not safe for concurrent
// use. The predicate index only narrows the candidates scanned by Match and
// never changes which triples match.
type KB struct {
	graph *rdf.Graph

	indexed     bool
	byPredicate map[rdf.Term][]int
	// Triples whose predicate is not an IRI match every pattern predicate.
	wildPredicate []int

	inserted int
}

// Option configures a KB.
type Option func(*KB)

// WithoutIndex disables the predicate index; Match then scans every triple.
func WithoutIndex() Option {
	return func(k *KB) { k.indexed = false }
}

// New seeds a knowledge base with a full copy of g. g is not modified.
func New(g *rdf.Graph, opts ...Option) *KB {
	if g == nil {
		g = rdf.NewGraph()
	}
	k := &KB{
		graph:       g.Clone(),
		indexed:     true,
		byPredicate: make(map[rdf.Term][]int),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.indexed {
		for i, t := range k.graph.Triples() {
			k.index(i, t)
		}
	}
	return k
}

func (k *KB) index(i int, t rdf.Triple) {
	if t.Predicate.IsIRI() {
		k.byPredicate[t.Predicate] = append(k.byPredicate[t.Predicate], i)
		return
	}
	k.wildPredicate = append(k.wildPredicate, i)
}

// Insert adds t and reports whether it was new.
func (k *KB) Insert(t rdf.Triple) bool {
	if !k.graph.Insert(t) {
		return false
	}
	k.inserted++
	if k.indexed {
		k.index(k.graph.Len()-1, t)
	}
	return true
}

// Len is the number of distinct triples held.
func (k *KB) Len() int { return k.graph.Len() }

// Inserted is the number of triples added since New.
func (k *KB) Inserted() int { return k.inserted }

// Contains reports whether t is held verbatim.
func (k *KB) Contains(t rdf.Triple) bool { return k.graph.Contains(t) }

// Triples returns every held triple in insertion order. Read only.
func (k *KB) Triples() []rdf.Triple { return k.graph.Triples() }

// Graph exposes the underlying graph. Callers must not mutate it.
func (k *KB) Graph() *rdf.Graph { return k.graph }

// Match calls fn for each triple that could unify with pattern until fn
// returns true, and reports whether it did. Candidates are narrowed by
// predicate when the index is enabled and the pattern predicate is an IRI;
// fn still performs the real unification.
func (k *KB) Match(pattern rdf.Triple, fn func(rdf.Triple) bool) bool {
	all := k.graph.Triples()
	if !k.indexed || !pattern.Predicate.IsIRI() {
		for _, t := range all {
			if fn(t) {
				return true
			}
		}
		return false
	}
	for _, i := range k.byPredicate[pattern.Predicate] {
		if fn(all[i]) {
			return true
		}
	}
	for _, i := range k.wildPredicate {
		if fn(all[i]) {
			return true
		}
	}
	return false
}
