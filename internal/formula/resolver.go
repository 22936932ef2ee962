package formula

import (
	"errors"
	"fmt"

	"n3proof/internal/rdf"
)

// ErrCycle is returned when nested formula resolution revisits a node that
// is still being resolved.
var ErrCycle = errors.New("formula cycle")

// Resolver expands formulas through blank-node objects: a triple whose object
// is a blank node with outgoing triples pulls those triples into the formula,
// recursively. Results are memoized per anchor.
//
// A Resolver reads one graph and is not safe for concurrent use.
type Resolver struct {
	graph    *rdf.Graph
	memo     map[rdf.Term][]rdf.Triple
	visiting map[rdf.Term]bool
}

// NewResolver returns a resolver over g.
func NewResolver(g *rdf.Graph) *Resolver {
	return &Resolver{
		graph:    g,
		memo:     make(map[rdf.Term][]rdf.Triple),
		visiting: make(map[rdf.Term]bool),
	}
}

// Resolve returns the formula at anchor with nested blank-node structure
// flattened into it, deduplicated and in discovery order.
func (r *Resolver) Resolve(anchor rdf.Term) (Formula, error) {
	triples, err := r.resolve(anchor, []rdf.Term{anchor})
	if err != nil {
		return Formula{Anchor: anchor}, err
	}
	return Formula{Anchor: anchor, Triples: triples}, nil
}

func (r *Resolver) resolve(node rdf.Term, path []rdf.Term) ([]rdf.Triple, error) {
	if cached, ok := r.memo[node]; ok {
		return cached, nil
	}
	if r.visiting[node] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, renderPath(path))
	}
	r.visiting[node] = true
	defer delete(r.visiting, node)

	seen := make(map[rdf.Triple]struct{})
	var out []rdf.Triple
	add := func(t rdf.Triple) {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	for _, t := range r.graph.TriplesForSubject(node) {
		add(t)
		if !t.Object.IsBlank() {
			continue
		}
		nested, err := r.resolve(t.Object, append(path, t.Object))
		if err != nil {
			return nil, err
		}
		for _, n := range nested {
			add(n)
		}
	}
	// Quoted content is self-contained; its blank nodes are not expanded
	// against asserted triples.
	for _, t := range r.graph.QuotedTriples(node) {
		add(t)
	}

	r.memo[node] = out
	return out, nil
}

func renderPath(path []rdf.Term) string {
	s := ""
	for i, t := range path {
		if i > 0 {
			s += " -> "
		}
		s += rdf.Short(t)
	}
	return s
}
