// Package nquads reads and writes proof graphs in N-Triples / N-Quads.
//
// Statements in the default graph are asserted. A statement labelled with a
// graph name is quoted content of the formula anchored at that name, which is
// how N3 formulas such as { :a :b :c } log:implies { ... } are carried in
// N-Quads.
package nquads

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	"n3proof/internal/rdf"
)

// ErrSyntax marks input that could not be turned into a graph.
var ErrSyntax = errors.New("nquads: invalid statement")

// Load reads every statement from r into a new graph.
func Load(r io.Reader) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	if err := LoadInto(g, r); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadInto adds every statement from r to g. On error g holds the
// statements read before the failing one.
func LoadInto(g *rdf.Graph, r io.Reader) error {
	qr := nquads.NewReader(r, true)
	defer qr.Close()

	for n := 1; ; n++ {
		q, err := qr.ReadQuad()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: statement %d: %v", ErrSyntax, n, err)
		}

		t, err := toTriple(q)
		if err != nil {
			return fmt.Errorf("%w: statement %d: %v", ErrSyntax, n, err)
		}
		if q.Label == nil {
			g.Insert(t)
			continue
		}
		label, err := toTerm(q.Label)
		if err != nil || label.IsLiteral() {
			return fmt.Errorf("%w: statement %d: graph label must be an IRI or blank node", ErrSyntax, n)
		}
		g.Quote(label, t)
	}
}

// LoadFile reads a graph from path. Several files may be merged by calling
// LoadInto on the same graph.
func LoadFile(path string) (*rdf.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// LoadFiles merges every file into one graph, in argument order.
func LoadFiles(paths ...string) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		err = LoadInto(g, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return g, nil
}

func toTriple(q quad.Quad) (rdf.Triple, error) {
	s, err := toTerm(q.Subject)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("subject: %w", err)
	}
	if s.IsLiteral() {
		return rdf.Triple{}, fmt.Errorf("subject must be an IRI or blank node")
	}
	p, err := toTerm(q.Predicate)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate: %w", err)
	}
	if !p.IsIRI() {
		return rdf.Triple{}, fmt.Errorf("predicate must be an IRI, got %s", p)
	}
	o, err := toTerm(q.Object)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("object: %w", err)
	}
	return rdf.T(s, p, o), nil
}

func toTerm(v quad.Value) (rdf.Term, error) {
	switch v := v.(type) {
	case quad.IRI:
		return rdf.IRI(string(v)), nil
	case quad.BNode:
		return rdf.Blank(string(v)), nil
	case quad.String:
		return rdf.Literal(string(v)), nil
	case quad.TypedString:
		if string(v.Type) == rdf.XSDNamespace+"string" {
			return rdf.Literal(string(v.Value)), nil
		}
		return rdf.TypedLiteral(string(v.Value), string(v.Type)), nil
	case quad.LangString:
		return rdf.LangLiteral(string(v.Value), v.Lang), nil
	case nil:
		return rdf.Term{}, fmt.Errorf("missing term")
	}
	return rdf.Term{}, fmt.Errorf("unsupported term %T", v)
}

func fromTerm(t rdf.Term) quad.Value {
	switch t.Kind {
	case rdf.KindIRI:
		return quad.IRI(t.Value)
	case rdf.KindBlankNode:
		return quad.BNode(t.Value)
	case rdf.KindLiteral:
		switch {
		case t.Lang != "":
			return quad.LangString{Value: quad.String(t.Value), Lang: t.Lang}
		case t.Datatype != "":
			return quad.TypedString{Value: quad.String(t.Value), Type: quad.IRI(t.Datatype)}
		}
		return quad.String(t.Value)
	}
	return nil
}

// Write serializes g: asserted triples first in graph order, then quoted
// content grouped by anchor.
func Write(w io.Writer, g *rdf.Graph) error {
	qw := nquads.NewWriter(w)
	for _, t := range g.Triples() {
		if err := qw.WriteQuad(quad.Quad{Subject: fromTerm(t.Subject), Predicate: fromTerm(t.Predicate), Object: fromTerm(t.Object)}); err != nil {
			return fmt.Errorf("failed to write statement: %w", err)
		}
	}
	for _, anchor := range g.QuotedAnchors() {
		label := fromTerm(anchor)
		for _, t := range g.QuotedTriples(anchor) {
			q := quad.Quad{Subject: fromTerm(t.Subject), Predicate: fromTerm(t.Predicate), Object: fromTerm(t.Object), Label: label}
			if err := qw.WriteQuad(q); err != nil {
				return fmt.Errorf("failed to write statement: %w", err)
			}
		}
	}
	return qw.Close()
}

// Digest is the SHA-256 of the sorted canonical statements of g. Two graphs
// with the same statements have the same digest regardless of input order;
// blank node labels are not canonicalized.
func Digest(g *rdf.Graph) [32]byte {
	lines := make([]string, 0, g.Len())
	for _, t := range g.Triples() {
		lines = append(lines, t.String())
	}
	for _, anchor := range g.QuotedAnchors() {
		for _, t := range g.QuotedTriples(anchor) {
			lines = append(lines, fmt.Sprintf("%s %s %s %s .", t.Subject, t.Predicate, t.Object, anchor))
		}
	}
	sort.Strings(lines)
	return sha256.Sum256([]byte(strings.Join(lines, "\n")))
}

// DigestHex renders Digest as lowercase hex.
func DigestHex(g *rdf.Graph) string {
	d := Digest(g)
	return fmt.Sprintf("%x", d[:])
}
