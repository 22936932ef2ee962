// Package rdf holds the in-memory RDF term model consumed by the verifier:
// terms (IRI, blank node, literal), triples and deduplicated graphs.
package rdf

import (
	"fmt"
	"strings"
)

// TermKind discriminates the variants of Term.
type TermKind uint8

const (
	KindInvalid TermKind = iota
	KindIRI
	KindBlankNode
	KindLiteral
)

func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlankNode:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Term is a tagged RDF term. The zero value is invalid.
//
// Value holds the IRI string, the blank node label (without "_:") or the
// lexical form of a literal. Datatype and Lang are only meaningful for
// literals; an empty Datatype means the literal carries none.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Lang     string
}

// IRI returns a named node. It does not validate the string; use ParseIRI
// for untrusted input.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Blank returns a blank node with the given label.
func Blank(label string) Term {
	return Term{Kind: KindBlankNode, Value: label}
}

// Literal returns a plain literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// XSDString is the datatype of simple literals. TypedLiteral stores it as
// the empty datatype so "v" and "v"^^xsd:string are the same term.
const XSDString = XSDNamespace + "string"

// TypedLiteral returns a literal with a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

func (t Term) IsIRI() bool       { return t.Kind == KindIRI }
func (t Term) IsBlank() bool     { return t.Kind == KindBlankNode }
func (t Term) IsLiteral() bool   { return t.Kind == KindLiteral }
func (t Term) IsValid() bool     { return t.Kind != KindInvalid }
func (t Term) Equal(o Term) bool { return t == o }

// String renders the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return "_:" + t.Value
	case KindLiteral:
		var sb strings.Builder
		sb.WriteByte('"')
		sb.WriteString(escapeLiteral(t.Value))
		sb.WriteByte('"')
		switch {
		case t.Lang != "":
			sb.WriteByte('@')
			sb.WriteString(t.Lang)
		case t.Datatype != "":
			sb.WriteString("^^<")
			sb.WriteString(t.Datatype)
			sb.WriteByte('>')
		}
		return sb.String()
	default:
		return fmt.Sprintf("<invalid term %q>", t.Value)
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// Triple is an ordered (subject, predicate, object) fact.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// T is shorthand for constructing a Triple.
func T(s, p, o Term) Triple {
	return Triple{Subject: s, Predicate: p, Object: o}
}

// String renders the triple as an N-Triples statement.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// HasBlank reports whether any position holds a blank node.
func (t Triple) HasBlank() bool {
	return t.Subject.IsBlank() || t.Predicate.IsBlank() || t.Object.IsBlank()
}
