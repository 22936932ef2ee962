package rdf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIRI(t *testing.T) {
	valid := []string{
		"http://example.org/myProof",
		"urn:uuid:6e8bc430-9c3a-11d9-9669-0800200c9a66",
		"http://example.org/a%20b",
		"tag:example.org,2024:x",
		"http://例え.jp/証明",
		"http://[2001:db8::7]:8080/proof#frag",
		"urn:example:[not-an-authority",
	}
	for _, s := range valid {
		if _, err := ParseIRI(s); err != nil {
			t.Errorf("ParseIRI(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{
		"",
		"no-scheme",
		":missing",
		"1http://example.org",
		"http://example.org/with space",
		"http://example.org/<bad>",
		"http://example.org/%zz",
		"http://example.org/%2",
		"http://example.org/\xff\xfe",
		"http://example.org/a#b#c",
		"http://[::1/path",
		"http://::1]/path",
		"http://[::1]]:80/",
	}
	for _, s := range invalid {
		_, err := ParseIRI(s)
		if !errors.Is(err, ErrInvalidIRI) {
			t.Errorf("ParseIRI(%q) = %v, want ErrInvalidIRI", s, err)
		}
	}
}

func TestTermString(t *testing.T) {
	tests := []struct {
		term Term
		want string
	}{
		{IRI("http://example.org/a"), "<http://example.org/a>"},
		{Blank("b0"), "_:b0"},
		{Literal("hi \"there\""), `"hi \"there\""`},
		{LangLiteral("chat", "fr"), `"chat"@fr`},
		{TypedLiteral("42", XSDNamespace+"integer"), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
	}
	for _, tt := range tests {
		if got := tt.term.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestXSDStringIsSimpleLiteral(t *testing.T) {
	plain := Literal("Bob")
	typed := TypedLiteral("Bob", XSDString)
	if plain != typed {
		t.Errorf("TypedLiteral(xsd:string) = %#v, want %#v", typed, plain)
	}
	if got := typed.String(); got != `"Bob"` {
		t.Errorf("String() = %s", got)
	}
	if TypedLiteral("Bob", XSDNamespace+"token") == plain {
		t.Error("other datatypes must stay distinct")
	}

	s, p := IRI("http://ex/s"), IRI("http://ex/name")
	g := NewGraph(T(s, p, plain))
	g.Insert(T(s, p, typed))
	if g.Len() != 1 {
		t.Errorf("Len() = %d after inserting both spellings, want 1", g.Len())
	}
}

func TestMustIRIPanicsOnInvalid(t *testing.T) {
	if got := MustIRI("http://ex/a"); got != IRI("http://ex/a") {
		t.Errorf("MustIRI = %v", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustIRI accepted a relative reference")
		}
	}()
	MustIRI("relative")
}

func TestGraphDeduplicatesAndKeepsOrder(t *testing.T) {
	a, b, c := IRI("http://ex/a"), IRI("http://ex/b"), IRI("http://ex/c")
	p := IRI("http://ex/p")

	g := NewGraph()
	if !g.Insert(T(a, p, b)) {
		t.Fatal("first insert reported duplicate")
	}
	g.Insert(T(b, p, c))
	if g.Insert(T(a, p, b)) {
		t.Fatal("duplicate insert reported as new")
	}
	g.Insert(T(a, p, c))

	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", g.Len())
	}

	want := []Triple{T(a, p, b), T(a, p, c)}
	if diff := cmp.Diff(want, g.TriplesForSubject(a)); diff != "" {
		t.Errorf("TriplesForSubject mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Term{b, c}, g.Objects(a, p)); diff != "" {
		t.Errorf("Objects mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphCloneIsIndependent(t *testing.T) {
	a, p, b := IRI("http://ex/a"), IRI("http://ex/p"), IRI("http://ex/b")
	g := NewGraph(T(a, p, b))
	c := g.Clone()
	c.Insert(T(b, p, a))

	if g.Len() != 1 {
		t.Errorf("original graph grew to %d triples", g.Len())
	}
	if c.Len() != 2 || !c.Has(b, p, a) {
		t.Errorf("clone missing inserted triple")
	}
	if len(g.TriplesForSubject(b)) != 0 {
		t.Errorf("subject index leaked into original")
	}
}

func TestProofDocuments(t *testing.T) {
	doc := IRI("http://ex/proof")
	g := NewGraph(
		T(doc, TypeTerm, ProofTerm),
		T(Blank("x"), TypeTerm, ProofTerm),
		T(IRI("http://ex/other"), TypeTerm, IRI("http://ex/Thing")),
	)
	if diff := cmp.Diff([]Term{doc}, g.ProofDocuments()); diff != "" {
		t.Errorf("ProofDocuments mismatch (-want +got):\n%s", diff)
	}
}

func TestShortCompactsVocabulary(t *testing.T) {
	if got := Short(ProofTerm); got != "log:Proof" {
		t.Errorf("Short(log:Proof) = %q", got)
	}
	if got := Short(Literal("x")); got != `"x"` {
		t.Errorf("Short(literal) = %q", got)
	}
}

func TestQuotedTriplesAreNotAsserted(t *testing.T) {
	anchor := IRI("http://ex/f")
	a, p, b := IRI("http://ex/a"), IRI("http://ex/p"), IRI("http://ex/b")

	g := NewGraph()
	if !g.Quote(anchor, T(a, p, b)) {
		t.Fatal("first Quote should report a new triple")
	}
	if g.Quote(anchor, T(a, p, b)) {
		t.Error("duplicate Quote should report false")
	}
	if g.Len() != 0 || g.Contains(T(a, p, b)) {
		t.Errorf("quoted triple leaked into asserted set: len=%d", g.Len())
	}

	c := g.Clone()
	c.Quote(anchor, T(b, p, a))
	if diff := cmp.Diff([]Triple{T(a, p, b)}, g.QuotedTriples(anchor)); diff != "" {
		t.Errorf("original quoted content changed (-want +got):\n%s", diff)
	}
	if got := len(c.QuotedTriples(anchor)); got != 2 {
		t.Errorf("clone quoted len = %d, want 2", got)
	}
	if diff := cmp.Diff([]Term{anchor}, g.QuotedAnchors()); diff != "" {
		t.Errorf("QuotedAnchors (-want +got):\n%s", diff)
	}
}
