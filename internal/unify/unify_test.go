package unify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"n3proof/internal/rdf"
)

var (
	alice   = rdf.IRI("http://example.org/Alice")
	bob     = rdf.IRI("http://example.org/Bob")
	carol   = rdf.IRI("http://example.org/Carol")
	knows   = rdf.IRI("http://example.org/knows")
	name    = rdf.IRI("http://example.org/name")
	xsdInt  = rdf.XSDNamespace + "integer"
	blankX  = rdf.Blank("x")
	blankY  = rdf.Blank("y")
	literal = rdf.Literal("Bob")
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name string
		a, b rdf.Term
		want bool
	}{
		{"same iri", alice, alice, true},
		{"different iri", alice, bob, false},
		{"blank left", blankX, bob, true},
		{"blank right", literal, blankX, true},
		{"two blanks", blankX, blankY, true},
		{"same literal", literal, rdf.Literal("Bob"), true},
		{"literal value differs", literal, rdf.Literal("Alice"), false},
		{"literal datatype differs", rdf.TypedLiteral("1", xsdInt), rdf.Literal("1"), false},
		{"literal lang differs", rdf.LangLiteral("a", "en"), rdf.LangLiteral("a", "de"), false},
		{"typed literal equal", rdf.TypedLiteral("1", xsdInt), rdf.TypedLiteral("1", xsdInt), true},
		{"iri vs literal", bob, literal, false},
		{"iri vs literal with same text", rdf.IRI("Bob"), rdf.Literal("Bob"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terms(tt.a, tt.b))
			assert.Equal(t, tt.want, Terms(tt.b, tt.a), "unification must be symmetric")
		})
	}
}

func TestTriplesWildcardPosition(t *testing.T) {
	pattern := rdf.T(alice, knows, blankX)

	// Any object, of any kind, matches the blank position.
	for _, obj := range []rdf.Term{bob, carol, literal, rdf.TypedLiteral("7", xsdInt), blankY} {
		assert.True(t, Triples(pattern, rdf.T(alice, knows, obj)), "object %s", obj)
	}

	assert.False(t, Triples(pattern, rdf.T(bob, knows, carol)), "subject must still agree")
	assert.False(t, Triples(pattern, rdf.T(alice, name, carol)), "predicate must still agree")
}

func TestTriplesBlankDoesNotBind(t *testing.T) {
	// The same blank label in two positions matches two different terms.
	pattern := rdf.T(blankX, knows, blankX)
	assert.True(t, Triples(pattern, rdf.T(alice, knows, bob)))
}

func TestTriplesWithBindsConsistently(t *testing.T) {
	pattern := rdf.T(blankX, knows, blankX)

	_, ok := TriplesWith(nil, pattern, rdf.T(alice, knows, bob))
	assert.False(t, ok, "x cannot be both Alice and Bob")

	b, ok := TriplesWith(nil, pattern, rdf.T(alice, knows, alice))
	require.True(t, ok)
	got, bound := b.Lookup("x")
	require.True(t, bound)
	assert.Equal(t, alice, got)
}

func TestTriplesWithThreadsAcrossTriples(t *testing.T) {
	b, ok := TriplesWith(Bindings{}, rdf.T(blankX, knows, bob), rdf.T(alice, knows, bob))
	require.True(t, ok)

	_, ok = TriplesWith(b, rdf.T(blankX, name, literal), rdf.T(carol, name, literal))
	assert.False(t, ok, "x already bound to Alice")

	_, ok = TriplesWith(b, rdf.T(blankX, name, literal), rdf.T(alice, name, literal))
	assert.True(t, ok)
}

func TestBindLeavesOriginalUntouched(t *testing.T) {
	orig := Bindings{"x": alice}
	next := orig.Bind("y", bob)

	assert.Len(t, orig, 1)
	assert.Len(t, next, 2)
}

func TestTriplesWithFailureKeepsBindings(t *testing.T) {
	orig := Bindings{"x": alice}
	got, ok := TriplesWith(orig, rdf.T(blankY, knows, carol), rdf.T(bob, knows, alice))
	assert.False(t, ok)
	assert.Equal(t, orig, got)
}
