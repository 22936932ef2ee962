package nquads

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"n3proof/internal/rdf"
)

const proofDoc = `<http://example.org/myProof> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2000/10/swap/log#Proof> .
<http://example.org/myProof> <http://www.w3.org/2000/10/swap/log#includes> <http://example.org/premise> .
<http://example.org/myProof> <http://www.w3.org/2000/10/swap/log#conclusion> <http://example.org/goal> .
<http://example.org/premise> <http://www.w3.org/2000/10/swap/log#implies> <http://example.org/goal> .
<http://example.org/Alice> <http://example.org/knows> <http://example.org/Bob> .
<http://example.org/Alice> <http://example.org/name> "Alice"@en .
<http://example.org/Alice> <http://example.org/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
<http://example.org/Alice> <http://example.org/knows> <http://example.org/Bob> <http://example.org/premise> .
<http://example.org/Alice> <http://example.org/friendsWith> _:someone <http://example.org/goal> .
`

var (
	alice   = rdf.IRI("http://example.org/Alice")
	bob     = rdf.IRI("http://example.org/Bob")
	knows   = rdf.IRI("http://example.org/knows")
	premise = rdf.IRI("http://example.org/premise")
	goal    = rdf.IRI("http://example.org/goal")
)

func TestLoadSplitsAssertedAndQuoted(t *testing.T) {
	g, err := Load(strings.NewReader(proofDoc))
	require.NoError(t, err)

	assert.Equal(t, 7, g.Len())
	assert.True(t, g.Contains(rdf.T(alice, knows, bob)))
	assert.True(t, g.Contains(rdf.T(alice, rdf.IRI("http://example.org/name"), rdf.LangLiteral("Alice", "en"))))
	assert.True(t, g.Contains(rdf.T(alice, rdf.IRI("http://example.org/age"), rdf.TypedLiteral("42", rdf.XSDNamespace+"integer"))))

	if diff := cmp.Diff([]rdf.Triple{rdf.T(alice, knows, bob)}, g.QuotedTriples(premise)); diff != "" {
		t.Errorf("quoted premise (-want +got):\n%s", diff)
	}
	got := g.QuotedTriples(goal)
	require.Len(t, got, 1)
	assert.True(t, got[0].Object.IsBlank())
}

func TestLoadPlainStringTypedAsXSDString(t *testing.T) {
	g, err := Load(strings.NewReader(`<http://ex/s> <http://ex/p> "v"^^<http://www.w3.org/2001/XMLSchema#string> .` + "\n"))
	require.NoError(t, err)
	assert.True(t, g.Contains(rdf.T(rdf.IRI("http://ex/s"), rdf.IRI("http://ex/p"), rdf.Literal("v"))))
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"garbage":           "this is not a statement\n",
		"literal predicate": `<http://ex/s> "p" <http://ex/o> .` + "\n",
		"blank predicate":   `<http://ex/s> _:p <http://ex/o> .` + "\n",
		"literal label":     `<http://ex/s> <http://ex/p> <http://ex/o> "g" .` + "\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "%v", err)
			assert.Contains(t, err.Error(), "statement 1")
		})
	}
}

func TestWriteRoundTrips(t *testing.T) {
	g, err := Load(strings.NewReader(proofDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))

	back, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Triples(), back.Triples())
	assert.Equal(t, g.QuotedAnchors(), back.QuotedAnchors())
	assert.Equal(t, Digest(g), Digest(back))
}

func TestDigestIgnoresOrder(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(proofDoc), "\n")
	reversed := make([]string, len(lines))
	for i, l := range lines {
		reversed[len(lines)-1-i] = l
	}

	a, err := Load(strings.NewReader(proofDoc))
	require.NoError(t, err)
	b, err := Load(strings.NewReader(strings.Join(reversed, "\n") + "\n"))
	require.NoError(t, err)
	assert.Equal(t, DigestHex(a), DigestHex(b))
	assert.Len(t, DigestHex(a), 64)

	b.Insert(rdf.T(bob, knows, alice))
	assert.NotEqual(t, DigestHex(a), DigestHex(b))

	c := a.Clone()
	c.Quote(premise, rdf.T(bob, knows, alice))
	assert.NotEqual(t, DigestHex(a), DigestHex(c), "quoted content is part of the digest")
}

func TestLoadFilesMerges(t *testing.T) {
	dir := t.TempDir()
	lines := strings.SplitAfter(proofDoc, ".\n")
	first := filepath.Join(dir, "a.nq")
	second := filepath.Join(dir, "b.nq")
	require.NoError(t, os.WriteFile(first, []byte(strings.Join(lines[:4], "")), 0644))
	require.NoError(t, os.WriteFile(second, []byte(strings.Join(lines[4:], "")), 0644))

	merged, err := LoadFiles(first, second)
	require.NoError(t, err)
	whole, err := Load(strings.NewReader(proofDoc))
	require.NoError(t, err)
	assert.Equal(t, Digest(whole), Digest(merged))

	single, err := LoadFile(first)
	require.NoError(t, err)
	assert.Equal(t, 4, single.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.nq"))
	assert.Error(t, err)
}
