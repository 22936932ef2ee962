package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"n3proof/internal/logging"
	"n3proof/internal/nquads"
	"n3proof/internal/proof"
)

const (
	log   = "http://www.w3.org/2000/10/swap/log#"
	rdfNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Two proofs over one fact: good derives a quoted conclusion, bad names a
// premise that does not hold.
const twoProofs = `<http://ex/good> <` + rdfNS + `type> <` + log + `Proof> .
<http://ex/good> <` + log + `includes> <http://ex/fact> .
<http://ex/good> <` + log + `conclusion> <http://ex/derived> .
<http://ex/fact> <` + log + `implies> <http://ex/derived> .
<http://ex/Alice> <http://ex/knows> <http://ex/Bob> .
<http://ex/Alice> <http://ex/knows> <http://ex/Bob> <http://ex/fact> .
<http://ex/Bob> <http://ex/knows> <http://ex/Alice> <http://ex/derived> .
<http://ex/bad> <` + rdfNS + `type> <` + log + `Proof> .
<http://ex/bad> <` + log + `includes> <http://ex/missing> .
<http://ex/bad> <` + log + `conclusion> <http://ex/derived> .
<http://ex/Carol> <http://ex/knows> <http://ex/Dave> <http://ex/missing> .
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testVerifier(t *testing.T) *proof.Verifier {
	return proof.NewVerifier(proof.Options{}, zaptest.NewLogger(t))
}

func TestVerifyAllKeepsDocumentOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zapcore.DebugLevel)
	logging.UseLogger(zap.New(core))
	t.Cleanup(func() { logging.UseLogger(nil) })

	path := writeFile(t, t.TempDir(), "proofs.nq", twoProofs)
	g, err := nquads.LoadFile(path)
	require.NoError(t, err)

	reports, err := VerifyAll(context.Background(), testVerifier(t), g, 4)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, logs.FilterMessage("Verified 1 of 2 proof documents").Len())

	assert.Equal(t, "http://ex/good", reports[0].Document)
	assert.True(t, reports[0].Verified(), "%v", reports[0].Err)
	assert.Len(t, reports[0].Derived(), 1)

	assert.Equal(t, "http://ex/bad", reports[1].Document)
	assert.True(t, errors.Is(reports[1].Err, proof.ErrAssertionFailure), "%v", reports[1].Err)
}

func TestRunMixesOutcomesInJobOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	proofs := writeFile(t, dir, "proofs.nq", twoProofs)
	broken := writeFile(t, dir, "broken.nq", "not n-quads at all\n")
	empty := writeFile(t, dir, "empty.nq", "<http://ex/s> <http://ex/p> <http://ex/o> .\n")

	jobs := []Job{
		{Files: []string{proofs}, Document: "http://ex/good"},
		{Files: []string{broken}},
		{Files: []string{proofs}},
		{Files: []string{empty}},
	}
	results, err := Run(context.Background(), testVerifier(t), jobs, 2)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.False(t, results[0].Failed())
	assert.Len(t, results[0].Digest, 64)

	assert.True(t, results[1].Failed())
	assert.True(t, errors.Is(results[1].Err, nquads.ErrSyntax), "%v", results[1].Err)

	assert.Equal(t, "http://ex/good", results[2].Report.Document)
	assert.False(t, results[2].Failed())
	assert.Equal(t, "http://ex/bad", results[3].Report.Document)
	assert.True(t, results[3].Failed())
	assert.Equal(t, results[0].Digest, results[2].Digest)

	assert.True(t, errors.Is(results[4].Err, ErrNoProofs))
	assert.Equal(t, empty, results[4].Job.Source())
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := writeFile(t, t.TempDir(), "proofs.nq", twoProofs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = Job{Files: []string{path}}
	}
	_, err := Run(ctx, testVerifier(t), jobs, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
