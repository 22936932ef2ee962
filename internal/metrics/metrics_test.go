package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"n3proof/internal/proof"
	"n3proof/internal/rdf"
)

func verified() *proof.Report {
	s := rdf.IRI("http://ex/s")
	return &proof.Report{
		Document: "http://ex/doc",
		Conclusions: []proof.ConclusionResult{{
			Rules: []proof.RuleStep{{
				Outcome: proof.OutcomeDerived,
				Derived: []rdf.Triple{rdf.T(s, rdf.IRI("http://ex/p"), rdf.IRI("http://ex/a")), rdf.T(s, rdf.IRI("http://ex/p"), rdf.IRI("http://ex/b"))},
			}},
			Proven: true,
		}},
		KBAfter:  7,
		Duration: 3 * time.Millisecond,
	}
}

func TestObserveCountsVerdicts(t *testing.T) {
	m := New(nil)
	m.Observe(verified())
	m.Observe(verified())
	m.Observe(&proof.Report{Err: &proof.Error{Kind: proof.KindNotAProof}, KBAfter: 2})
	m.Observe(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.verifications.WithLabelValues("verified", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("failed", "not_a_proof")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.derived))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.kbSize))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New(nil)
	m.Observe(verified())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `n3proof_verifications_total{kind="none",verdict="verified"} 1`), body)
	assert.Contains(t, body, "n3proof_verification_duration_seconds_count 1")
}

func TestNewUsesGivenRegistry(t *testing.T) {
	m := New(nil)
	m.Observe(verified())
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "n3proof_verifications_total")
	assert.Contains(t, names, "n3proof_derived_triples_total")
}
