package rdf

import "github.com/cayleygraph/quad/voc"

// Namespaces the proof vocabulary lives in.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	LogNamespace = "http://www.w3.org/2000/10/swap/log#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

// Fixed IRIs the verifier depends on. These are constants of the system,
// not configuration.
const (
	RDFType       = RDFNamespace + "type"
	LogProof      = LogNamespace + "Proof"
	LogConclusion = LogNamespace + "conclusion"
	LogIncludes   = LogNamespace + "includes"
	LogImplies    = LogNamespace + "implies"
)

var (
	TypeTerm       = MustIRI(RDFType)
	ProofTerm      = MustIRI(LogProof)
	ConclusionTerm = MustIRI(LogConclusion)
	IncludesTerm   = MustIRI(LogIncludes)
	ImpliesTerm    = MustIRI(LogImplies)
)

func init() {
	voc.RegisterPrefix("rdf:", RDFNamespace)
	voc.RegisterPrefix("log:", LogNamespace)
	voc.RegisterPrefix("xsd:", XSDNamespace)
}

// Short renders a term for diagnostics, compacting rdf:, log: and xsd: IRIs.
func Short(t Term) string {
	if t.IsIRI() {
		if s := voc.ShortIRI(t.Value); s != t.Value {
			return s
		}
	}
	return t.String()
}
