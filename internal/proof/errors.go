package proof

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a proof failed to verify.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindInvalidIRI
	KindDocumentNotFound
	KindNotAProof
	KindMissingConclusionIncludes
	KindAssertionFailure
	KindImplicationFailure
)

var kindNames = map[ErrorKind]string{
	KindOther:                     "other",
	KindInvalidIRI:                "invalid_iri",
	KindDocumentNotFound:          "document_not_found",
	KindNotAProof:                 "not_a_proof",
	KindMissingConclusionIncludes: "missing_conclusion_includes",
	KindAssertionFailure:          "assertion_failure",
	KindImplicationFailure:        "implication_failure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
//
// ErrDocumentNotFound is part of the taxonomy but the verifier never returns
// it: a document absent from the graph surfaces as ErrNotAProof.
var (
	ErrOther                     = errors.New("proof check failed")
	ErrInvalidIRI                = errors.New("invalid IRI")
	ErrDocumentNotFound          = errors.New("document not found")
	ErrNotAProof                 = errors.New("not a log:Proof")
	ErrMissingConclusionIncludes = errors.New("missing log:conclusion or log:includes")
	ErrAssertionFailure          = errors.New("assertion failure")
	ErrImplicationFailure        = errors.New("implication failure")
)

var sentinels = map[ErrorKind]error{
	KindOther:                     ErrOther,
	KindInvalidIRI:                ErrInvalidIRI,
	KindDocumentNotFound:          ErrDocumentNotFound,
	KindNotAProof:                 ErrNotAProof,
	KindMissingConclusionIncludes: ErrMissingConclusionIncludes,
	KindAssertionFailure:          ErrAssertionFailure,
	KindImplicationFailure:        ErrImplicationFailure,
}

// Error is the failure returned by Verify. Subject names the offending IRI
// or formula anchor.
type Error struct {
	Kind    ErrorKind
	Subject string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidIRI:
		msg = fmt.Sprintf("invalid IRI: %s", e.Subject)
	case KindDocumentNotFound:
		msg = fmt.Sprintf("document <%s> not found in the graph", e.Subject)
	case KindNotAProof:
		msg = fmt.Sprintf("document <%s> is not recognized as a log:Proof", e.Subject)
	case KindMissingConclusionIncludes:
		msg = fmt.Sprintf("missing log:conclusion or log:includes in <%s>", e.Subject)
	case KindAssertionFailure:
		msg = fmt.Sprintf("failed assertion check: formula <%s> not satisfied by current KB", e.Subject)
	case KindImplicationFailure:
		msg = fmt.Sprintf("failed implication check: conclusion <%s>", e.Subject)
	default:
		msg = "proof check failed"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// KindOf extracts the kind of a verification error. ok is false for nil and
// for errors that did not come from the verifier.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return KindOther, false
}

func newError(kind ErrorKind, subject, detail string) *Error {
	return &Error{Kind: kind, Subject: subject, Detail: detail}
}
