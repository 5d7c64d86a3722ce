package ingest

import (
	"fmt"
	"strings"

	"github.com/medcohort/eligibility-api/internal/model"
)

// RefFailureKind distinguishes an absent reference from one that is present
// but cannot be normalized. The two are stored identically (resource dropped
// with a diagnostic) but reported separately.
type RefFailureKind string

const (
	RefMissing   RefFailureKind = "missing_reference"
	RefMalformed RefFailureKind = "malformed_reference"
)

// RefFailure is a typed resolution failure, never to be confused with a
// valid-but-empty identifier.
type RefFailure struct {
	Kind RefFailureKind
	Ref  string
}

func (f *RefFailure) Error() string {
	if f.Ref == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %q", f.Kind, f.Ref)
}

// ResolvePatientID normalizes a raw cross-reference to the canonical patient
// identifier. Accepted shapes:
//
//	Patient/<id>           compound, split on the first separator
//	urn:uuid:<id>          URN, identifier is the trailing segment
//	<id>                   bare identifier
//
// A compound reference naming a different resource type, a contained
// reference (#...), or an empty trailing segment is malformed; a nil or
// empty reference is missing.
func ResolvePatientID(ref *model.Reference) (string, *RefFailure) {
	return resolve(ref, "Patient")
}

// ResolveEncounterID normalizes an encounter cross-reference.
func ResolveEncounterID(ref *model.Reference) (string, *RefFailure) {
	return resolve(ref, "Encounter")
}

func resolve(ref *model.Reference, resourceType string) (string, *RefFailure) {
	if ref == nil || ref.Reference == "" {
		return "", &RefFailure{Kind: RefMissing}
	}
	raw := ref.Reference

	if strings.HasPrefix(raw, "#") {
		return "", &RefFailure{Kind: RefMalformed, Ref: raw}
	}

	if strings.HasPrefix(raw, "urn:") {
		id := raw[strings.LastIndex(raw, ":")+1:]
		if id == "" {
			return "", &RefFailure{Kind: RefMalformed, Ref: raw}
		}
		return id, nil
	}

	if i := strings.Index(raw, "/"); i >= 0 {
		typ, id := raw[:i], raw[i+1:]
		if id == "" || typ != resourceType {
			return "", &RefFailure{Kind: RefMalformed, Ref: raw}
		}
		return id, nil
	}

	// Bare identifier.
	return raw, nil
}
