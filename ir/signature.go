package ir

import "strings"

// Visibility mirrors the access modifiers a signature may declare; not every
// source language expresses all of these, generators map to the closest fit.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

// SignatureEntity models a function/method signature. signature_hash is the
// sole criterion for SIGNATURE-level impact classification (spec §4.5.2):
// it must be stable under body edits and unstable under any parameter,
// return-type, async/static, or visibility change.
type SignatureEntity struct {
	ID               string
	OwnerNodeID      string
	Name             string
	Raw              string
	ParameterTypeIDs []string
	ReturnTypeID     string
	Visibility       Visibility
	IsAsync          bool
	IsStatic         bool
	ThrowsTypeIDs    []string
	SignatureHash    string

	// ChangeFrequency counts how many times this function/method has been
	// classified BODY_LOCAL or SIGNATURE across rebuilds, carried forward
	// from the prior snapshot's SignatureEntity of the same fqn. It is a
	// tie-break signal only (a frequently-edited symbol is weakly more
	// likely to be what a code_search query wants) — it never enters the
	// RRF score itself.
	ChangeFrequency int
}

// Normalize produces the canonical string SignatureHash is computed over.
// Order matters and is fixed so equivalent signatures always normalize
// identically regardless of the source language's own formatting.
func (s *SignatureEntity) Normalize() string {
	var b strings.Builder
	b.WriteString(string(s.Visibility))
	b.WriteByte('|')
	if s.IsStatic {
		b.WriteString("static")
	}
	b.WriteByte('|')
	if s.IsAsync {
		b.WriteString("async")
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(s.ParameterTypeIDs, ","))
	b.WriteByte('|')
	b.WriteString(s.ReturnTypeID)
	b.WriteByte('|')
	b.WriteString(strings.Join(s.ThrowsTypeIDs, ","))
	return b.String()
}

// Rehash recomputes SignatureHash from the current field values. Generators
// call this once they have fully populated a signature; the incremental
// rebuilder calls it again on SIGNATURE-level rebuilds to detect change.
func (s *SignatureEntity) Rehash() {
	s.SignatureHash = SignatureHash(s.Normalize())
}
