// Package uri implements the CoAP core's URI-reference value types and
// IETF-RFC3986 §5 reference resolution, grounded on the filtered
// Rust original at async-coap-uri (uri_ref.rs, uri.rs, rel_ref.rs,
// uri_raw_components.rs, escape/*.rs) and re-expressed as plain,
// validated Go string types instead of the original's unsafe
// borrowed/owned split — Go strings are already immutable shared-memory
// views, so there is no separate "buf" type to carry.
package uri

import "strings"

// Ref is a well-formed URI-reference (RFC3986 §4.1): either a Uri or a
// RelRef. The zero value is the empty reference.
type Ref string

// ParseRef validates s as a URI-reference and returns it as a Ref.
func ParseRef(s string) (Ref, error) {
	if _, err := ParseRawComponents(s); err != nil {
		return "", err
	}
	return Ref(s), nil
}

// MustParseRef is ParseRef but panics on error; intended for use with
// trusted, compile-time-constant strings.
func MustParseRef(s string) Ref {
	r, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsValidRef reports whether s is a well-formed URI-reference.
func IsValidRef(s string) bool {
	_, err := ParseRawComponents(s)
	return err == nil
}

func (r Ref) String() string { return string(r) }

// IsEmpty reports whether this reference is the empty string.
func (r Ref) IsEmpty() bool { return len(r) == 0 }

// Type classifies this reference per RFC3986 Appendix B.
func (r Ref) Type() Type { return classify(string(r)) }

// Components decomposes this reference into its raw (still
// percent-encoded) pieces.
func (r Ref) Components() RawComponents {
	c, _ := ParseRawComponents(string(r))
	return c
}

// AsURI attempts to reinterpret this reference as a Uri, returning false
// if it is not usable as a resolution base.
func (r Ref) AsURI() (URI, bool) {
	if r.Type().CanBorrowAsUri() {
		return URI(r), true
	}
	return "", false
}

// AsRelRef attempts to reinterpret this reference as a RelRef, returning
// false if it is not a relative-reference.
func (r Ref) AsRelRef() (RelRef, bool) {
	if r.Type().CanBorrowAsRelRef() {
		return RelRef(r), true
	}
	return "", false
}

// Scheme returns the scheme component, if present, unescaped exactly as
// written (schemes never need percent-decoding).
func (r Ref) Scheme() (string, bool) {
	c := r.Components()
	if c.Scheme == nil {
		return "", false
	}
	return *c.Scheme, true
}

// RawAuthority returns the still-escaped authority component, if present.
func (r Ref) RawAuthority() (string, bool) {
	c := r.Components()
	if !c.HasAuthority() {
		return "", false
	}
	var b strings.Builder
	if c.Userinfo != nil {
		b.WriteString(*c.Userinfo)
		b.WriteByte('@')
	}
	b.WriteString(*c.Host)
	if c.Port != nil {
		b.WriteByte(':')
		b.WriteString(*c.Port)
	}
	return b.String(), true
}

// RawPath returns the still-escaped path component (may be empty).
func (r Ref) RawPath() string {
	return r.Components().Path
}

// RawQuery returns the still-escaped query component, if present.
func (r Ref) RawQuery() (string, bool) {
	c := r.Components()
	if c.Query == nil {
		return "", false
	}
	return *c.Query, true
}

// RawFragment returns the still-escaped fragment component, if present.
// An empty-but-present fragment ("#") is distinct from an absent one.
func (r Ref) RawFragment() (string, bool) {
	c := r.Components()
	if c.Fragment == nil {
		return "", false
	}
	return *c.Fragment, true
}
