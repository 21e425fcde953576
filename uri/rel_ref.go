package uri

import "strings"

// RelRef is a relative-reference (RFC3986 §4.2) that can never be used
// as a resolution base. Unlike Ref, constructing a RelRef only checks
// percent-encoding well-formedness — it does not reject strings whose
// first path segment looks like a scheme or whose path starts with
// "//"; those are instead flagged by IsDegenerate so callers can render
// them unambiguously instead of silently mis-parsing as a Uri.
type RelRef string

// ParseRelRef validates s as a relative-reference's raw text.
func ParseRelRef(s string) (RelRef, error) {
	if err := checkWellFormedness(s); err != nil {
		return "", err
	}
	return RelRef(s), nil
}

// MustParseRelRef is ParseRelRef but panics on error.
func MustParseRelRef(s string) RelRef {
	r, err := ParseRelRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r RelRef) raw() string { return string(r) }

// Type classifies this relative reference. It only ever returns
// TypeFragment, TypeQuery, TypeAbsolutePath, or TypeRelativePath — a
// RelRef built from a degenerate ("//...") string still reports
// TypeAbsolutePath, because by construction a RelRef is never a
// network-path.
func (r RelRef) Type() Type {
	s := r.raw()
	switch {
	case strings.HasPrefix(s, "#"):
		return TypeFragment
	case strings.HasPrefix(s, "?"):
		return TypeQuery
	case strings.HasPrefix(s, "/"):
		return TypeAbsolutePath
	default:
		return TypeRelativePath
	}
}

// IsEmpty reports whether the underlying text is empty.
func (r RelRef) IsEmpty() bool { return len(r) == 0 }

// colonInFirstPathSegment returns the byte index of a ':' found while
// scanning an RFC3986 scheme-like prefix (letters/digits/"+-." ) at the
// start of the string, or -1 if none is found before a character that
// can't appear in a scheme.
func (r RelRef) colonInFirstPathSegment() int {
	s := r.raw()
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case i == 0 && c >= '0' && c <= '9':
			return -1
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			continue
		case c == '+' || c == '-' || c == '.':
			continue
		case c == ':':
			return i
		default:
			return -1
		}
	}
	return -1
}

// IsDegenerate reports whether this RelRef would be mis-parsed as a Uri
// if rendered literally: either its first path segment contains ':' in
// a scheme-like position, or it begins with "//".
func (r RelRef) IsDegenerate() bool {
	return strings.HasPrefix(r.raw(), "//") || r.colonInFirstPathSegment() >= 0
}

// String renders this relative reference unambiguously: a degenerate
// leading colon is percent-escaped, and a leading "//" is preceded by
// "/." so it cannot be mistaken for a network-path.
func (r RelRef) String() string {
	s := r.raw()
	if i := r.colonInFirstPathSegment(); i >= 0 {
		return s[:i] + "%3A" + s[i+1:]
	}
	if strings.HasPrefix(s, "//") {
		return "/." + s
	}
	return s
}

// TryAsRef reinterprets this RelRef as a general Ref, returning false
// if it IsDegenerate (in which case casting would change its meaning).
func (r RelRef) TryAsRef() (Ref, bool) {
	if r.IsDegenerate() {
		return "", false
	}
	return Ref(r.raw()), true
}

// RawPath returns the path portion (without query/fragment), still
// percent-encoded.
func (r RelRef) RawPath() string {
	s := r.raw()
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

// RawQuery returns the query component, if present.
func (r RelRef) RawQuery() (string, bool) {
	s := r.raw()
	qi := strings.IndexByte(s, '?')
	if qi < 0 {
		return "", false
	}
	rest := s[qi+1:]
	if fi := strings.IndexByte(rest, '#'); fi >= 0 {
		return rest[:fi], true
	}
	return rest, true
}

// RawFragment returns the fragment component, if present.
func (r RelRef) RawFragment() (string, bool) {
	s := r.raw()
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[i+1:], true
	}
	return "", false
}

// RawPathSegments splits RawPath on "/", mirroring the Rust original's
// raw_path_segments: a leading slash contributes no empty first segment.
func (r RelRef) RawPathSegments() []string {
	p := r.RawPath()
	if p == "" {
		return nil
	}
	if strings.HasPrefix(p, "/") {
		p = p[1:]
	}
	return strings.Split(p, "/")
}

// PathSegments returns RawPathSegments percent-decoded.
func (r RelRef) PathSegments() []string {
	raw := r.RawPathSegments()
	out := make([]string, len(raw))
	for i, s := range raw {
		out[i] = Unescape(s)
	}
	return out
}

// TrimQuery returns this relative reference's path only, dropping any
// query and fragment.
func (r RelRef) TrimQuery() RelRef {
	return RelRef(r.RawPath())
}

// TrimFragment returns this relative reference without its fragment.
func (r RelRef) TrimFragment() RelRef {
	s := r.raw()
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return RelRef(s[:i])
	}
	return r
}

// TrimResource drops the last path segment (everything after the final
// "/"), keeping the trailing slash itself — used when resolving a
// relative reference against this one as a new base.
func (r RelRef) TrimResource() RelRef {
	p := r.RawPath()
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return RelRef(p[:i+1])
	}
	return RelRef("")
}

// HasTrailingSlash reports whether the path ends with "/".
func (r RelRef) HasTrailingSlash() bool {
	return strings.HasSuffix(r.RawPath(), "/")
}
