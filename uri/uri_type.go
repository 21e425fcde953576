package uri

// Type classifies a URI-reference per RFC3986 Appendix B, distinguishing
// the shapes that matter for resolution and for the Uri/RelRef split.
type Type uint8

const (
	// TypeUri is an absolute-URI: has a scheme and is not cannot-be-a-base.
	TypeUri Type = iota
	// TypeUriNoAuthority has a scheme, no authority, a path starting with "/".
	TypeUriNoAuthority
	// TypeUriCannotBeABase has a scheme but a path that does not start with "/"
	// (e.g. "tel:+1-234", "mailto:x@y").
	TypeUriCannotBeABase
	// TypeNetworkPath has no scheme but has an authority ("//host/path").
	TypeNetworkPath
	// TypeAbsolutePath has no scheme, no authority, path starts with "/".
	TypeAbsolutePath
	// TypeRelativePath has no scheme, no authority, path does not start with "/".
	TypeRelativePath
	// TypeQuery is bare "?query".
	TypeQuery
	// TypeFragment is bare "#fragment".
	TypeFragment
)

// CanBorrowAsUri reports whether a value of this type is usable as a
// Uri (has everything needed to serve as a base for resolution).
func (t Type) CanBorrowAsUri() bool {
	switch t {
	case TypeUri, TypeUriNoAuthority, TypeNetworkPath, TypeUriCannotBeABase:
		return true
	}
	return false
}

// CanBorrowAsRelRef reports whether a value of this type is a
// relative-reference (not usable as a resolution base).
func (t Type) CanBorrowAsRelRef() bool {
	return !t.CanBorrowAsUri()
}

// CannotBeABase reports whether resolving an arbitrary relative-reference
// against a value of this type is well-defined (false), or restricted to
// query/fragment-only targets (true).
func (t Type) CannotBeABase() bool {
	return t == TypeUriCannotBeABase
}

// HasAbsolutePath reports whether this type's path component, if any,
// begins with "/".
func (t Type) HasAbsolutePath() bool {
	switch t {
	case TypeUri, TypeUriNoAuthority, TypeNetworkPath, TypeAbsolutePath:
		return true
	}
	return false
}

// IsRFC3986RelativeReference reports whether this type is a
// relative-reference per RFC3986 section 4.2 (i.e. has no scheme).
func (t Type) IsRFC3986RelativeReference() bool {
	switch t {
	case TypeNetworkPath, TypeAbsolutePath, TypeRelativePath, TypeQuery, TypeFragment:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t {
	case TypeUri:
		return "Uri"
	case TypeUriNoAuthority:
		return "UriNoAuthority"
	case TypeUriCannotBeABase:
		return "UriCannotBeABase"
	case TypeNetworkPath:
		return "NetworkPath"
	case TypeAbsolutePath:
		return "AbsolutePath"
	case TypeRelativePath:
		return "RelativePath"
	case TypeQuery:
		return "Query"
	case TypeFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// classify implements the decision tree from RFC3986 Appendix B: a
// scheme is present only when a ':' is found before any of '/','?','#',
// and what follows the ':' determines Uri vs UriNoAuthority vs
// UriCannotBeABase.
func classify(s string) Type {
	if len(s) > 0 && s[0] == '#' {
		return TypeFragment
	}
	if len(s) > 0 && s[0] == '?' {
		return TypeQuery
	}
	if len(s) >= 2 && s[0] == '/' && s[1] == '/' {
		return TypeNetworkPath
	}
	if len(s) > 0 && s[0] == '/' {
		return TypeAbsolutePath
	}

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ':':
			rest := s[i:]
			switch {
			case len(rest) >= 3 && rest[1] == '/' && rest[2] == '/':
				return TypeUri
			case len(rest) >= 2 && rest[1] == '/':
				return TypeUriNoAuthority
			default:
				return TypeUriCannotBeABase
			}
		case '/', '?', '#':
			return TypeRelativePath
		}
	}
	return TypeRelativePath
}
