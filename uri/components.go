package uri

import "strings"

// RawComponents holds the borrowed (still percent-encoded) pieces of a
// parsed URI-reference, split per RFC3986 Appendix B:
//
//	^(([^:/?#%]+):)?(//([^/?#]*))?([^?#]*)(\?([^#]*))?(#(.*))?$
//
// "%" is deliberately excluded from the scheme character class (a
// deviation from the bare RFC3986 regex) so that a stray percent-escape
// early in a malformed string is rejected as "not a scheme" instead of
// silently becoming part of one.
type RawComponents struct {
	Scheme   *string
	Userinfo *string
	Host     *string
	Port     *string
	Path     string
	Query    *string
	Fragment *string
}

// HasAuthority reports whether the input had a "//" authority component
// (Host is always present in that case, even if empty).
func (c RawComponents) HasAuthority() bool {
	return c.Host != nil
}

// Type classifies the components using the same rules as classify.
func (c RawComponents) Type() Type {
	switch {
	case c.Fragment != nil && c.Scheme == nil && !c.HasAuthority() && c.Path == "" && c.Query == nil:
		return TypeFragment
	case c.Query != nil && c.Scheme == nil && !c.HasAuthority() && c.Path == "" && c.Fragment == nil:
		return TypeQuery
	}
	return classify(c.reconstructForClassify())
}

func (c RawComponents) reconstructForClassify() string {
	var b strings.Builder
	if c.Scheme != nil {
		b.WriteString(*c.Scheme)
		b.WriteByte(':')
	}
	if c.HasAuthority() {
		b.WriteString("//")
		b.WriteString(*c.Host)
	}
	b.WriteString(c.Path)
	if c.Query != nil {
		b.WriteByte('?')
	}
	if c.Fragment != nil {
		b.WriteByte('#')
	}
	return b.String()
}

func isSchemeChar(c byte, first bool) bool {
	if first {
		return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	}
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+' || c == '-' || c == '.':
		return true
	}
	return false
}

func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isSchemeChar(s[i], i == 0) {
			return false
		}
	}
	return true
}

// ParseRawComponents splits s into RawComponents, or reports a parse
// error describing the offending byte offset.
func ParseRawComponents(s string) (RawComponents, error) {
	if err := checkWellFormedness(s); err != nil {
		return RawComponents{}, err
	}

	var c RawComponents
	rest := s

	// scheme
	if i := indexAny(rest, ":/?#%"); i >= 0 && rest[i] == ':' {
		scheme := rest[:i]
		if !validScheme(scheme) {
			return RawComponents{}, &ParseError{Msg: "invalid scheme", Offset: 0}
		}
		c.Scheme = &scheme
		rest = rest[i+1:]
	}

	// authority
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := indexAny(rest, "/?#")
		var authority string
		if end < 0 {
			authority = rest
			rest = ""
		} else {
			authority = rest[:end]
			rest = rest[end:]
		}
		userinfo, hostport := splitAuthority(authority)
		host, port := splitHostPort(hostport)
		if userinfo != "" || strings.Contains(authority, "@") {
			c.Userinfo = &userinfo
		}
		c.Host = &host
		if port != "" {
			c.Port = &port
		}
	}

	// path
	end := indexAny(rest, "?#")
	if end < 0 {
		c.Path = rest
		rest = ""
	} else {
		c.Path = rest[:end]
		rest = rest[end:]
	}

	// query
	if strings.HasPrefix(rest, "?") {
		rest = rest[1:]
		end := strings.IndexByte(rest, '#')
		var q string
		if end < 0 {
			q = rest
			rest = ""
		} else {
			q = rest[:end]
			rest = rest[end:]
		}
		c.Query = &q
	}

	// fragment
	if strings.HasPrefix(rest, "#") {
		f := rest[1:]
		c.Fragment = &f
	}

	return c, nil
}

func indexAny(s, chars string) int {
	return strings.IndexAny(s, chars)
}

func splitAuthority(authority string) (userinfo, hostport string) {
	if i := strings.LastIndexByte(authority, '@'); i >= 0 {
		return authority[:i], authority[i+1:]
	}
	return "", authority
}

func splitHostPort(hostport string) (host, port string) {
	if strings.HasPrefix(hostport, "[") {
		if i := strings.IndexByte(hostport, ']'); i >= 0 {
			host = hostport[:i+1]
			rest := hostport[i+1:]
			if strings.HasPrefix(rest, ":") {
				port = rest[1:]
			}
			return host, port
		}
	}
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
		return hostport[:i], hostport[i+1:]
	}
	return hostport, ""
}

// checkWellFormedness rejects unescaped ASCII controls, unescaped
// space, malformed percent escapes, escaped ASCII controls, and
// percent-escapes that decode to invalid UTF-8 — the construction-time
// invariant shared by UriRef, Uri, and RelRef.
func checkWellFormedness(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%':
			if !isHex(s, i+1) {
				return &ParseError{Msg: "malformed percent-escape", Offset: i}
			}
			v := hexVal(s[i+1])<<4 | hexVal(s[i+2])
			if v < 0x20 || v == 0x7f {
				return &ParseError{Msg: "escaped ASCII control", Offset: i}
			}
		case c < 0x20 || c == 0x7f:
			return &ParseError{Msg: "unescaped ASCII control", Offset: i}
		case c == ' ':
			return &ParseError{Msg: "unescaped space", Offset: i}
		}
	}
	if _, off, ok := TryUnescape(s); !ok && off >= 0 {
		return &ParseError{Msg: "percent-escape decodes to invalid UTF-8", Offset: off}
	}
	return nil
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// ParseError reports a malformed URI-reference at a byte offset.
type ParseError struct {
	Msg    string
	Offset int
}

func (e *ParseError) Error() string {
	return e.Msg
}

// Span returns the byte offset the error occurred at.
func (e *ParseError) Span() int {
	return e.Offset
}
