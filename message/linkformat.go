package message

import (
	"errors"
	"strings"
)

// ErrMalformedLinkFormat is returned by ParseLinkFormat when the input
// isn't well-formed RFC6690 link-format text.
var ErrMalformedLinkFormat = errors.New("message: malformed link-format payload")

// Link is one entry of an RFC6690 CoAP link-format payload: a target
// reference plus its link attributes. An attribute may repeat, so
// every value seen for a key is kept, in order.
type Link struct {
	Target string
	Attrs  map[string][]string
}

// Attr returns the first value stored for key, if any.
func (l Link) Attr(key string) (string, bool) {
	vs := l.Attrs[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// ParseLinkFormat parses an RFC6690 link-format payload — the body of
// a GET response from .well-known/core — into its constituent Links,
// ported from async-coap's LinkFormatParser/LinkAttributeParser: scan
// each "<target>;attr=value;..." entry up to its terminating ',',
// respecting quoted attribute values that may themselves contain ','
// or ';'.
func ParseLinkFormat(s string) ([]Link, error) {
	var links []Link
	for len(s) > 0 {
		link, rest, err := parseOneLink(s)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
		s = rest
	}
	return links, nil
}

func isLinkFormatSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func parseOneLink(s string) (Link, string, error) {
	i := 0
	for i < len(s) && isLinkFormatSpace(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != '<' {
		return Link{}, "", ErrMalformedLinkFormat
	}
	i++
	targetStart := i
	for i < len(s) && s[i] != '>' {
		i++
	}
	if i >= len(s) {
		return Link{}, "", ErrMalformedLinkFormat
	}
	target := s[targetStart:i]
	i++ // consume '>'

	attrStart := i
	for i < len(s) && s[i] != ',' {
		if s[i] == '"' {
			i++
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				i++
			}
		}
		i++
	}
	attrsText := strings.Trim(s[attrStart:i], ";")

	rest := ""
	if i < len(s) && s[i] == ',' {
		rest = s[i+1:]
	}

	return Link{Target: target, Attrs: parseLinkAttrs(attrsText)}, rest, nil
}

func parseLinkAttrs(s string) map[string][]string {
	attrs := map[string][]string{}
	for _, part := range splitLinkAttrs(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value := part, ""
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			key, value = part[:eq], part[eq+1:]
		}
		key = strings.TrimSpace(key)
		value = unquoteLinkAttr(strings.TrimSpace(value))
		attrs[key] = append(attrs[key], value)
	}
	return attrs
}

// splitLinkAttrs splits on ';', ignoring separators inside a quoted value.
func splitLinkAttrs(s string) []string {
	var out []string
	start := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case '\\':
			if inQuotes && i+1 < len(s) {
				i++
			}
		case ';':
			if !inQuotes {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// unquoteLinkAttr strips a quoted attribute value's surrounding quotes
// and resolves its backslash escapes (RFC2616 quoted-string).
func unquoteLinkAttr(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
