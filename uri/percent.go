package uri

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// EscapeContext selects which characters Escape leaves unescaped. Each
// context mirrors one RFC3986 production: Segment is pchar, Authority is
// pchar plus the IP-literal brackets, Query is pchar plus "/" and "?"
// (with "+" always escaped so it is free to mean space), Fragment is
// pchar plus "/", "?" and "#", and Full keeps only the unreserved set.
type EscapeContext uint8

const (
	Full EscapeContext = iota
	Segment
	Authority
	Query
	Fragment
)

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isPChar(c byte) bool {
	return isUnreserved(c) || isSubDelim(c) || c == ':' || c == '@'
}

func allowedUnescaped(ctx EscapeContext, c byte) bool {
	switch ctx {
	case Full:
		return isUnreserved(c)
	case Segment:
		return isPChar(c)
	case Authority:
		return isPChar(c) || c == '[' || c == ']'
	case Query:
		return (isPChar(c) || c == '/' || c == '?') && c != '+'
	case Fragment:
		return isPChar(c) || c == '/' || c == '?' || c == '#'
	default:
		return isUnreserved(c)
	}
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes s for the given context. Query context encodes
// a literal space as "+", matching application/x-www-form-urlencoded
// query strings; every other context percent-encodes spaces like any
// other disallowed byte.
func Escape(s string, ctx EscapeContext) string {
	var needsEscape bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ctx == Query && c == ' ' {
			needsEscape = true
			break
		}
		if !allowedUnescaped(ctx, c) {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case ctx == Query && c == ' ':
			b.WriteByte('+')
		case allowedUnescaped(ctx, c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}

// controlPicture maps a C0 control byte (and DEL) to its Unicode
// Control Picture glyph (U+2400-U+2421), used when Unescape recovers an
// escaped control character rather than dropping it silently.
func controlPicture(c byte) rune {
	if c == 0x7f {
		return 0x2421
	}
	return rune(0x2400 + int(c))
}

// unescapeOpts configures Unescape's handling of the reserved "/"
// separator and of malformed input.
type unescapeOpts struct {
	keepEncodedSlash bool
}

// UnescapeOption configures Unescape.
type UnescapeOption func(*unescapeOpts)

// KeepEncodedSlash causes Unescape to leave a "%2F"/"%2f" sequence
// encoded instead of decoding it to "/", preserving path hierarchy when
// unescaping a single path segment extracted from a larger reference.
func KeepEncodedSlash() UnescapeOption {
	return func(o *unescapeOpts) { o.keepEncodedSlash = true }
}

// Unescape decodes percent-escapes and returns a valid UTF-8 string.
// Unescaped ASCII control bytes are dropped. An escaped control becomes
// its Unicode Control Picture glyph so the result stays visible and
// round-trippable to a human. Malformed "%XX" sequences and percent
// decodes that do not form valid UTF-8 are replaced with U+FFFD.
func Unescape(s string, opts ...UnescapeOption) string {
	var o unescapeOpts
	for _, f := range opts {
		f(&o)
	}

	raw := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '%' && isHex(s, i+1):
			if o.keepEncodedSlash {
				v, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
				if byte(v) == '/' {
					raw = append(raw, s[i], s[i+1], s[i+2])
					i += 3
					continue
				}
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				raw = append(raw, 0xef, 0xbf, 0xbd) // U+FFFD
				i++
				continue
			}
			b := byte(v)
			if b < 0x20 || b == 0x7f {
				raw = append(raw, []byte(string(controlPicture(b)))...)
			} else {
				raw = append(raw, b)
			}
			i += 3
		case c == '%':
			raw = append(raw, 0xef, 0xbf, 0xbd)
			i++
		case c < 0x20 || c == 0x7f:
			// unescaped control: dropped
			i++
		default:
			raw = append(raw, c)
			i++
		}
	}
	if !utf8.Valid(raw) {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(raw)
}

func isHex(s string, i int) bool {
	if i+1 >= len(s) {
		return false
	}
	return isHexByte(s[i]) && isHexByte(s[i+1])
}

func isHexByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// TryUnescape decodes like Unescape but refuses to proceed if it would
// have to drop a control, substitute a glyph, or emit U+FFFD, reporting
// the byte offset of the first offending sequence.
func TryUnescape(s string, opts ...UnescapeOption) (string, int, bool) {
	var o unescapeOpts
	for _, f := range opts {
		f(&o)
	}
	raw := make([]byte, 0, len(s))
	from := make([]int, 0, len(s)) // offset in s each byte of raw came from
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '%':
			if !isHex(s, i+1) {
				return "", i, false
			}
			if o.keepEncodedSlash {
				v, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
				if byte(v) == '/' {
					raw = append(raw, s[i], s[i+1], s[i+2])
					from = append(from, i, i, i)
					i += 3
					continue
				}
			}
			v, _ := strconv.ParseUint(s[i+1:i+3], 16, 8)
			b := byte(v)
			if b < 0x20 || b == 0x7f {
				return "", i, false
			}
			raw = append(raw, b)
			from = append(from, i)
			i += 3
		case c < 0x20 || c == 0x7f:
			return "", i, false
		default:
			raw = append(raw, c)
			from = append(from, i)
			i++
		}
	}
	for j := 0; j < len(raw); {
		r, size := utf8.DecodeRune(raw[j:])
		if r == utf8.RuneError && size == 1 {
			return "", from[j], false
		}
		j += size
	}
	return string(raw), -1, true
}
