package uri

import (
	"errors"
	"strings"
)

// ErrCannotBeABase is returned by Resolve when base cannot serve as a
// resolution base (spec.md "CannotBeABase") and target is a relative
// reference other than a bare query or fragment.
var ErrCannotBeABase = errors.New("base cannot be used as a resolution base for this target")

// Resolve implements IETF-RFC3986 §5.2 reference resolution ("transform
// references"), grounded on async-coap-uri's any_uri_ref.rs
// write_resolved. Two policies deviate from the bare RFC5.2 pseudocode,
// both called out by spec.md §4.1:
//
//   - if base cannot be a base and target is a fragment or query, the
//     result replaces just that piece of base instead of failing;
//   - an empty target returns base unchanged except with the fragment
//     cleared (this naturally falls out of running the general merge
//     algorithm on an empty target without a fast-path shortcut, unlike
//     the Rust original which special-cases is_empty() and so does not
//     clear the fragment).
func Resolve(base URI, target Ref) (Ref, error) {
	targetType := target.Type()
	targetComponents := target.Components()
	baseType := base.Type()

	if baseType.CannotBeABase() {
		switch targetType {
		case TypeFragment:
			baseC := base.Components()
			baseC.Fragment = nil
			var b strings.Builder
			writeComponents(&b, baseC)
			b.WriteString(target.String())
			return Ref(b.String()), nil
		case TypeQuery:
			baseC := base.Components()
			baseC.Query = nil
			baseC.Fragment = nil
			var b strings.Builder
			writeComponents(&b, baseC)
			b.WriteString(target.String())
			return Ref(b.String()), nil
		default:
			if targetType.IsRFC3986RelativeReference() {
				return "", ErrCannotBeABase
			}
		}
	}

	if targetComponents.Scheme != nil {
		return Ref(target.String()), nil
	}

	components := base.Components()

	if targetComponents.HasAuthority() {
		components.Userinfo = targetComponents.Userinfo
		components.Host = targetComponents.Host
		components.Port = targetComponents.Port
	}

	components.Fragment = targetComponents.Fragment
	if targetComponents.Query != nil {
		components.Query = targetComponents.Query
	} else if targetComponents.Path != "" || targetComponents.HasAuthority() {
		components.Query = nil
	}

	var b strings.Builder
	if components.Scheme != nil {
		b.WriteString(*components.Scheme)
		b.WriteByte(':')
	}
	if components.HasAuthority() {
		b.WriteString("//")
		writeAuthority(&b, components)
	}

	basePath := components.Path
	targetPath := targetComponents.Path

	if targetPath != "" || !targetType.HasAbsolutePath() {
		targetStartsWithSlash := strings.HasPrefix(targetPath, "/")
		baseStartsWithSlash := strings.HasPrefix(basePath, "/")

		switch {
		case targetType.HasAbsolutePath():
			if baseStartsWithSlash {
				basePath = ""
			} else {
				basePath = "/"
			}
		case targetPath != "":
			basePath = trimResourcePath(basePath)
		}

		pathWillBeAbsolute := targetStartsWithSlash || baseStartsWithSlash ||
			(baseType.HasAbsolutePath() && targetPath != "")

		segs := append(pathSegments(basePath), pathSegments(targetPath)...)
		out := mergeDotSegments(segs, pathWillBeAbsolute)

		if pathWillBeAbsolute {
			b.WriteByte('/')
		}
		for n, seg := range out {
			if n != 0 {
				b.WriteByte('/')
			}
			b.WriteString(seg)
		}
	}

	if components.Query != nil {
		b.WriteByte('?')
		b.WriteString(*components.Query)
	}
	if components.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*components.Fragment)
	}

	return Ref(b.String()), nil
}

func writeAuthority(b *strings.Builder, c RawComponents) {
	if c.Userinfo != nil {
		b.WriteString(*c.Userinfo)
		b.WriteByte('@')
	}
	if c.Host != nil {
		b.WriteString(*c.Host)
	}
	if c.Port != nil {
		b.WriteByte(':')
		b.WriteString(*c.Port)
	}
}

func writeComponents(b *strings.Builder, c RawComponents) {
	if c.Scheme != nil {
		b.WriteString(*c.Scheme)
		b.WriteByte(':')
	}
	if c.HasAuthority() {
		b.WriteString("//")
		writeAuthority(b, c)
	}
	b.WriteString(c.Path)
	if c.Query != nil {
		b.WriteByte('?')
		b.WriteString(*c.Query)
	}
	if c.Fragment != nil {
		b.WriteByte('#')
		b.WriteString(*c.Fragment)
	}
}

// pathSegments splits a raw path the way RelRef.RawPathSegments does:
// an empty path yields no segments, a leading slash is dropped before
// splitting, otherwise the path (including a possibly-empty first
// segment) is split whole.
func pathSegments(path string) []string {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "/") {
		path = path[1:]
	}
	return strings.Split(path, "/")
}

// trimResourcePath drops the last path segment, keeping the trailing
// slash, mirroring RelRef.TrimResource.
func trimResourcePath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i+1]
	}
	return ""
}

// mergeDotSegments applies RFC3986 §5.2.4-style dot-segment removal
// while merging base and target segments, following async-coap-uri's
// segment-at-a-time state machine (as opposed to the RFC's
// buffer-prepend-and-rescan description): "." segments are dropped
// (keeping a trailing empty marker so a trailing "/." still yields a
// trailing slash), and ".." pops the last segment, emitting a leading
// ".." itself only when the result isn't going to be absolute.
func mergeDotSegments(segs []string, pathWillBeAbsolute bool) []string {
	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg {
		case ".":
			if n := len(out); n > 0 && out[n-1] != "" {
				out = append(out, "")
			}
			continue
		case "..":
			var last string
			hadLast := false
			if n := len(out); n > 0 {
				last = out[n-1]
				out = out[:n-1]
				hadLast = true
			}
			if hadLast && last == "" {
				if n := len(out); n > 0 {
					last = out[n-1]
					out = out[:n-1]
				} else {
					hadLast = false
				}
			}
			switch {
			case !hadLast:
				// nothing to pop; drop the ".." entirely
			case last == "." && !pathWillBeAbsolute:
				out = append(out, "..")
			case last == ".." && !pathWillBeAbsolute:
				out = append(out, "..", "..")
			case pathWillBeAbsolute:
				out = append(out, "")
			case len(out) != 0:
				out = append(out, "")
			default:
				out = append(out, ".")
			}
		default:
			if n := len(out); n > 0 {
				switch out[n-1] {
				case ".":
					if seg == "" {
						continue
					}
					out = out[:n-1]
				case "":
					out = out[:n-1]
				}
			}
			out = append(out, seg)
		}
	}
	return out
}
