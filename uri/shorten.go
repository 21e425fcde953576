package uri

import "strings"

// heirPartStart returns the byte offset just past a scheme's trailing
// ':', or 0 if s has no scheme, mirroring UriRef::heir_part_start.
func heirPartStart(s string) int {
	i := strings.IndexAny(s, ":/?#")
	if i >= 0 && s[i] == ':' {
		return i + 1
	}
	return 0
}

// pathStartIdx returns the byte offset of the first character of the
// path, which is also the length of the scheme+authority prefix. A
// return of 0 means s is a relative-reference with no authority,
// mirroring UriRef::path_start.
func pathStartIdx(s string) int {
	hp := heirPartStart(s)
	heirPart := s[hp:]
	if strings.HasPrefix(heirPart, "//") {
		authority := heirPart[2:]
		if j := strings.IndexAny(authority, "/?#"); j >= 0 {
			return hp + 2 + j
		}
		return len(s)
	}
	return hp
}

// splitRef divides s into its scheme+authority prefix (absPart, present
// only if non-empty) and the remaining path+query+fragment (relPart),
// mirroring UriRef::split.
func splitRef(s string) (absPart string, absPresent bool, relPart string) {
	ps := pathStartIdx(s)
	if ps == 0 {
		return "", false, s
	}
	return s[:ps], true, s[ps:]
}

// trimResourceURI removes the trailing part of the path (and any query
// or fragment) that reference resolution would discard when this URI is
// used as a resolution base, mirroring UriRef::trim_resource.
func trimResourceURI(s string) string {
	ret := s
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		ret = s[:i]
	}
	pathStart := pathStartIdx(s)
	if i := strings.LastIndexByte(ret, '/'); i >= 0 {
		if i+1 > pathStart {
			ret = s[:i+1]
		}
	} else if pathStart == 0 {
		ret = ""
	}
	return ret
}

// TrimToShorten attempts to shorten full relative to base, returning a
// RelRef that Resolve(base, ·) would turn back into full. It fails (ok
// == false) when full's scheme+authority differs from base's, or full's
// path doesn't share base's directory as a prefix — grounded on
// async-coap-uri's UriRef::trim_to_shorten.
func TrimToShorten(full Ref, base URI) (rel RelRef, ok bool) {
	baseAbsPart, _, baseRelPart := splitRef(trimResourceURI(base.String()))
	selfAbsPart, selfAbsPresent, selfRelPart := splitRef(full.String())

	if selfAbsPresent && (baseAbsPart == "" || baseAbsPart != selfAbsPart) {
		return "", false
	}

	if strings.HasPrefix(selfRelPart, baseRelPart) {
		return RelRef(selfRelPart[len(baseRelPart):]), true
	}
	return "", false
}
