package uri

// URI is a Ref that is usable as a resolution base: either an
// absolute-URI (has a scheme) or a network-path reference (has an
// authority). Constructing one rejects relative-paths, bare queries,
// and bare fragments.
type URI string

// ParseURI validates s as a Uri, rejecting well-formed URI-references
// that cannot serve as a base (plain relative-references).
func ParseURI(s string) (URI, error) {
	r, err := ParseRef(s)
	if err != nil {
		return "", err
	}
	u, ok := r.AsURI()
	if !ok {
		return "", &ParseError{Msg: "not usable as a base URI", Offset: 0}
	}
	return u, nil
}

// MustParseURI is ParseURI but panics on error.
func MustParseURI(s string) URI {
	u, err := ParseURI(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u URI) String() string { return string(u) }

// Ref upcasts this Uri to the general Ref type (always legal).
func (u URI) Ref() Ref { return Ref(u) }

// Type classifies this Uri; always one of TypeUri, TypeUriNoAuthority,
// TypeUriCannotBeABase, or TypeNetworkPath.
func (u URI) Type() Type { return classify(string(u)) }

// Components decomposes this Uri into its raw pieces.
func (u URI) Components() RawComponents { return u.Ref().Components() }

// Scheme returns the scheme component, if this Uri has one (a
// network-path Uri does not).
func (u URI) Scheme() (string, bool) { return u.Ref().Scheme() }

// RawAuthority returns the still-escaped authority, if present.
func (u URI) RawAuthority() (string, bool) { return u.Ref().RawAuthority() }

// RawPath returns the still-escaped path.
func (u URI) RawPath() string { return u.Ref().RawPath() }
