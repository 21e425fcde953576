package endpoint

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/GiterLab/coap-core/senddesc"
	"github.com/GiterLab/coap-core/uri"
)

// remoteBasePlaceholder stands in for the scheme and authority uri.Resolve
// needs to treat a RelRef as a resolvable base; basePath itself carries no
// authority of its own; spec.md §4.8's base_path is bound to the remote's
// peer address, not to a URI host, so there is nothing else to supply one
// with. The placeholder is stripped back off before the combined RelRef is
// ever used outside this function.
const remoteBasePlaceholder = "x-coap-base://placeholder"

// Remote is a peer bound to a local Endpoint: a socket address, an
// optional URI authority string to decorate outbound Uri-Host with,
// and a base path every relative send is resolved against, per spec
// §4.8.
type Remote struct {
	local        *Endpoint
	peer         net.Addr
	authority    string
	basePath     uri.RelRef
	suppressHost bool
}

// NewRemote binds a remote peer to local, with the given URI authority
// (used for the Uri-Host option; pass "" to omit it) and base path.
func NewRemote(local *Endpoint, peer net.Addr, authority string, basePath uri.RelRef) *Remote {
	return &Remote{local: local, peer: peer, authority: authority, basePath: basePath}
}

// PeerAddr returns the remote's bound socket address.
func (r *Remote) PeerAddr() net.Addr { return r.peer }

// RemoveHostOption returns a copy of r that never emits Uri-Host,
// needed before a multicast send so the multicast group address isn't
// encoded as the responding server's authority (spec §4.8).
func (r *Remote) RemoveHostOption() *Remote {
	cp := *r
	cp.suppressHost = true
	return &cp
}

// CloneUsingRelRef returns a sibling Remote bound to the same peer and
// authority but with rel resolved against r's base path as the new
// base path.
func (r *Remote) CloneUsingRelRef(rel uri.RelRef) (*Remote, error) {
	resolved, err := resolveAgainstBase(r.basePath, rel)
	if err != nil {
		return nil, err
	}
	cp := *r
	cp.basePath = resolved
	return &cp, nil
}

// RemoteSend transmits a request built by desc to r's peer, decorated
// with r's authority and base path, per spec §4.8's send().
func RemoteSend[R any](ctx context.Context, r *Remote, desc senddesc.Descriptor[R]) (R, error) {
	host := r.authority
	if r.suppressHost {
		host = ""
	}
	return Send(ctx, r.local, r.peer, senddesc.UriHostPath(desc, host, r.basePath))
}

// RemoteSendTo resolves rel against r's base path first, then sends
// as RemoteSend would, per spec §4.8's send_to().
func RemoteSendTo[R any](ctx context.Context, r *Remote, rel uri.RelRef, desc senddesc.Descriptor[R]) (R, error) {
	resolved, err := resolveAgainstBase(r.basePath, rel)
	if err != nil {
		var zero R
		return zero, err
	}
	host := r.authority
	if r.suppressHost {
		host = ""
	}
	return Send(ctx, r.local, r.peer, senddesc.UriHostPath(desc, host, resolved))
}

// RemoteSendStream is RemoteSend's streaming counterpart, for
// multicast requests and Observe registrations issued against r.
func RemoteSendStream[R any](ctx context.Context, r *Remote, desc senddesc.Descriptor[R], emit func(R)) error {
	host := r.authority
	if r.suppressHost {
		host = ""
	}
	return SendStream(ctx, r.local, r.peer, senddesc.UriHostPath(desc, host, r.basePath), emit)
}

// resolveAgainstBase resolves rel against base using IETF-RFC3986 §5.2
// reference resolution (uri.Resolve), which requires a full URI with a
// scheme and, in the general case, an authority. base is a bare
// RelRef, so a placeholder scheme+authority is prepended to make it
// resolvable, then stripped back off the result.
func resolveAgainstBase(base, rel uri.RelRef) (uri.RelRef, error) {
	path := base.RawPath()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	baseURI, err := uri.ParseURI(remoteBasePlaceholder + path)
	if err != nil {
		return "", fmt.Errorf("endpoint: invalid remote base path %q: %w", base, err)
	}
	targetRef, ok := rel.TryAsRef()
	if !ok {
		return "", fmt.Errorf("endpoint: invalid relative reference %q", rel)
	}
	resolved, err := uri.Resolve(baseURI, targetRef)
	if err != nil {
		return "", err
	}
	stripped := strings.TrimPrefix(resolved.String(), remoteBasePlaceholder)
	return uri.ParseRelRef(stripped)
}
