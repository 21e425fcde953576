package senddesc

import (
	"net"
	"time"

	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/uri"
)

// addOption wraps inner with one more option at a fixed sorted
// position, grounded on async-coap's AddOption/write_options! macro:
// inner writes everything in (start, id], then this combinator's
// values are written, then inner resumes for (id, end].
type addOption[R any] struct {
	Descriptor[R]
	id     message.OptionID
	values [][]byte
}

// AddOption wraps inner so that it also emits zero or more values of
// option id, at the correct sorted position relative to inner's own
// options.
func AddOption[R any](inner Descriptor[R], id message.OptionID, values ...[]byte) Descriptor[R] {
	return &addOption[R]{Descriptor: inner, id: id, values: values}
}

func (a *addOption[R]) WriteOptions(w OptionWriter, peer net.Addr, start, end message.OptionID) error {
	if len(a.values) > 0 && a.id > start && a.id <= end {
		if err := a.Descriptor.WriteOptions(w, peer, start, a.id); err != nil {
			return err
		}
		for _, v := range a.values {
			if err := w.AddOption(a.id, v); err != nil {
				return err
			}
		}
		return a.Descriptor.WriteOptions(w, peer, a.id, end)
	}
	return a.Descriptor.WriteOptions(w, peer, start, end)
}

// ContentFormat wraps inner so that it also emits a Content-Format
// option.
func ContentFormat[R any](inner Descriptor[R], cf message.MediaType) Descriptor[R] {
	return AddOption(inner, message.ContentFormat, encodeMediaType(cf))
}

// Accept wraps inner so that it also emits an Accept option.
func Accept[R any](inner Descriptor[R], cf message.MediaType) Descriptor[R] {
	return AddOption(inner, message.Accept, encodeMediaType(cf))
}

func encodeMediaType(cf message.MediaType) []byte {
	var m message.Message
	// a fresh message's first insert of a non-repeatable option never fails.
	_ = m.AddOptionUint(message.ContentFormat, uint32(cf))
	v, _ := m.Option(message.ContentFormat)
	return v
}

// payloadWriter wraps inner so that fn also runs against the outbound
// message, after inner's own WritePayload.
type payloadWriter[R any] struct {
	Descriptor[R]
	fn func(*message.Message, net.Addr) error
}

// PayloadWriter wraps inner with a closure that writes to the outbound
// message after inner's own payload has been written.
func PayloadWriter[R any](inner Descriptor[R], fn func(*message.Message, net.Addr) error) Descriptor[R] {
	return &payloadWriter[R]{Descriptor: inner, fn: fn}
}

func (p *payloadWriter[R]) WritePayload(msg *message.Message, peer net.Addr) error {
	if err := p.Descriptor.WritePayload(msg, peer); err != nil {
		return err
	}
	return p.fn(msg, peer)
}

// inspect wraps inner with a read-only closure run on every inbound
// context before delegating to inner's handler.
type inspect[R any] struct {
	Descriptor[R]
	fn func(InboundContext)
}

// Inspect wraps inner so that fn observes every inbound message before
// inner's handler runs. fn cannot affect the descriptor chain's
// behavior; use UseHandler for that.
func Inspect[R any](inner Descriptor[R], fn func(InboundContext)) Descriptor[R] {
	return &inspect[R]{Descriptor: inner, fn: fn}
}

func (ins *inspect[R]) Handler(ctx InboundContext, err error) (Status[R], error) {
	if err == nil {
		ins.fn(ctx)
	}
	return ins.Descriptor.Handler(ctx, err)
}

// useHandler replaces inner's handler outright, changing the result
// type from R to R2.
type useHandler[R, R2 any] struct {
	Descriptor[R]
	fn func(InboundContext, error) (Status[R2], error)
}

// UseHandler replaces inner's response handler with fn.
func UseHandler[R, R2 any](inner Descriptor[R], fn func(InboundContext, error) (Status[R2], error)) Descriptor[R2] {
	return &useHandler[R, R2]{Descriptor: inner, fn: fn}
}

func (u *useHandler[R, R2]) Handler(ctx InboundContext, err error) (Status[R2], error) {
	return u.fn(ctx, err)
}

// uriHostPath wraps inner so that it also emits Uri-Host, Uri-Path,
// and Uri-Query options derived from a bound host and relative
// reference, grounded on async-coap's UriHostPath combinator (used by
// the remote-endpoint to decorate every outbound send with its bound
// authority and base path).
type uriHostPath[R any] struct {
	Descriptor[R]
	host         string
	suppressHost bool
	pathAndQuery uri.RelRef
}

// UriHostPath wraps inner so that it also emits Uri-Host (unless host
// is empty), then Uri-Path segments, then Uri-Query items, all derived
// from pathAndQuery.
func UriHostPath[R any](inner Descriptor[R], host string, pathAndQuery uri.RelRef) Descriptor[R] {
	return &uriHostPath[R]{Descriptor: inner, host: host, pathAndQuery: pathAndQuery}
}

// WithoutHostOption returns a copy of u that never emits Uri-Host,
// mirroring the remote endpoint's remove_host_option() (used before
// multicast sends to avoid encoding the multicast hostname as the
// server's authority).
func (u *uriHostPath[R]) WithoutHostOption() Descriptor[R] {
	cp := *u
	cp.suppressHost = true
	return &cp
}

func (u *uriHostPath[R]) WriteOptions(w OptionWriter, peer net.Addr, start, end message.OptionID) error {
	cur := start

	writeAt := func(id message.OptionID, values [][]byte) error {
		if len(values) == 0 || id <= cur || id > end {
			return nil
		}
		if err := u.Descriptor.WriteOptions(w, peer, cur, id); err != nil {
			return err
		}
		for _, v := range values {
			if err := w.AddOption(id, v); err != nil {
				return err
			}
		}
		cur = id
		return nil
	}

	var hostValues [][]byte
	if !u.suppressHost && u.host != "" {
		hostValues = [][]byte{[]byte(u.host)}
	}
	if err := writeAt(message.URIHost, hostValues); err != nil {
		return err
	}

	var pathValues [][]byte
	for _, seg := range u.pathAndQuery.PathSegments() {
		pathValues = append(pathValues, []byte(uri.Escape(seg, uri.Segment)))
	}
	if err := writeAt(message.URIPath, pathValues); err != nil {
		return err
	}

	var queryValues [][]byte
	if q, ok := u.pathAndQuery.RawQuery(); ok && q != "" {
		for _, part := range splitQuery(q) {
			queryValues = append(queryValues, []byte(part))
		}
	}
	if err := writeAt(message.URIQuery, queryValues); err != nil {
		return err
	}

	return u.Descriptor.WriteOptions(w, peer, cur, end)
}

func splitQuery(q string) []string {
	var out []string
	start := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '&' {
			out = append(out, q[start:i])
			start = i + 1
		}
	}
	out = append(out, q[start:])
	return out
}

// nonconfirmable forces the outbound message to type NON and disables
// the retransmit schedule.
type nonconfirmable[R any] struct {
	Descriptor[R]
}

// Nonconfirmable wraps inner to send as a Non-confirmable message:
// retransmission is disabled, since NON carries no ACK to retry on.
func Nonconfirmable[R any](inner Descriptor[R]) Descriptor[R] {
	return &nonconfirmable[R]{Descriptor: inner}
}

// DelayToRetransmit always reports "no retransmit" — a Non-confirmable
// message has no ACK to retry on.
func (n *nonconfirmable[R]) DelayToRetransmit(int) (time.Duration, bool) { return 0, false }

// Handler treats a no-response condition as a successful completion
// with the zero value rather than surfacing ErrResponseTimeout: a
// Non-confirmable send has no ACK/response to wait on in the first
// place, so silence isn't a failure.
func (n *nonconfirmable[R]) Handler(ctx InboundContext, err error) (Status[R], error) {
	if err == ErrResponseTimeout {
		var zero R
		return Done(zero), nil
	}
	return n.Descriptor.Handler(ctx, err)
}

// multicast marks the exchange as multicast: the transaction engine
// suppresses single-response termination and keeps listening until
// max_rtt elapses.
type multicast[R any] struct {
	Descriptor[R]
}

// Multicast wraps inner to mark the exchange as a multicast send: the
// transaction engine must not exit on the first response and must keep
// accepting responses until MaxRTT elapses.
func Multicast[R any](inner Descriptor[R]) Descriptor[R] {
	return &multicast[R]{Descriptor: inner}
}

// IsMulticast reports whether d was wrapped in Multicast, for the
// transaction engine to branch its termination rule on.
func IsMulticast[R any](d Descriptor[R]) bool {
	_, ok := d.(*multicast[R])
	return ok
}

// IsNonconfirmable reports whether d was wrapped in Nonconfirmable.
func IsNonconfirmable[R any](d Descriptor[R]) bool {
	_, ok := d.(*nonconfirmable[R])
	return ok
}

// allowCriticalOption overrides SupportsOption to additionally accept
// specific critical option numbers the caller already knows how to
// handle, per spec's open question on unexpected critical options:
// the default refusal is preserved for everything else.
type allowCriticalOption[R any] struct {
	Descriptor[R]
	ids map[message.OptionID]struct{}
}

// AllowCriticalOption wraps inner so that SupportsOption also accepts
// the given option numbers, overriding the default refusal of any
// critical option the descriptor didn't explicitly opt into.
func AllowCriticalOption[R any](inner Descriptor[R], ids ...message.OptionID) Descriptor[R] {
	set := make(map[message.OptionID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &allowCriticalOption[R]{Descriptor: inner, ids: set}
}

func (a *allowCriticalOption[R]) SupportsOption(id message.OptionID) bool {
	if a.Descriptor.SupportsOption(id) {
		return true
	}
	_, ok := a.ids[id]
	return ok
}
