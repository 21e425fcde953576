// Package senddesc implements the send-descriptor combinator model: a
// composable description of one outbound CoAP exchange covering option
// emission, payload emission, and inbound-response interpretation.
// Ported from async-coap's send_desc package (mod.rs/request.rs/
// unicast_block2.rs), traded for Go's decorator idiom: each combinator
// embeds the Descriptor it wraps and overrides only the methods it
// changes, so the embedded interface's promoted methods give a correct
// passthrough for everything else for free.
package senddesc

import (
	"net"
	"time"

	"github.com/GiterLab/coap-core/message"
)

// Void is the result type of a send descriptor that never emits a
// value of its own, used by the bare method leaves (Get/Post/...).
type Void struct{}

// statusKind tags which variant a Status holds.
type statusKind uint8

const (
	statusContinue statusKind = iota
	statusSendNext
	statusDone
)

// Status is a send descriptor handler's verdict for one inbound
// message: Continue (keep waiting), SendNext (restart the exchange
// with a fresh message-id, same token), or Done(value).
type Status[R any] struct {
	kind  statusKind
	Value R
}

// Done reports the exchange finished successfully with value.
func Done[R any](value R) Status[R] { return Status[R]{kind: statusDone, Value: value} }

// Continue reports the exchange should keep waiting for more messages.
func Continue[R any]() Status[R] { return Status[R]{kind: statusContinue} }

// SendNext reports the exchange should restart: new message-id, same
// token, retransmit counter reset.
func SendNext[R any]() Status[R] { return Status[R]{kind: statusSendNext} }

// IsDone reports whether this status carries a final value.
func (s Status[R]) IsDone() bool { return s.kind == statusDone }

// IsContinue reports whether this status means "keep waiting".
func (s Status[R]) IsContinue() bool { return s.kind == statusContinue }

// IsSendNext reports whether this status means "restart the exchange".
func (s Status[R]) IsSendNext() bool { return s.kind == statusSendNext }

// InboundContext is what a send descriptor's handler is given for each
// inbound message belonging to its exchange.
type InboundContext interface {
	PeerAddr() net.Addr
	Message() message.Message
	IsDupe() bool
}

// OptionWriter is the sink a send descriptor's WriteOptions writes
// into. *message.Message satisfies this directly via its AddOption
// method. AddOption returns OptionNotRepeatable if two combinators in
// the same chain try to emit a non-repeatable option twice.
type OptionWriter interface {
	AddOption(id message.OptionID, value []byte) error
}

// Descriptor is the send-descriptor trait: it defines transmission
// timing, which options and payload an outbound message carries, and
// how inbound responses are interpreted.
//
// WriteOptions must emit only options whose number falls in the
// half-open interval (start, end] — start exclusive, end inclusive —
// so that combinators wrapping one another compose into one
// numerically sorted option list regardless of nesting order.
type Descriptor[R any] interface {
	Params() TransParams
	SupportsOption(id message.OptionID) bool
	DelayToRetransmit(retransmitsSent int) (time.Duration, bool)
	DelayToRestart() (time.Duration, bool)
	MaxRTT() time.Duration
	TransmitWaitDuration() time.Duration
	WriteOptions(w OptionWriter, peer net.Addr, start, end message.OptionID) error
	WritePayload(msg *message.Message, peer net.Addr) error
	Handler(ctx InboundContext, err error) (Status[R], error)
}
