package endpoint

import (
	"net"

	"github.com/GiterLab/coap-core/message"
)

// inboundContext is the senddesc.InboundContext a transaction's
// receive path builds around a delivered message; transaction.go
// builds its own copy, this one backs the server-handler path.
type inboundContext struct {
	peer net.Addr
	msg  message.Message
}

func (c inboundContext) PeerAddr() net.Addr       { return c.peer }
func (c inboundContext) Message() message.Message { return c.msg }
func (c inboundContext) IsDupe() bool             { return false }

// RespondableInboundContext is handed to the user's request handler
// (spec §3/§4.7): it exposes the inbound request and lets the handler
// synthesize at most one response, piggy-backed on the ACK for a
// Confirmable request or sent separately for a Non-confirmable one.
type RespondableInboundContext interface {
	PeerAddr() net.Addr
	Message() message.Message
	IsDupe() bool
	// IsMulticast reports whether the request arrived addressed to a
	// multicast group, per spec §4.7's local_dest.is_multicast() check.
	IsMulticast() bool
	// Respond records msg as the response to emit. Calling it more
	// than once keeps only the last value.
	Respond(msg message.Message)
}

type respondableContext struct {
	inboundContext
	multicast bool
	responded bool
	response  message.Message
}

func (c *respondableContext) IsMulticast() bool { return c.multicast }

func (c *respondableContext) Respond(msg message.Message) {
	c.responded = true
	c.response = msg
}

// Handler serves inbound CoAP requests. A nil Handler makes an
// endpoint a send-only client, per spec §6 ("a no-op handler is an
// acceptable client-only configuration").
type Handler interface {
	ServeCOAP(ctx RespondableInboundContext) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx RespondableInboundContext) error

func (f HandlerFunc) ServeCOAP(ctx RespondableInboundContext) error { return f(ctx) }
