package senddesc

import (
	"net"

	"github.com/GiterLab/coap-core/message"
)

// Pair couples a send descriptor's result with the peer address that
// produced it, the result type of IncludeSocketAddr.
type Pair[R any] struct {
	Addr  net.Addr
	Value R
}

type emitAnyResponse[R any] struct {
	Descriptor[R]
}

// EmitAnyResponse wraps inner so that the first non-dupe inbound
// message of the exchange is returned as Done, regardless of its
// message code.
func EmitAnyResponse[R any](inner Descriptor[R]) Descriptor[message.Message] {
	return &emitAnyResponse[R]{Descriptor: inner}
}

func (e *emitAnyResponse[R]) Handler(ctx InboundContext, err error) (Status[message.Message], error) {
	if err != nil {
		return Status[message.Message]{}, err
	}
	if ctx.IsDupe() {
		return Continue[message.Message](), nil
	}
	return Done(ctx.Message()), nil
}

type emitSuccessfulResponse[R any] struct {
	Descriptor[R]
}

// EmitSuccessfulResponse is EmitAnyResponse restricted to 2.xx codes;
// any other code is classified the same way request leaves classify
// it.
func EmitSuccessfulResponse[R any](inner Descriptor[R]) Descriptor[message.Message] {
	return &emitSuccessfulResponse[R]{Descriptor: inner}
}

func (e *emitSuccessfulResponse[R]) Handler(ctx InboundContext, err error) (Status[message.Message], error) {
	if err != nil {
		return Status[message.Message]{}, err
	}
	if ctx.IsDupe() {
		return Continue[message.Message](), nil
	}
	code := ctx.Message().Code
	if code.IsSuccess() {
		return Done(ctx.Message()), nil
	}
	_, respErr := classifyIdempotent(code)
	return Status[message.Message]{}, respErr
}

type emitMsgCode[R any] struct {
	Descriptor[R]
}

// EmitMsgCode wraps inner so that only the response's message code is
// returned, regardless of whether it indicates success.
func EmitMsgCode[R any](inner Descriptor[R]) Descriptor[message.Code] {
	return &emitMsgCode[R]{Descriptor: inner}
}

func (e *emitMsgCode[R]) Handler(ctx InboundContext, err error) (Status[message.Code], error) {
	if err != nil {
		return Status[message.Code]{}, err
	}
	if ctx.IsDupe() {
		return Continue[message.Code](), nil
	}
	return Done(ctx.Message().Code), nil
}

type includeSocketAddr[R any] struct {
	Descriptor[R]
}

// IncludeSocketAddr wraps inner so that its result is tupled with the
// peer address that produced it — useful for a multicast exchange's
// fan-in, where the caller needs to know which peer answered.
func IncludeSocketAddr[R any](inner Descriptor[R]) Descriptor[Pair[R]] {
	return &includeSocketAddr[R]{Descriptor: inner}
}

func (e *includeSocketAddr[R]) Handler(ctx InboundContext, err error) (Status[Pair[R]], error) {
	status, handlerErr := e.Descriptor.Handler(ctx, err)
	if handlerErr != nil {
		return Status[Pair[R]]{}, handlerErr
	}
	switch {
	case status.IsDone():
		addr := net.Addr(nil)
		if ctx != nil {
			addr = ctx.PeerAddr()
		}
		return Done(Pair[R]{Addr: addr, Value: status.Value}), nil
	case status.IsSendNext():
		return SendNext[Pair[R]](), nil
	default:
		return Continue[Pair[R]](), nil
	}
}
