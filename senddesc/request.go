package senddesc

import (
	"errors"
	"net"

	"github.com/GiterLab/coap-core/message"
)

// Semantic errors mapped from response codes by the method leaves
// (Get/Post/Put/Delete/Method); a use_handler combinator may override
// this mapping per descriptor.
var (
	ErrResourceNotFound    = errors.New("senddesc: resource not found")
	ErrForbidden           = errors.New("senddesc: forbidden")
	ErrUnauthorized        = errors.New("senddesc: unauthorized")
	ErrClientRequestError  = errors.New("senddesc: client request error")
	ErrServerError         = errors.New("senddesc: server error")
	ErrResponseTimeout     = errors.New("senddesc: response timeout")
	ErrResetByPeer         = errors.New("senddesc: reset by peer")
)

// request is the leaf descriptor behind Get/Post/Put/Delete/Method: it
// sets one method code and maps the response into Void or an error.
type request struct {
	Defaults
	code    message.Code
	classify func(message.Code) (Status[Void], error)
}

func (r *request) WriteOptions(OptionWriter, net.Addr, message.OptionID, message.OptionID) error {
	return nil
}

func (r *request) WritePayload(msg *message.Message, _ net.Addr) error {
	msg.Code = r.code
	return nil
}

func (r *request) Handler(ctx InboundContext, err error) (Status[Void], error) {
	if err != nil {
		return Status[Void]{}, err
	}
	if ctx.IsDupe() {
		return Continue[Void](), nil
	}
	return r.classify(ctx.Message().Code)
}

func classifyIdempotent(code message.Code) (Status[Void], error) {
	switch {
	case code.IsSuccess():
		return Done(Void{}), nil
	case code == message.NotFound:
		return Status[Void]{}, ErrResourceNotFound
	case code == message.Forbidden:
		return Status[Void]{}, ErrForbidden
	case code == message.Unauthorized:
		return Status[Void]{}, ErrUnauthorized
	case code.IsClientError():
		return Status[Void]{}, ErrClientRequestError
	default:
		return Status[Void]{}, ErrServerError
	}
}

// Get returns a send descriptor for a CoAP GET request.
func Get() Descriptor[Void] {
	return &request{Defaults: NewDefaults(), code: message.GET, classify: classifyIdempotent}
}

// Post returns a send descriptor for a CoAP POST request.
func Post() Descriptor[Void] {
	return &request{Defaults: NewDefaults(), code: message.POST, classify: classifyIdempotent}
}

// Put returns a send descriptor for a CoAP PUT request.
func Put() Descriptor[Void] {
	return &request{Defaults: NewDefaults(), code: message.PUT, classify: classifyIdempotent}
}

// Delete returns a send descriptor for a CoAP DELETE request.
func Delete() Descriptor[Void] {
	return &request{Defaults: NewDefaults(), code: message.DELETE, classify: func(code message.Code) (Status[Void], error) {
		if code == message.Deleted {
			return Done(Void{}), nil
		}
		return classifyIdempotent(code)
	}}
}

// Method returns a send descriptor for an arbitrary CoAP request code,
// classifying the response the same way Get/Post/Put do.
func Method(code message.Code) Descriptor[Void] {
	return &request{Defaults: NewDefaults(), code: code, classify: classifyIdempotent}
}
