package senddesc

import (
	"net"
	"time"

	"github.com/GiterLab/coap-core/message"
)

// observeRefresh is the re-registration interval observe reports from
// DelayToRestart. The transaction engine in this module does not read
// DelayToRestart, so no re-registration happens when it elapses.
const observeRefresh = 24 * time.Hour

// observe is the leaf descriptor behind Observe: a GET carrying
// Observe=0, whose handler treats every non-dupe notification as a
// Done value — the transaction engine's send_as_stream maps each Done
// to one stream item instead of completing the exchange (spec
// §4.6.1) — and requests a SendNext restart (fresh message-id,
// preserved token) whenever the server reports an error. No restart
// is made on a timer.
type observe struct {
	Defaults
}

// Observe returns a send descriptor for establishing a CoAP observe
// registration (RFC7641).
func Observe() Descriptor[message.Message] {
	return &observe{Defaults: NewDefaults()}
}

func (o *observe) WriteOptions(w OptionWriter, _ net.Addr, start, end message.OptionID) error {
	if message.Observe > start && message.Observe <= end {
		return w.AddOption(message.Observe, nil)
	}
	return nil
}

func (o *observe) WritePayload(msg *message.Message, _ net.Addr) error {
	msg.Code = message.GET
	return nil
}

func (o *observe) DelayToRestart() (time.Duration, bool) { return observeRefresh, true }

func (o *observe) Handler(ctx InboundContext, err error) (Status[message.Message], error) {
	if err != nil {
		return Status[message.Message]{}, err
	}
	if ctx.IsDupe() {
		return Continue[message.Message](), nil
	}
	code := ctx.Message().Code
	if code.IsClientError() || code.IsServerError() {
		return SendNext[message.Message](), nil
	}
	return Done(ctx.Message()), nil
}
