package endpoint

import (
	"context"
	"testing"
	"time"

	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/senddesc"
	"github.com/GiterLab/coap-core/transport"
)

func TestSendGetAgainstLoopbackHandler(t *testing.T) {
	sock := transport.NewLoopback()
	handler := HandlerFunc(func(ctx RespondableInboundContext) error {
		if ctx.Message().PathString() != "time" {
			t.Errorf("got path %q, want time", ctx.Message().PathString())
		}
		var resp message.Message
		resp.Code = message.Content
		resp.AddOptionUint(message.ContentFormat, 0)
		resp.Payload = []byte("now")
		ctx.Respond(resp)
		return nil
	})
	ep := New(sock, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ep.Serve(ctx)

	desc := senddesc.Get()

	sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer scancel()

	result, err := Send[senddesc.Void](sctx, ep, transport.LoopbackUnicast, senddesc.AddOption(desc, message.URIPath, []byte("time")))
	if err != nil {
		t.Fatalf("Send returned error %v", err)
	}
	_ = result
}

func TestHandlePacketDropsMalformedDatagram(t *testing.T) {
	sock := transport.NewLoopback()
	ep := New(sock, nil)
	// A single 0xFF byte has an invalid version nibble, must be dropped
	// without panicking the receive loop.
	ep.handlePacket([]byte{0xFF}, transport.LoopbackUnicast, transport.LoopbackUnicast)
}

func TestResolveHostRecognizesMulticastHostname(t *testing.T) {
	sock := transport.NewLoopback()
	ep := New(sock, nil)
	addrs, err := ep.Resolve("all-coap-devices.local", 5683)
	if err != nil {
		t.Fatalf("Resolve returned error %v", err)
	}
	if len(addrs) != 3 {
		t.Fatalf("got %d addrs, want 3", len(addrs))
	}
}
