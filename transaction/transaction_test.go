package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/senddesc"
	"github.com/GiterLab/coap-core/transport"
)

func TestRunDeliversSuccessfulResponse(t *testing.T) {
	client := transport.NewLoopback()
	tracker := NewTracker()

	go func() {
		buf := make([]byte, 2048)
		n, _, dest, rerr := client.RecvFrom(buf)
		if rerr != nil {
			return
		}
		var sent message.Message
		if perr := sent.UnmarshalBinary(buf[:n]); perr != nil {
			return
		}
		resp := message.Message{
			Type:      message.Acknowledgement,
			Code:      message.Content,
			MessageID: sent.MessageID,
			Token:     sent.Token,
		}
		// A transaction never reads the socket; replies reach it through
		// the tracker, once Run has registered it.
		for i := 0; i < 1000 && !tracker.DispatchResponse(resp, dest, false); i++ {
			time.Sleep(time.Millisecond)
		}
	}()

	desc := senddesc.Get()
	tx := New(client, tracker, transport.LoopbackUnicast, 1, []byte{1, 2, 3, 4}, func() uint16 { return 2 }, desc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := tx.Run(ctx); err != nil {
		t.Fatalf("Run returned error %v", err)
	}
}

func TestRunSurfacesResetByPeer(t *testing.T) {
	client := transport.NewLoopback()
	tracker := NewTracker()

	go func() {
		buf := make([]byte, 2048)
		n, _, dest, rerr := client.RecvFrom(buf)
		if rerr != nil {
			return
		}
		var sent message.Message
		if perr := sent.UnmarshalBinary(buf[:n]); perr != nil {
			return
		}
		resp := message.Message{Type: message.Reset, Code: 0, MessageID: sent.MessageID}
		for i := 0; i < 1000 && !tracker.DispatchEmpty(resp, dest); i++ {
			time.Sleep(time.Millisecond)
		}
	}()

	desc := senddesc.Get()
	tx := New(client, tracker, transport.LoopbackUnicast, 1, []byte{5, 6, 7, 8}, func() uint16 { return 2 }, desc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := tx.Run(ctx)
	if err != senddesc.ErrResetByPeer {
		t.Fatalf("Run returned %v, want ErrResetByPeer", err)
	}
}

func TestRunCancelledByContext(t *testing.T) {
	client := transport.NewLoopback()
	tracker := NewTracker()
	desc := senddesc.Get()
	tx := New(client, tracker, transport.LoopbackUnicast, 1, []byte{9, 9}, func() uint16 { return 2 }, desc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tx.Run(ctx)
	if err != ErrCancelled {
		t.Fatalf("Run returned %v, want ErrCancelled", err)
	}
	if tracker.Len() != 0 {
		t.Errorf("tracker still holds %d entries after cancellation", tracker.Len())
	}
}
