package transport

import (
	"testing"
)

func TestLoopbackSendRecvRoundTrip(t *testing.T) {
	l := NewLoopback()
	if err := l.SendTo(LoopbackUnicast, []byte("hello")); err != nil {
		t.Fatalf("SendTo returned error %v", err)
	}
	buf := make([]byte, 16)
	n, source, dest, err := l.RecvFrom(buf)
	if err != nil {
		t.Fatalf("RecvFrom returned error %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("got payload %q, want %q", buf[:n], "hello")
	}
	if source != LoopbackUnicast {
		t.Errorf("got source %v, want %v", source, LoopbackUnicast)
	}
	if dest != LoopbackUnicast {
		t.Errorf("got dest %v, want %v", dest, LoopbackUnicast)
	}
}

func TestLoopbackLookupHostMulticastHostname(t *testing.T) {
	l := NewLoopback()
	addrs, err := l.LookupHost("all-coap-devices.local", 5683)
	if err != nil {
		t.Fatalf("LookupHost returned error %v", err)
	}
	if len(addrs) != 1 || addrs[0] != LoopbackMulticast {
		t.Errorf("got %v, want [%v]", addrs, LoopbackMulticast)
	}
}

func TestLoopbackLookupHostOrdinaryHostname(t *testing.T) {
	l := NewLoopback()
	addrs, err := l.LookupHost("example.com", 5683)
	if err != nil {
		t.Fatalf("LookupHost returned error %v", err)
	}
	if len(addrs) != 1 || addrs[0] != LoopbackUnicast {
		t.Errorf("got %v, want [%v]", addrs, LoopbackUnicast)
	}
}

func TestLoopbackCloseUnblocksRecvFrom(t *testing.T) {
	l := NewLoopback()
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 16)
		_, _, _, err := l.RecvFrom(buf)
		done <- err
	}()
	l.Close()
	if err := <-done; err == nil {
		t.Error("RecvFrom on a closed empty socket should return an error")
	}
}
