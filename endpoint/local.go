// Package endpoint implements the local and remote endpoint types of
// spec §4.7/§4.8: the local endpoint owns a socket, the message-id
// counter, and the response tracker; the remote endpoint decorates a
// send descriptor with the peer's Uri-Host/Uri-Path/Uri-Query and
// delegates to the local endpoint it is bound to.
//
// Grounded on the teacher's server.go (Serve/handlePacket/Transmit/
// Receive) generalized with the request/response/ping classification
// and tracker dispatch rules of async-coap/src/local_endpoint.rs and
// async-coap/src/remote_endpoint.rs.
package endpoint

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/GiterLab/coap-core/internal/corelog"
	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/senddesc"
	"github.com/GiterLab/coap-core/transaction"
	"github.com/GiterLab/coap-core/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"
)

// maxPacketLen matches the teacher's server.go, generous for UDP CoAP
// over a non-jumbogram link.
const maxPacketLen = 1500

// Endpoint is a local CoAP endpoint: one socket, one message-id
// counter, one response tracker.
type Endpoint struct {
	sock    transport.Socket
	tracker *transaction.Tracker
	handler Handler
	log     *corelog.Logger

	msgIDCounter uint32
}

// New returns an Endpoint bound to sock. handler may be nil for a
// client-only endpoint that never serves inbound requests.
func New(sock transport.Socket, handler Handler) *Endpoint {
	ep := &Endpoint{
		sock:    sock,
		tracker: transaction.NewTracker(),
		handler: handler,
		log:     corelog.New(),
	}
	if err := prometheus.Register(transaction.TrackerSizeGauge(ep.tracker)); err != nil {
		if _, already := err.(prometheus.AlreadyRegisteredError); !already {
			ep.log.Warnf("[coap] tracker size gauge not registered: %s", err)
		}
	}
	return ep
}

// Logger returns the endpoint's trace logger, so a caller can enable
// tracing or swap its backend.
func (ep *Endpoint) Logger() *corelog.Logger { return ep.log }

// LocalAddr returns the endpoint's bound socket address.
func (ep *Endpoint) LocalAddr() net.Addr { return ep.sock.LocalAddr() }

// SendTo satisfies transaction.Socket, delegating to the underlying
// transport collaborator.
func (ep *Endpoint) SendTo(peer net.Addr, data []byte) error {
	return ep.sock.SendTo(peer, data)
}

func (ep *Endpoint) nextMsgID() uint16 {
	return uint16(atomic.AddUint32(&ep.msgIDCounter, 1))
}

// newToken derives a fresh, exchange-stable token from an xid, the
// token generator this module's domain stack settles on (see
// DESIGN.md); an xid is 12 bytes, truncated to CoAP's 8-byte token
// ceiling.
func newToken() []byte {
	id := xid.New()
	b := id.Bytes()
	return append([]byte(nil), b[:8]...)
}

// Resolve turns host into one or more peer addresses at port,
// recognizing the symbolic multicast hostname of spec §4.7.
func (ep *Endpoint) Resolve(host string, port int) ([]net.Addr, error) {
	return ep.resolveHost(host, port)
}

// Send transmits a request built by desc to peer and waits for its
// first resolved result, per spec §4.6/§4.7.
func Send[R any](ctx context.Context, ep *Endpoint, peer net.Addr, desc senddesc.Descriptor[R]) (R, error) {
	msgID := ep.nextMsgID()
	tx := transaction.New(ep, ep.tracker, peer, msgID, newToken(), ep.nextMsgID, desc)
	return tx.Run(ctx)
}

// SendStream transmits a multicast or observe request, invoking emit
// for every Done result the descriptor's handler produces instead of
// stopping at the first one (spec §4.6.1).
func SendStream[R any](ctx context.Context, ep *Endpoint, peer net.Addr, desc senddesc.Descriptor[R], emit func(R)) error {
	msgID := ep.nextMsgID()
	tx := transaction.New(ep, ep.tracker, peer, msgID, newToken(), ep.nextMsgID, desc)
	return tx.RunStream(ctx, emit)
}

// Close shuts down the endpoint's socket.
func (ep *Endpoint) Close() error { return ep.sock.Close() }

// Serve runs the receive loop until ctx is cancelled or the socket's
// RecvFrom returns an error, per spec §4.7's inbound receive-loop body.
// Every inbound packet is handled on its own supervised goroutine via
// an errgroup, so Serve's return only happens once every in-flight
// handler has also returned, rather than leaving them to finish (or
// not) on their own after the loop exits.
func (ep *Endpoint) Serve(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	buf := make([]byte, maxPacketLen)
	for {
		if err := ctx.Err(); err != nil {
			g.Wait()
			return err
		}
		n, source, dest, err := ep.sock.RecvFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				g.Wait()
				return ctx.Err()
			}
			ep.log.Warnf("[coap] RecvFrom error: %s", err)
			g.Wait()
			return err
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		g.Go(func() error {
			ep.handlePacket(data, source, dest)
			return nil
		})
	}
}

func (ep *Endpoint) handlePacket(data []byte, source, dest net.Addr) {
	msg, err := message.ParseMessage(data)
	if err != nil {
		// malformed: silently drop, per spec §4.7 and §7.
		return
	}

	switch {
	case msg.Code.IsRequest():
		ep.handleRequest(msg, source, dest)
	case isPing(msg):
		ep.sendEmpty(message.ResetMessage(msg.MessageID), source)
	case isResponse(msg):
		ep.handleResponse(msg, source)
	default:
		// parse-valid but semantically bogus, or an empty CON with no
		// interpretation: RST it.
		if msg.IsConfirmable() {
			ep.sendEmpty(message.ResetMessage(msg.MessageID), source)
		}
	}
}

func isPing(msg message.Message) bool {
	return msg.Code.IsEmpty() && msg.IsConfirmable() && len(msg.Token) == 0
}

func isResponse(msg message.Message) bool {
	if msg.Code.IsEmpty() {
		return msg.Type == message.Acknowledgement || msg.Type == message.Reset
	}
	return msg.Code.IsSuccess() || msg.Code.IsClientError() || msg.Code.IsServerError()
}

func (ep *Endpoint) handleResponse(msg message.Message, source net.Addr) {
	var matched bool
	if msg.Code.IsEmpty() {
		matched = ep.tracker.DispatchEmpty(msg, source)
	} else {
		matched = ep.tracker.DispatchResponse(msg, source, false)
		if matched && msg.IsConfirmable() {
			ep.sendEmpty(message.AckMessage(msg.MessageID), source)
		}
	}
	if !matched && msg.IsConfirmable() {
		ep.sendEmpty(message.ResetMessage(msg.MessageID), source)
	}
}

func (ep *Endpoint) handleRequest(msg message.Message, source, dest net.Addr) {
	if ep.handler == nil {
		if msg.IsConfirmable() {
			ep.sendEmpty(message.ResetMessage(msg.MessageID), source)
		}
		return
	}

	ctx := &respondableContext{
		inboundContext: inboundContext{peer: source, msg: msg},
		multicast:      isMulticastAddr(dest),
	}
	if err := ep.handler.ServeCOAP(ctx); err != nil {
		ep.log.Warnf("[coap] request handler error: %s", err)
	}

	if !ctx.responded {
		if msg.IsConfirmable() {
			ep.sendEmpty(message.ResetMessage(msg.MessageID), source)
		}
		return
	}

	resp := ctx.response
	resp.Token = msg.Token
	if msg.IsConfirmable() {
		resp.Type = message.Acknowledgement
		resp.MessageID = msg.MessageID
	} else {
		resp.Type = message.NonConfirmable
		resp.MessageID = ep.nextMsgID()
	}
	data, err := resp.MarshalBinary()
	if err != nil {
		ep.log.Errorf("[coap] cannot marshal response: %s", err)
		return
	}
	if err := ep.sock.SendTo(source, data); err != nil {
		ep.log.Errorf("[coap] cannot send response: %s", err)
	}
}

func (ep *Endpoint) sendEmpty(msg message.Message, peer net.Addr) {
	data, err := msg.MarshalBinary()
	if err != nil {
		return
	}
	if err := ep.sock.SendTo(peer, data); err != nil {
		ep.log.Warnf("[coap] cannot send empty %s: %s", msg.Type, err)
	}
}
