package transaction

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/senddesc"
)

// ErrCancelled is returned (and, for RunStream, swallowed) when a
// transaction's context is cancelled before the exchange resolves —
// the cancellation protocol of spec §5: a cancelled transaction removes
// its tracker registration; Run reports ErrCancelled and RunStream
// reports nothing.
var ErrCancelled = errors.New("transaction: cancelled")

// maxOptionID is the inclusive upper bound passed to a descriptor's
// WriteOptions to mean "to the end of option-number space".
const maxOptionID = message.OptionID(65535)

// Socket is the minimal sending capability a transaction needs from
// its owning endpoint; endpoint.Endpoint satisfies it directly.
type Socket interface {
	SendTo(peer net.Addr, data []byte) error
}

type inboundMsg struct {
	msg  message.Message
	peer net.Addr
	dupe bool
}

// Transaction drives one outbound exchange, per spec §4.6, for a send
// descriptor whose result type is R.
type Transaction[R any] struct {
	sock    Socket
	tracker *Tracker
	peer    net.Addr
	token   []byte
	desc    senddesc.Descriptor[R]

	nextMsgID func() uint16

	mu              sync.Mutex
	state           State
	msgID           uint16
	retransmitCount int
	absoluteTimeout time.Time

	handle  handle
	inbound chan inboundMsg
}

// New returns a transaction ready to Run or RunStream. msgID is the
// message-id of the first transmission; nextMsgID allocates a fresh
// one for every SendNext restart. token is used exactly as the caller
// supplies it (it is not derived from msgID) and stays the same across
// retransmits and SendNext restarts.
func New[R any](sock Socket, tracker *Tracker, peer net.Addr, msgID uint16, token []byte, nextMsgID func() uint16, desc senddesc.Descriptor[R]) *Transaction[R] {
	return &Transaction[R]{
		sock:      sock,
		tracker:   tracker,
		peer:      peer,
		token:     token,
		desc:      desc,
		nextMsgID: nextMsgID,
		msgID:     msgID,
		inbound:   make(chan inboundMsg, 8),
	}
}

// State reports the transaction's current position in the exchange.
func (t *Transaction[R]) State() State { return t.getState() }

func (t *Transaction[R]) getState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transaction[R]) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Transaction[R]) getMsgID() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgID
}

// deliver satisfies trackedTransaction: the receive loop hands a
// matched inbound message to the transaction's own goroutine via a
// buffered channel rather than touching its state directly, so state
// transitions stay race-free (spec §5's shared-resource rule).
func (t *Transaction[R]) deliver(msg message.Message, peer net.Addr, dupe bool) bool {
	select {
	case t.inbound <- inboundMsg{msg: msg, peer: peer, dupe: dupe}:
	default:
		// a full buffer means the transaction isn't draining fast
		// enough to keep up; drop rather than block the receive loop.
	}
	return t.getState() != Finished && t.getState() != Expired
}

func (t *Transaction[R]) isMulticast() bool { return senddesc.IsMulticast(t.desc) }

// Run drives the exchange to its first Done result (or an error),
// matching ordinary unicast request/response semantics.
func (t *Transaction[R]) Run(ctx context.Context) (R, error) {
	var zero R
	var result R
	var got bool
	err := t.run(ctx, func(v R) bool {
		result, got = v, true
		return true
	})
	if got {
		return result, nil
	}
	return zero, err
}

// RunStream drives a multicast or observe exchange, invoking emit for
// every Done the descriptor's handler produces instead of stopping at
// the first one (spec §4.6.1). It returns when the exchange ends;
// ResponseTimeout and cancellation are not propagated as stream
// errors, matching the spec's "neither of which is propagated to the
// stream as an error".
func (t *Transaction[R]) RunStream(ctx context.Context, emit func(R)) error {
	err := t.run(ctx, func(v R) bool {
		emit(v)
		return false
	})
	if err == senddesc.ErrResponseTimeout || err == ErrCancelled {
		return nil
	}
	return err
}

func (t *Transaction[R]) run(ctx context.Context, onDone func(R) bool) error {
	Metrics.TransactionsStarted.Inc()
	if err := t.transmit(); err != nil {
		t.setState(Finished)
		return err
	}
	t.register()
	// t.handle is replaced on every SendNext restart; remove whichever
	// registration is current when run returns.
	defer func() { t.tracker.Unregister(t.handle) }()

	multicast := senddesc.IsMulticast(t.desc)
	t.absoluteTimeout = time.Now().Add(t.desc.TransmitWaitDuration())
	delay, active := t.desc.DelayToRetransmit(0)
	if active {
		t.setState(ActiveWait)
	} else {
		delay = t.desc.MaxRTT()
		t.setState(PassiveWait)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.setState(Finished)
			Metrics.Cancellations.Inc()
			return ErrCancelled

		case <-timer.C:
			if done, err := t.onTimer(multicast, onDone, timer); done {
				return err
			}

		case in := <-t.inbound:
			stop, err := t.deliverOne(in, multicast, onDone)
			if stop {
				t.setState(Finished)
				return err
			}
			t.rearm(timer)
		}
	}
}

func (t *Transaction[R]) onTimer(multicast bool, onDone func(R) bool, timer *time.Timer) (done bool, err error) {
	switch t.getState() {
	case ActiveWait:
		if time.Now().After(t.absoluteTimeout) {
			t.setState(Finished)
			Metrics.Timeouts.Inc()
			return true, senddesc.ErrResponseTimeout
		}
		if err := t.transmit(); err != nil {
			t.setState(Finished)
			return true, err
		}
		Metrics.Retransmits.Inc()
		t.mu.Lock()
		t.retransmitCount++
		n := t.retransmitCount
		t.mu.Unlock()
		if d, ok := t.desc.DelayToRetransmit(n); ok {
			timer.Reset(d)
		} else {
			t.setState(PassiveWait)
			timer.Reset(t.desc.MaxRTT())
		}
		return false, nil

	case PassiveWait:
		status, hErr := t.desc.Handler(nil, senddesc.ErrResponseTimeout)
		if multicast {
			t.setState(Finished)
			return true, nil
		}
		t.setState(Finished)
		if hErr != nil {
			return true, hErr
		}
		if status.IsDone() {
			onDone(status.Value)
			return true, nil
		}
		Metrics.Timeouts.Inc()
		return true, senddesc.ErrResponseTimeout

	default:
		return false, nil
	}
}

func (t *Transaction[R]) rearm(timer *time.Timer) {
	switch t.getState() {
	case ActiveWait:
		t.mu.Lock()
		n := t.retransmitCount
		t.mu.Unlock()
		if d, ok := t.desc.DelayToRetransmit(n); ok {
			timer.Reset(d)
		}
	case PassiveWait:
		timer.Reset(t.desc.MaxRTT())
	case Uninit:
		if err := t.restart(); err != nil {
			t.setState(Finished)
			return
		}
		t.absoluteTimeout = time.Now().Add(t.desc.TransmitWaitDuration())
		if d, ok := t.desc.DelayToRetransmit(0); ok {
			t.setState(ActiveWait)
			timer.Reset(d)
		} else {
			t.setState(PassiveWait)
			timer.Reset(t.desc.MaxRTT())
		}
	}
}

func (t *Transaction[R]) deliverOne(in inboundMsg, multicast bool, onDone func(R) bool) (stop bool, err error) {
	if !multicast && in.msg.Code.IsEmpty() && in.msg.Type == message.Acknowledgement && t.getState() == ActiveWait {
		t.setState(PassiveWait)
		return false, nil
	}

	if hasUnsupportedOption(t.desc, in.msg) {
		// an unrecognized critical option makes this response as good
		// as absent (RFC7252 §5.4.1); wait for a better one instead of
		// handing it to the descriptor's handler.
		return false, nil
	}

	var handlerErr error
	if in.msg.Type == message.Reset {
		handlerErr = senddesc.ErrResetByPeer
		Metrics.Resets.Inc()
	}

	ctx := msgContext{peer: in.peer, msg: in.msg, dupe: in.dupe}
	status, hErr := t.desc.Handler(ctx, handlerErr)
	if hErr != nil {
		if multicast {
			return false, nil
		}
		return true, hErr
	}

	switch {
	case status.IsDone():
		if onDone(status.Value) {
			return true, nil
		}
		if !multicast {
			t.setState(PassiveWait)
		}
		return false, nil
	case status.IsSendNext():
		t.setState(Uninit)
		return false, nil
	default: // Continue
		if !multicast {
			t.setState(PassiveWait)
		}
		return false, nil
	}
}

// hasUnsupportedOption reports whether msg carries any option desc's
// SupportsOption refuses, per the send descriptor's "response messages
// with any options that cause this method to return false will be
// rejected" contract.
func hasUnsupportedOption[R any](desc senddesc.Descriptor[R], msg message.Message) bool {
	for _, id := range msg.OptionIDs() {
		if !desc.SupportsOption(id) {
			return true
		}
	}
	return false
}

func (t *Transaction[R]) register() {
	t.handle = t.tracker.Register(t.peer, t.getMsgID(), t.token, t)
}

func (t *Transaction[R]) restart() error {
	t.tracker.Unregister(t.handle)
	t.mu.Lock()
	t.msgID = t.nextMsgID()
	t.retransmitCount = 0
	t.mu.Unlock()
	if err := t.transmit(); err != nil {
		return err
	}
	t.register()
	return nil
}

func (t *Transaction[R]) buildMessage() (message.Message, error) {
	var msg message.Message
	msg.MessageID = t.getMsgID()
	msg.Token = t.token
	if senddesc.IsNonconfirmable(t.desc) {
		msg.Type = message.NonConfirmable
	} else {
		msg.Type = message.Confirmable
	}
	if err := t.desc.WriteOptions(&msg, t.peer, 0, maxOptionID); err != nil {
		return message.Message{}, err
	}
	if err := t.desc.WritePayload(&msg, t.peer); err != nil {
		return message.Message{}, err
	}
	return msg, nil
}

func (t *Transaction[R]) transmit() error {
	msg, err := t.buildMessage()
	if err != nil {
		return err
	}
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	return t.sock.SendTo(t.peer, data)
}

// msgContext is the InboundContext a transaction builds around each
// delivered message.
type msgContext struct {
	peer net.Addr
	msg  message.Message
	dupe bool
}

func (c msgContext) PeerAddr() net.Addr       { return c.peer }
func (c msgContext) Message() message.Message { return c.msg }
func (c msgContext) IsDupe() bool             { return c.dupe }
