// Package transaction implements the per-exchange state machine of the
// endpoint core: given a send descriptor, it owns retransmission,
// matches inbound responses handed to it by the response tracker, and
// resolves to the descriptor's result type or a transport-level error.
//
// Grounded on plgd-dev/go-coap's ClientConn.writeMessage retransmit
// loop (other_examples/..._clientconn.go.go) for the resend-on-timer
// shape, generalized to async-coap/src/local_endpoint.rs's five-state
// machine (Uninit/ActiveWait/PassiveWait/Finished/Expired) so a single
// engine drives both ordinary unicast exchanges and the streaming
// fan-out multicast/observe need.
package transaction

// State names a transaction's position in the exchange lifecycle.
type State int

const (
	// Uninit is the state before the first transmission, and the state
	// a SendNext outcome returns to for a fresh message-id.
	Uninit State = iota
	// ActiveWait is armed for the next retransmission.
	ActiveWait
	// PassiveWait is armed only for the overall round-trip timeout,
	// retransmission having stopped (an empty ACK arrived, or the
	// descriptor's retransmit schedule is exhausted).
	PassiveWait
	// Finished is terminal: the transaction has resolved, successfully
	// or not.
	Finished
	// Expired marks a transaction whose registration was removed
	// (cancellation) before it reached Finished on its own.
	Expired
)

func (s State) String() string {
	switch s {
	case Uninit:
		return "Uninit"
	case ActiveWait:
		return "ActiveWait"
	case PassiveWait:
		return "PassiveWait"
	case Finished:
		return "Finished"
	case Expired:
		return "Expired"
	default:
		return "Unknown"
	}
}
