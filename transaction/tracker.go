package transaction

import (
	"fmt"
	"net"
	"sync"

	"github.com/GiterLab/coap-core/internal/slotmap"
	"github.com/GiterLab/coap-core/message"
)

// trackedTransaction is the non-generic face every Transaction[R]
// presents to the Tracker, so transactions of differing result types
// can share one registry.
type trackedTransaction interface {
	deliver(msg message.Message, peer net.Addr, dupe bool) bool
	isMulticast() bool
}

// handle is the token returned by Tracker.Register, opaque to callers,
// needed to remove a registration again.
type handle struct {
	key      slotmap.Key
	tokenKey string
	midKey   string
	valid    bool
}

// Tracker is the response tracker of spec §4.6/C7: a mapping from
// (msg-id, token, peer) to a live transaction, consulted by the
// receive loop on every inbound response or empty ACK/RST. It
// substitutes a generation-counted slot map (internal/slotmap) for the
// weak back-reference the original implementation used
// (async-coap/src/arc_guard.rs's ArcGuard), since Go has no portable
// arbitrary-object weak pointer.
type Tracker struct {
	mu      sync.Mutex
	entries slotmap.Map[trackedTransaction]
	byToken map[string]slotmap.Key
	byMsgID map[string]slotmap.Key
}

// NewTracker returns an empty response tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byToken: make(map[string]slotmap.Key),
		byMsgID: make(map[string]slotmap.Key),
	}
}

func tokenKey(token []byte, peer net.Addr) string {
	return peer.String() + "#" + string(token)
}

func midKey(msgID uint16, peer net.Addr) string {
	return fmt.Sprintf("%s#%d", peer.String(), msgID)
}

// Register records tx as the owner of the given (peer, msg-id, token)
// tuple and returns a handle to later Unregister it.
func (tr *Tracker) Register(peer net.Addr, msgID uint16, token []byte, tx trackedTransaction) handle {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	k := tr.entries.Insert(tx)
	h := handle{key: k, tokenKey: tokenKey(token, peer), midKey: midKey(msgID, peer), valid: true}
	tr.byToken[h.tokenKey] = k
	tr.byMsgID[h.midKey] = k
	return h
}

// Unregister removes a prior registration. It is a no-op on a zero or
// already-removed handle.
func (tr *Tracker) Unregister(h handle) {
	if !h.valid {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.entries.Remove(h.key)
	if k, ok := tr.byToken[h.tokenKey]; ok && k == h.key {
		delete(tr.byToken, h.tokenKey)
	}
	if k, ok := tr.byMsgID[h.midKey]; ok && k == h.key {
		delete(tr.byMsgID, h.midKey)
	}
}

// Len reports how many transactions are currently registered.
func (tr *Tracker) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.entries.Len()
}

// DispatchResponse looks a non-empty response up by exact token+peer
// match and delivers it. It reports whether a transaction matched.
func (tr *Tracker) DispatchResponse(msg message.Message, peer net.Addr, dupe bool) bool {
	tr.mu.Lock()
	k, ok := tr.byToken[tokenKey(msg.Token, peer)]
	tr.mu.Unlock()
	return tr.deliverTo(k, ok, msg, peer, dupe)
}

// DispatchEmpty looks an empty ACK/RST up by msg-id+peer match (tokens
// are not carried on empty messages) and delivers it.
func (tr *Tracker) DispatchEmpty(msg message.Message, peer net.Addr) bool {
	tr.mu.Lock()
	k, ok := tr.byMsgID[midKey(msg.MessageID, peer)]
	tr.mu.Unlock()
	return tr.deliverTo(k, ok, msg, peer, false)
}

func (tr *Tracker) deliverTo(k slotmap.Key, ok bool, msg message.Message, peer net.Addr, dupe bool) bool {
	if !ok {
		return false
	}
	tx, live := tr.entries.Get(k)
	if !live {
		return false
	}
	tx.deliver(msg, peer, dupe)
	return true
}
