package senddesc

import (
	"bytes"
	"errors"
	"net"

	"github.com/GiterLab/coap-core/block"
	"github.com/GiterLab/coap-core/message"
)

// ErrInvalidBlock is returned when an inbound Block2 option carries an
// out-of-range num/szx pair (RFC7959 §2.2).
var ErrInvalidBlock = errors.New("senddesc: invalid Block2 option value")

// unicastBlock2 implements the Block2 combinator (spec §4.5.1),
// grounded on async-coap's UnicastBlock2: it requests one block at a
// time, reassembling the response with an ETag-consistency check
// across blocks, and yields SendNext until the reconstructor reports
// the transfer is finished.
type unicastBlock2 struct {
	Descriptor[message.Message]
	current  block.Info
	recon    *block.Reconstructor
	first    message.Message
	etag     []byte
	haveETag bool
}

// Block2 wraps inner with Block2 request/reassembly, starting from
// initial (typically block.DefaultInfo for a fresh transfer, or a
// specific block to resume one).
func Block2(inner Descriptor[message.Message], initial block.Info) Descriptor[message.Message] {
	return &unicastBlock2{Descriptor: inner, current: initial}
}

func (b *unicastBlock2) WriteOptions(w OptionWriter, peer net.Addr, start, end message.OptionID) error {
	id := message.Block2
	if id > start && id <= end {
		if err := b.Descriptor.WriteOptions(w, peer, start, id); err != nil {
			return err
		}
		if err := w.AddOption(id, encodeBlockInfo(b.current)); err != nil {
			return err
		}
		return b.Descriptor.WriteOptions(w, peer, id, end)
	}
	return b.Descriptor.WriteOptions(w, peer, start, end)
}

func encodeBlockInfo(b block.Info) []byte {
	var m message.Message
	// a fresh message's first insert of a non-repeatable option never fails.
	_ = m.AddOptionUint(message.Block2, uint32(b))
	v, _ := m.Option(message.Block2)
	return v
}

// SupportsOption additionally accepts Block2: a Block2 transfer always
// carries this critical option in every response, so the default
// critical-option refusal would otherwise reject every block.
func (b *unicastBlock2) SupportsOption(id message.OptionID) bool {
	return b.Descriptor.SupportsOption(id) || id == message.Block2
}

func (b *unicastBlock2) Handler(ctx InboundContext, err error) (Status[message.Message], error) {
	if err != nil {
		return b.Descriptor.Handler(ctx, err)
	}
	if ctx.IsDupe() {
		return Continue[message.Message](), nil
	}

	msg := ctx.Message()
	num, more, szx, ok := msg.Block2()
	if !ok {
		return b.Descriptor.Handler(ctx, nil)
	}

	blk, valid := block.New(num, more, szx)
	if !valid {
		return Status[message.Message]{}, ErrInvalidBlock
	}

	var etag []byte
	if etags := msg.ETags(); len(etags) > 0 {
		etag = etags[0]
	}

	switch {
	case b.recon == nil:
		b.recon = block.NewReconstructor(blk)
		b.first = msg
		if etag != nil {
			b.etag, b.haveETag = etag, true
		}
	case b.haveETag:
		if !bytes.Equal(etag, b.etag) {
			b.recon, b.haveETag = nil, false
			return b.Descriptor.Handler(ctx, ErrResetByPeer)
		}
	}

	finished, feedErr := b.recon.Feed(blk, msg.Payload)
	if feedErr != nil {
		return Status[message.Message]{}, feedErr
	}
	if !finished {
		b.current = b.recon.NextBlock()
		return SendNext[message.Message](), nil
	}

	final := b.first
	final.Payload = b.recon.Bytes()
	return b.Descriptor.Handler(rewrittenContext{InboundContext: ctx, msg: final}, nil)
}

// rewrittenContext overrides Message() on an existing InboundContext,
// used to hand a reassembled message to the inner descriptor's
// handler while keeping the original peer address and dupe flag.
type rewrittenContext struct {
	InboundContext
	msg message.Message
}

func (r rewrittenContext) Message() message.Message { return r.msg }
