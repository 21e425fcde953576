// Package message implements the CoAP binary message codec: option
// delta/length encoding (C2) and the message header/token/payload
// framing built on top of it (C3), grounded on GiterLab-go-coap's
// message.go and extended with Block1/Block2/Observe/NoResponse and the
// RFC3986 URI extractors the teacher never needed.
package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GiterLab/coap-core/uri"
)

// CType represents the message type (RFC7252 §3).
type CType uint8

const (
	Confirmable    CType = 0
	NonConfirmable CType = 1
	Acknowledgement CType = 2
	Reset          CType = 3
)

var typeNames = [4]string{"Confirmable", "NonConfirmable", "Acknowledgement", "Reset"}

func (t CType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Unknown (0x%x)", uint8(t))
}

// Code is the type used for both request and response codes, split into
// class.detail (RFC7252 §3).
type Code uint8

// NewCode packs a class.detail pair, e.g. NewCode(2, 5) == Content.
func NewCode(class, detail uint8) Code {
	return Code(class<<5 | detail&0x1f)
}

// Class returns the code's class (the top 3 bits).
func (c Code) Class() uint8 { return uint8(c) >> 5 }

// Detail returns the code's detail (the bottom 5 bits).
func (c Code) Detail() uint8 { return uint8(c) & 0x1f }

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("%d.%02d", c.Class(), c.Detail())
}

// Request codes.
const (
	GET    Code = 1
	POST   Code = 2
	PUT    Code = 3
	DELETE Code = 4
	FETCH  Code = 5
	PATCH  Code = 6
	IPATCH Code = 7
)

// Response codes.
const (
	Created               Code = 65
	Deleted               Code = 66
	Valid                 Code = 67
	Changed               Code = 68
	Content               Code = 69
	Continue              Code = 95
	BadRequest            Code = 128
	Unauthorized          Code = 129
	BadOption             Code = 130
	Forbidden             Code = 131
	NotFound              Code = 132
	MethodNotAllowed      Code = 133
	NotAcceptable         Code = 134
	RequestEntityIncomplete Code = 136
	PreconditionFailed    Code = 140
	RequestEntityTooLarge Code = 141
	UnsupportedMediaType  Code = 143
	InternalServerError   Code = 160
	NotImplemented        Code = 161
	BadGateway            Code = 162
	ServiceUnavailable    Code = 163
	GatewayTimeout        Code = 164
	ProxyingNotSupported  Code = 165
)

var codeNames = map[Code]string{
	GET: "GET", POST: "POST", PUT: "PUT", DELETE: "DELETE", FETCH: "FETCH", PATCH: "PATCH", IPATCH: "IPATCH",
	Created: "Created", Deleted: "Deleted", Valid: "Valid", Changed: "Changed", Content: "Content", Continue: "Continue",
	BadRequest: "BadRequest", Unauthorized: "Unauthorized", BadOption: "BadOption", Forbidden: "Forbidden",
	NotFound: "NotFound", MethodNotAllowed: "MethodNotAllowed", NotAcceptable: "NotAcceptable",
	RequestEntityIncomplete: "RequestEntityIncomplete",
	PreconditionFailed:      "PreconditionFailed", RequestEntityTooLarge: "RequestEntityTooLarge",
	UnsupportedMediaType: "UnsupportedMediaType", InternalServerError: "InternalServerError",
	NotImplemented: "NotImplemented", BadGateway: "BadGateway", ServiceUnavailable: "ServiceUnavailable",
	GatewayTimeout: "GatewayTimeout", ProxyingNotSupported: "ProxyingNotSupported",
}

// IsRequest reports whether c falls in the method-code class (0.01-0.31).
func (c Code) IsRequest() bool { return c.Class() == 0 && c != 0 }

// IsSuccess reports whether c is a 2.xx response code.
func (c Code) IsSuccess() bool { return c.Class() == 2 }

// IsClientError reports whether c is a 4.xx response code.
func (c Code) IsClientError() bool { return c.Class() == 4 }

// IsServerError reports whether c is a 5.xx response code.
func (c Code) IsServerError() bool { return c.Class() == 5 }

// IsEmpty reports whether c is the empty message code (0.00), used for
// ACK/RST/ping.
func (c Code) IsEmpty() bool { return c == 0 }

// Message encoding/decoding errors.
var (
	ErrInvalidTokenLen    = errors.New("invalid token length")
	ErrOptionTooLong      = errors.New("option value too long")
	ErrShortPacket        = errors.New("short packet")
	ErrInvalidVersion     = errors.New("invalid CoAP version")
	ErrTruncated          = errors.New("truncated option")
	ErrReservedNibble     = errors.New("reserved option delta/length nibble")
	ErrPayloadMarkerAlone = errors.New("payload marker with no payload")
)

// Message is a CoAP message: header, token, ordered options, payload.
type Message struct {
	Type      CType
	Code      Code
	MessageID uint16
	Token     []byte
	Payload   []byte

	opts options
}

// IsConfirmable reports whether this message is of type Confirmable.
func (m Message) IsConfirmable() bool { return m.Type == Confirmable }

// AddOption appends a raw option value, preserving sort order. It
// returns OptionNotRepeatable if id is not repeatable and already has
// a value (RFC7252 §5.4.5); SetOption is the explicit replace
// operation for that case.
func (m *Message) AddOption(id OptionID, value []byte) error {
	opts, err := m.opts.insert(id, value)
	if err != nil {
		return err
	}
	m.opts = opts
	return nil
}

// AddOptionUint appends a uint-valued option.
func (m *Message) AddOptionUint(id OptionID, v uint32) error {
	return m.AddOption(id, encodeUint(v))
}

// AddOptionString appends a string-valued option.
func (m *Message) AddOptionString(id OptionID, v string) error {
	return m.AddOption(id, []byte(v))
}

// SetOption discards any existing values for id and sets a single new one.
func (m *Message) SetOption(id OptionID, value []byte) {
	m.opts = m.opts.remove(id)
	// a freshly-removed option can never collide with itself.
	_ = m.AddOption(id, value)
}

// RemoveOption discards all values for id.
func (m *Message) RemoveOption(id OptionID) {
	m.opts = m.opts.remove(id)
}

// Options returns every raw value stored for id, in wire order.
func (m Message) Options(id OptionID) [][]byte {
	vals := m.opts.values(id)
	if len(vals) == 0 {
		return nil
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = v.Value
	}
	return out
}

// Option returns the first raw value stored for id, if any.
func (m Message) Option(id OptionID) ([]byte, bool) {
	o, ok := m.opts.first(id)
	if !ok {
		return nil, false
	}
	return o.Value, true
}

// OptionUint returns id's first value decoded as a uint, if present.
func (m Message) OptionUint(id OptionID) (uint32, bool) {
	v, ok := m.Option(id)
	if !ok {
		return 0, false
	}
	return decodeUint(v), true
}

// OptionStrings returns every value of a repeatable string option, in order.
func (m Message) OptionStrings(id OptionID) []string {
	vals := m.opts.values(id)
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v.Value)
	}
	return out
}

// ContentFormat returns the Content-Format option, if present.
func (m Message) ContentFormat() (MediaType, bool) {
	v, ok := m.OptionUint(ContentFormat)
	return MediaType(v), ok
}

// Accept returns the Accept option, if present.
func (m Message) Accept() (MediaType, bool) {
	v, ok := m.OptionUint(Accept)
	return MediaType(v), ok
}

// Block2 returns the decoded Block2 option, if present.
func (m Message) Block2() (num uint32, more bool, szx uint8, ok bool) {
	v, present := m.OptionUint(Block2)
	if !present {
		return 0, false, 0, false
	}
	return v >> 4, v&0x8 != 0, uint8(v & 0x7), true
}

// SetBlock2 sets the Block2 option from its packed fields.
func (m *Message) SetBlock2(num uint32, more bool, szx uint8) {
	v := num<<4 | uint32(szx)&0x7
	if more {
		v |= 0x8
	}
	m.SetOption(Block2, encodeUint(v))
}

// Block1 returns the decoded Block1 option, if present.
func (m Message) Block1() (num uint32, more bool, szx uint8, ok bool) {
	v, present := m.OptionUint(Block1)
	if !present {
		return 0, false, 0, false
	}
	return v >> 4, v&0x8 != 0, uint8(v & 0x7), true
}

// ETags returns every ETag option value, in order.
func (m Message) ETags() [][]byte { return m.Options(ETag) }

// Observe returns the Observe option, if present.
func (m Message) Observe() (uint32, bool) { return m.OptionUint(Observe) }

// Path returns the Uri-Path segments, percent-decoded.
func (m Message) Path() []string {
	raw := m.OptionStrings(URIPath)
	out := make([]string, len(raw))
	for i, s := range raw {
		out[i] = uri.Unescape(s)
	}
	return out
}

// PathString joins Path with "/".
func (m Message) PathString() string {
	return strings.Join(m.Path(), "/")
}

// SetPathString splits s on "/" and sets Uri-Path from the segments.
func (m *Message) SetPathString(s string) {
	m.RemoveOption(URIPath)
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	if s == "" {
		return
	}
	for _, seg := range strings.Split(s, "/") {
		// Uri-Path is repeatable; this insert can never fail.
		_ = m.AddOptionString(URIPath, uri.Escape(seg, uri.Segment))
	}
}

// OptionIDs returns every distinct option number present, in ascending
// wire order, used to check a response's options against a send
// descriptor's SupportsOption.
func (m Message) OptionIDs() []OptionID {
	var ids []OptionID
	for i := 0; i < len(m.opts); {
		id := m.opts[i].ID
		ids = append(ids, id)
		for i < len(m.opts) && m.opts[i].ID == id {
			i++
		}
	}
	return ids
}

// ExtractURI walks consecutive Uri-Path then Uri-Query options and
// renders them back into a disambiguated relative-reference, grounded on
// spec.md's extract_uri(): segments are percent-decoded for PathSegments
// callers but the returned RelRef keeps them encoded, and RelRef.String
// takes care of a degenerate first segment (one containing ':', or an
// accidental leading "//" from an empty first path segment).
func (m Message) ExtractURI() (uri.RelRef, error) {
	var b strings.Builder
	for i, seg := range m.OptionStrings(URIPath) {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(seg)
	}
	for i, q := range m.OptionStrings(URIQuery) {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(q)
	}
	return uri.ParseRelRef(b.String())
}

// ExtractLocation is ExtractURI for Location-Path/Location-Query,
// used to recover the resource location Created/Changed advertises.
func (m Message) ExtractLocation() (uri.RelRef, error) {
	var b strings.Builder
	for i, seg := range m.OptionStrings(LocationPath) {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(seg)
	}
	for i, q := range m.OptionStrings(LocationQuery) {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(q)
	}
	return uri.ParseRelRef(b.String())
}

// AckMessage builds an empty acknowledgement for the given message-id,
// mirroring the original implementation's zero-sized AckMessage/
// ResetMessage reader types used to emit automatic replies.
func AckMessage(id uint16) Message {
	return Message{Type: Acknowledgement, Code: 0, MessageID: id}
}

// ResetMessage builds an empty reset for the given message-id.
func ResetMessage(id uint16) Message {
	return Message{Type: Reset, Code: 0, MessageID: id}
}

// WriteMsgTo copies dst's type/code/token/options/payload from src,
// except a zero message-id in src leaves dst's own id untouched —
// mirroring the "write one reader into any writer" contract in C3.
func WriteMsgTo(src Message, dst *Message) {
	dst.Type = src.Type
	dst.Code = src.Code
	if src.MessageID != 0 {
		dst.MessageID = src.MessageID
	}
	dst.Token = append([]byte(nil), src.Token...)
	dst.opts = append(options(nil), src.opts...)
	dst.Payload = append([]byte(nil), src.Payload...)
}
