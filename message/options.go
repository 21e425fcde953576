package message

import (
	"encoding/binary"
	"errors"
)

// OptionNotRepeatable is returned when an insert targets an option
// number that RFC7252 §5.4.5 forbids from repeating and a value is
// already present (RFC7252 §5.4.5: "An option that is not repeatable
// MUST NOT be present ... more than once").
var OptionNotRepeatable = errors.New("message: option is not repeatable")

// OptionID identifies an option in a message, grounded on
// GiterLab-go-coap's message.go OptionID table, trimmed to the IANA
// CoAP Option Numbers registry (RFC7252 §12.2, RFC7959, RFC7641) the
// core actually exercises.
type OptionID uint16

// Option IDs.
const (
	IfMatch       OptionID = 1
	URIHost       OptionID = 3
	ETag          OptionID = 4
	IfNoneMatch   OptionID = 5
	Observe       OptionID = 6
	URIPort       OptionID = 7
	LocationPath  OptionID = 8
	URIPath       OptionID = 11
	ContentFormat OptionID = 12
	MaxAge        OptionID = 14
	URIQuery      OptionID = 15
	Accept        OptionID = 17
	LocationQuery OptionID = 20
	Block2        OptionID = 23
	Block1        OptionID = 27
	Size2         OptionID = 28
	ProxyURI      OptionID = 35
	ProxyScheme   OptionID = 39
	Size1         OptionID = 60
	NoResponse    OptionID = 258
)

// valueFormat classifies how an option's raw bytes should be interpreted
// (RFC7252 §3.2).
type valueFormat uint8

const (
	valueUnknown valueFormat = iota
	valueEmpty
	valueOpaque
	valueUint
	valueString
)

// repeatable marks an option number as legal to appear more than once in
// a single message (RFC7252 §5.4.5).
type optionDef struct {
	format     valueFormat
	minLen     int
	maxLen     int
	repeatable bool
	critical   bool
}

var optionDefs = map[OptionID]optionDef{
	IfMatch:       {format: valueOpaque, minLen: 0, maxLen: 8, repeatable: true, critical: true},
	URIHost:       {format: valueString, minLen: 1, maxLen: 255, critical: true},
	ETag:          {format: valueOpaque, minLen: 1, maxLen: 8, repeatable: true},
	IfNoneMatch:   {format: valueEmpty, minLen: 0, maxLen: 0, critical: true},
	Observe:       {format: valueUint, minLen: 0, maxLen: 3},
	URIPort:       {format: valueUint, minLen: 0, maxLen: 2, critical: true},
	LocationPath:  {format: valueString, minLen: 0, maxLen: 255, repeatable: true},
	URIPath:       {format: valueString, minLen: 0, maxLen: 255, repeatable: true, critical: true},
	ContentFormat: {format: valueUint, minLen: 0, maxLen: 2},
	MaxAge:        {format: valueUint, minLen: 0, maxLen: 4},
	URIQuery:      {format: valueString, minLen: 0, maxLen: 255, repeatable: true, critical: true},
	Accept:        {format: valueUint, minLen: 0, maxLen: 2, critical: true},
	LocationQuery: {format: valueString, minLen: 0, maxLen: 255, repeatable: true},
	Block2:        {format: valueUint, minLen: 0, maxLen: 3, critical: true},
	Block1:        {format: valueUint, minLen: 0, maxLen: 3, critical: true},
	Size2:         {format: valueUint, minLen: 0, maxLen: 4},
	ProxyURI:      {format: valueString, minLen: 1, maxLen: 1034, critical: true},
	ProxyScheme:   {format: valueString, minLen: 1, maxLen: 255, critical: true},
	Size1:         {format: valueUint, minLen: 0, maxLen: 4},
	NoResponse:    {format: valueUint, minLen: 0, maxLen: 1},
}

// MaxOptionValueSize is the largest value a single option can carry:
// 16-bit delta/length nibbles both reach their extoptWordCode+2-byte-
// extension ceiling (RFC7252 §3.1).
const MaxOptionValueSize = 65535 + 269

// isCritical reports whether oid's low bit is set (RFC7252 §5.4.1):
// options outside the known table are critical iff that bit is set.
func isCritical(oid OptionID) bool {
	if def, ok := optionDefs[oid]; ok {
		return def.critical
	}
	return oid&1 == 1
}

// IsCritical is isCritical exported for senddesc's default
// supports_option behavior.
func IsCritical(oid OptionID) bool { return isCritical(oid) }

func encodeUint(v uint32) []byte {
	switch {
	case v == 0:
		return nil
	case v < 256:
		return []byte{byte(v)}
	case v < 65536:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b
	case v < 16777216:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b[1:]
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b
	}
}

func decodeUint(b []byte) uint32 {
	var tmp [4]byte
	copy(tmp[4-len(b):], b)
	return binary.BigEndian.Uint32(tmp[:])
}

// option is a single (number, raw value) pair, still in wire order.
type option struct {
	ID    OptionID
	Value []byte
}

// options is a non-decreasing-by-ID sequence of option, mirroring
// GiterLab-go-coap's options []option + sort.Interface, but insertion
// keeps the sequence sorted immediately rather than relying on a final
// sort.Stable pass (C2's "insert at the correct sorted position").
type options []option

func (o options) find(id OptionID) (start, end int) {
	start = 0
	for start < len(o) && o[start].ID < id {
		start++
	}
	end = start
	for end < len(o) && o[end].ID == id {
		end++
	}
	return start, end
}

func (o options) values(id OptionID) []option {
	start, end := o.find(id)
	return o[start:end]
}

func (o options) first(id OptionID) (option, bool) {
	start, end := o.find(id)
	if start == end {
		return option{}, false
	}
	return o[start], true
}

// insert adds value at id's sorted position. Inserting into a
// non-repeatable option that already holds a value fails with
// OptionNotRepeatable instead of replacing it in place — SetOption is
// the explicit replace operation.
func (o options) insert(id OptionID, value []byte) (options, error) {
	start, end := o.find(id)
	if def, ok := optionDefs[id]; ok && !def.repeatable && end > start {
		return o, OptionNotRepeatable
	}
	cp := append(options(nil), o[:end]...)
	cp = append(cp, option{ID: id, Value: value})
	cp = append(cp, o[end:]...)
	return cp, nil
}

func (o options) remove(id OptionID) options {
	start, end := o.find(id)
	if start == end {
		return o
	}
	cp := append(options(nil), o[:start]...)
	return append(cp, o[end:]...)
}
