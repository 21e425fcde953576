package message

import (
	"encoding/binary"
	"sort"
)

// Option delta/length nibble codes (RFC7252 §3.1).
const (
	extoptByteCode   = 13
	extoptByteAddend = 13
	extoptWordCode   = 14
	extoptWordAddend = 269
	extoptError      = 15
)

func extendOpt(v int) (nibble, ext int) {
	switch {
	case v >= extoptWordAddend:
		return extoptWordCode, v - extoptWordAddend
	case v >= extoptByteAddend:
		return extoptByteCode, v - extoptByteAddend
	default:
		return v, 0
	}
}

// MarshalBinary encodes m into its RFC7252 §3 wire form: a 4-byte
// header, the token, the options sorted and delta-encoded, an 0xFF
// payload marker, and the payload.
func (m Message) MarshalBinary() ([]byte, error) {
	if len(m.Token) > 8 {
		return nil, ErrInvalidTokenLen
	}

	out := make([]byte, 0, 4+len(m.Token)+len(m.Payload)+16)
	out = append(out,
		(1<<6)|(uint8(m.Type)<<4)|uint8(len(m.Token)&0xf),
		byte(m.Code),
		byte(m.MessageID>>8), byte(m.MessageID),
	)
	out = append(out, m.Token...)

	opts := append(options(nil), m.opts...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })

	prev := 0
	for _, o := range opts {
		if len(o.Value) > MaxOptionValueSize {
			return nil, ErrOptionTooLong
		}
		delta := int(o.ID) - prev
		length := len(o.Value)

		dNibble, dExt := extendOpt(delta)
		lNibble, lExt := extendOpt(length)

		out = append(out, byte(dNibble<<4)|byte(lNibble))
		out = appendExt(out, dNibble, dExt)
		out = appendExt(out, lNibble, lExt)
		out = append(out, o.Value...)

		prev = int(o.ID)
	}

	if len(m.Payload) > 0 {
		out = append(out, 0xff)
		out = append(out, m.Payload...)
	}

	return out, nil
}

func appendExt(out []byte, nibble, ext int) []byte {
	switch nibble {
	case extoptByteCode:
		return append(out, byte(ext))
	case extoptWordCode:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(ext))
		return append(out, tmp[:]...)
	default:
		return out
	}
}

// ParseMessage decodes data as a Message.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	err := m.UnmarshalBinary(data)
	return m, err
}

// UnmarshalBinary decodes data, replacing m's contents.
func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return ErrShortPacket
	}
	if data[0]>>6 != 1 {
		return ErrInvalidVersion
	}

	m.Type = CType((data[0] >> 4) & 0x3)
	tokenLen := int(data[0] & 0xf)
	if tokenLen > 8 {
		return ErrInvalidTokenLen
	}
	m.Code = Code(data[1])
	m.MessageID = binary.BigEndian.Uint16(data[2:4])

	if len(data) < 4+tokenLen {
		return ErrTruncated
	}
	m.Token = append([]byte(nil), data[4:4+tokenLen]...)

	b := data[4+tokenLen:]
	parseExt := func(nibble int) (int, error) {
		switch nibble {
		case extoptByteCode:
			if len(b) < 1 {
				return 0, ErrTruncated
			}
			v := int(b[0]) + extoptByteAddend
			b = b[1:]
			return v, nil
		case extoptWordCode:
			if len(b) < 2 {
				return 0, ErrTruncated
			}
			v := int(binary.BigEndian.Uint16(b[:2])) + extoptWordAddend
			b = b[2:]
			return v, nil
		default:
			return nibble, nil
		}
	}

	var opts options
	prev := 0
	for len(b) > 0 {
		if b[0] == 0xff {
			b = b[1:]
			if len(b) == 0 {
				return ErrPayloadMarkerAlone
			}
			break
		}

		deltaNibble := int(b[0] >> 4)
		lengthNibble := int(b[0] & 0x0f)
		if deltaNibble == extoptError || lengthNibble == extoptError {
			return ErrReservedNibble
		}
		b = b[1:]

		delta, err := parseExt(deltaNibble)
		if err != nil {
			return err
		}
		length, err := parseExt(lengthNibble)
		if err != nil {
			return err
		}
		if len(b) < length {
			return ErrTruncated
		}

		oid := OptionID(prev + delta)
		value := append([]byte(nil), b[:length]...)
		b = b[length:]
		prev = int(oid)

		opts = append(opts, option{ID: oid, Value: value})
	}

	m.opts = opts
	m.Payload = append([]byte(nil), b...)
	return nil
}
