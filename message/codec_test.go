package message

import (
	"bytes"
	"testing"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
	}{
		{
			name: "empty ack",
			msg:  AckMessage(1234),
		},
		{
			name: "confirmable get with token and path",
			msg: func() Message {
				m := Message{Type: Confirmable, Code: GET, MessageID: 1, Token: []byte{0xab, 0xcd}}
				m.SetPathString("sensors/temp")
				return m
			}(),
		},
		{
			name: "response with payload and content format",
			msg: func() Message {
				m := Message{Type: Acknowledgement, Code: Content, MessageID: 2, Token: []byte{0x01}}
				m.AddOptionUint(ContentFormat, uint32(ApplicationJSON))
				m.Payload = []byte(`{"t":21.5}`)
				return m
			}(),
		},
		{
			name: "block2 option with extended delta",
			msg: func() Message {
				m := Message{Type: Confirmable, Code: Content, MessageID: 3}
				m.SetBlock2(5, true, 6)
				m.AddOptionUint(NoResponse, 26)
				return m
			}(),
		},
	}

	for _, tc := range cases {
		data, err := tc.msg.MarshalBinary()
		if err != nil {
			t.Errorf("%s: MarshalBinary returned error %v", tc.name, err)
			continue
		}
		got, err := ParseMessage(data)
		if err != nil {
			t.Errorf("%s: ParseMessage returned error %v", tc.name, err)
			continue
		}
		if got.Type != tc.msg.Type || got.Code != tc.msg.Code || got.MessageID != tc.msg.MessageID {
			t.Errorf("%s: header round trip got %+v want %+v", tc.name, got, tc.msg)
		}
		if !bytes.Equal(got.Token, tc.msg.Token) {
			t.Errorf("%s: token round trip got %x want %x", tc.name, got.Token, tc.msg.Token)
		}
		if !bytes.Equal(got.Payload, tc.msg.Payload) {
			t.Errorf("%s: payload round trip got %q want %q", tc.name, got.Payload, tc.msg.Payload)
		}
	}
}

func TestMarshalManyOptionsRoundTrip(t *testing.T) {
	m := Message{Type: Confirmable, Code: GET, MessageID: 42, Token: []byte{1, 2, 3, 4}}
	for i := 0; i < 50; i++ {
		m.AddOptionString(URIQuery, "k=v")
	}

	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary returned error %v", err)
	}
	got, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage returned error %v", err)
	}
	vals := got.OptionStrings(URIQuery)
	if len(vals) != 50 {
		t.Fatalf("got %d Uri-Query values, want 50", len(vals))
	}
	for _, v := range vals {
		if v != "k=v" {
			t.Errorf("Uri-Query value got %q want %q", v, "k=v")
		}
	}
}

func TestUnmarshalShortPacket(t *testing.T) {
	_, err := ParseMessage([]byte{0x40, 0x01})
	if err != ErrShortPacket {
		t.Errorf("ParseMessage with 2-byte input got err %v want %v", err, ErrShortPacket)
	}
}

func TestUnmarshalInvalidVersion(t *testing.T) {
	_, err := ParseMessage([]byte{0x00, 0x01, 0x00, 0x01})
	if err != ErrInvalidVersion {
		t.Errorf("ParseMessage with bad version got err %v want %v", err, ErrInvalidVersion)
	}
}

func TestUnmarshalInvalidTokenLen(t *testing.T) {
	_, err := ParseMessage([]byte{0x4f, 0x01, 0x00, 0x01})
	if err != ErrInvalidTokenLen {
		t.Errorf("ParseMessage with TKL=15 got err %v want %v", err, ErrInvalidTokenLen)
	}
}

func TestUnmarshalReservedNibble(t *testing.T) {
	msg := []byte{0x40, 0x01, 0x00, 0x01, 0xf0}
	_, err := ParseMessage(msg)
	if err != ErrReservedNibble {
		t.Errorf("ParseMessage with reserved nibble got err %v want %v", err, ErrReservedNibble)
	}
}

func TestUnmarshalPayloadMarkerAlone(t *testing.T) {
	msg := []byte{0x40, 0x01, 0x00, 0x01, 0xff}
	_, err := ParseMessage(msg)
	if err != ErrPayloadMarkerAlone {
		t.Errorf("ParseMessage with dangling payload marker got err %v want %v", err, ErrPayloadMarkerAlone)
	}
}

func TestMarshalInvalidTokenLen(t *testing.T) {
	m := Message{Token: make([]byte, 9)}
	_, err := m.MarshalBinary()
	if err != ErrInvalidTokenLen {
		t.Errorf("MarshalBinary with 9-byte token got err %v want %v", err, ErrInvalidTokenLen)
	}
}
