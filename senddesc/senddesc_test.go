package senddesc

import (
	"net"
	"reflect"
	"testing"

	"github.com/GiterLab/coap-core/block"
	"github.com/GiterLab/coap-core/message"
	"github.com/GiterLab/coap-core/uri"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "udp" }
func (a fakeAddr) String() string  { return string(a) }

type fakeCtx struct {
	addr net.Addr
	msg  message.Message
	dupe bool
}

func (c fakeCtx) PeerAddr() net.Addr         { return c.addr }
func (c fakeCtx) Message() message.Message   { return c.msg }
func (c fakeCtx) IsDupe() bool               { return c.dupe }

type recordingWriter struct {
	ids    []message.OptionID
	values [][]byte
}

func (r *recordingWriter) AddOption(id message.OptionID, value []byte) error {
	r.ids = append(r.ids, id)
	r.values = append(r.values, value)
	return nil
}

func TestGetSuccessClassification(t *testing.T) {
	d := Get()
	status, err := d.Handler(fakeCtx{msg: message.Message{Code: message.Content}}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() {
		t.Error("2.05 Content should report Done")
	}
}

func TestGetErrorClassification(t *testing.T) {
	cases := []struct {
		code Code
		want error
	}{
		{message.NotFound, ErrResourceNotFound},
		{message.Forbidden, ErrForbidden},
		{message.Unauthorized, ErrUnauthorized},
		{message.MethodNotAllowed, ErrClientRequestError},
		{message.InternalServerError, ErrServerError},
	}
	for _, tc := range cases {
		_, err := Get().Handler(fakeCtx{msg: message.Message{Code: tc.code}}, nil)
		if err != tc.want {
			t.Errorf("code %v got err %v want %v", tc.code, err, tc.want)
		}
	}
}

type Code = message.Code

func TestGetIgnoresDupe(t *testing.T) {
	status, err := Get().Handler(fakeCtx{msg: message.Message{Code: message.Content}, dupe: true}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsContinue() {
		t.Error("dupe response should report Continue")
	}
}

func TestDeleteAcceptsDeletedCode(t *testing.T) {
	status, err := Delete().Handler(fakeCtx{msg: message.Message{Code: message.Deleted}}, nil)
	if err != nil || !status.IsDone() {
		t.Errorf("Delete with 2.02 Deleted got (done=%v, err=%v), want (true, nil)", status.IsDone(), err)
	}
}

func TestAddOptionOrdering(t *testing.T) {
	d := AddOption[Void](Get(), message.URIPort, []byte{0x16, 0x33})
	w := &recordingWriter{}
	if err := d.WriteOptions(w, nil, 0, 65535); err != nil {
		t.Fatalf("WriteOptions returned error %v", err)
	}
	if !reflect.DeepEqual(w.ids, []message.OptionID{message.URIPort}) {
		t.Errorf("WriteOptions wrote ids %v, want [URIPort]", w.ids)
	}
}

func TestAddOptionRespectsRange(t *testing.T) {
	d := AddOption[Void](Get(), message.URIPort, []byte{1})
	w := &recordingWriter{}
	if err := d.WriteOptions(w, nil, message.URIPort, 65535); err != nil {
		t.Fatalf("WriteOptions returned error %v", err)
	}
	if len(w.ids) != 0 {
		t.Errorf("option at the exclusive lower bound should not be written, got %v", w.ids)
	}
}

func TestUriHostPathOrdering(t *testing.T) {
	ref := uri.MustParseRelRef("sensors/temp?u=C")
	d := UriHostPath[Void](Get(), "example.com", ref)
	w := &recordingWriter{}
	if err := d.WriteOptions(w, nil, 0, 65535); err != nil {
		t.Fatalf("WriteOptions returned error %v", err)
	}
	want := []message.OptionID{message.URIHost, message.URIPath, message.URIPath, message.URIQuery}
	if !reflect.DeepEqual(w.ids, want) {
		t.Errorf("UriHostPath wrote ids %v, want %v", w.ids, want)
	}
}

func TestUriHostPathWithoutHostOption(t *testing.T) {
	ref := uri.MustParseRelRef("a")
	base := UriHostPath[Void](Get(), "example.com", ref).(*uriHostPath[Void])
	d := base.WithoutHostOption()
	w := &recordingWriter{}
	if err := d.WriteOptions(w, nil, 0, 65535); err != nil {
		t.Fatalf("WriteOptions returned error %v", err)
	}
	for _, id := range w.ids {
		if id == message.URIHost {
			t.Errorf("WithoutHostOption still wrote Uri-Host")
		}
	}
}

func TestNonconfirmableDisablesRetransmit(t *testing.T) {
	d := Nonconfirmable[Void](Get())
	if !IsNonconfirmable(d) {
		t.Error("IsNonconfirmable should report true")
	}
	if _, ok := d.DelayToRetransmit(0); ok {
		t.Error("Nonconfirmable should report no retransmit schedule")
	}
}

func TestNonconfirmableHandlerMapsTimeoutToDone(t *testing.T) {
	d := Nonconfirmable[Void](Get())
	status, err := d.Handler(nil, ErrResponseTimeout)
	if err != nil {
		t.Fatalf("Handler returned error %v, want nil", err)
	}
	if !status.IsDone() {
		t.Error("Nonconfirmable should treat a response timeout as Done")
	}
}

func TestAllowCriticalOptionAcceptsListedOption(t *testing.T) {
	d := AllowCriticalOption[Void](Get(), message.Block1)
	if !d.SupportsOption(message.Block1) {
		t.Error("AllowCriticalOption should accept the listed option")
	}
	if d.SupportsOption(message.Block2) {
		t.Error("AllowCriticalOption should still refuse an unlisted critical option")
	}
}

func TestUnicastBlock2SupportsBlock2Option(t *testing.T) {
	inner := EmitSuccessfulResponse[Void](Get())
	d := Block2(inner, block.DefaultInfo)
	if !d.SupportsOption(message.Block2) {
		t.Error("Block2 descriptor should support the Block2 option it relies on")
	}
}

func TestMulticastMarker(t *testing.T) {
	d := Multicast[Void](Get())
	if !IsMulticast(d) {
		t.Error("IsMulticast should report true")
	}
}

func TestEmitSuccessfulResponseReturnsMessage(t *testing.T) {
	inner := Get()
	d := EmitSuccessfulResponse[Void](inner)
	msg := message.Message{Code: message.Content, Payload: []byte("ok")}
	status, err := d.Handler(fakeCtx{msg: msg}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() || string(status.Value.Payload) != "ok" {
		t.Errorf("got status %+v, want Done with payload 'ok'", status)
	}
}

func TestEmitMsgCodeReturnsCode(t *testing.T) {
	d := EmitMsgCode[Void](Get())
	status, err := d.Handler(fakeCtx{msg: message.Message{Code: message.BadRequest}}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() || status.Value != message.BadRequest {
		t.Errorf("got status %+v, want Done(BadRequest)", status)
	}
}

func TestIncludeSocketAddr(t *testing.T) {
	d := IncludeSocketAddr[Void](Get())
	status, err := d.Handler(fakeCtx{addr: fakeAddr("10.0.0.1:5683"), msg: message.Message{Code: message.Content}}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() {
		t.Fatalf("got status %+v, want Done", status)
	}
	if status.Value.Addr.String() != "10.0.0.1:5683" {
		t.Errorf("IncludeSocketAddr got addr %v, want 10.0.0.1:5683", status.Value.Addr)
	}
}

func TestBlock2SingleBlockFinishesImmediately(t *testing.T) {
	inner := EmitSuccessfulResponse[Void](Get())
	d := Block2(inner, block.DefaultInfo)

	var msg message.Message
	msg.Code = message.Content
	msg.SetBlock2(0, false, 6)
	msg.Payload = []byte("small payload")

	status, err := d.Handler(fakeCtx{msg: msg}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() {
		t.Fatalf("single-block transfer should finish immediately, got %+v", status)
	}
	if string(status.Value.Payload) != "small payload" {
		t.Errorf("got payload %q, want %q", status.Value.Payload, "small payload")
	}
}

func TestBlock2MultiBlockSendsNextThenFinishes(t *testing.T) {
	inner := EmitSuccessfulResponse[Void](Get())
	d := Block2(inner, block.DefaultInfo)

	szx := uint8(0) // 16-byte blocks
	var first message.Message
	first.Code = message.Content
	first.SetBlock2(0, true, szx)
	first.AddOption(message.ETag, []byte{0xaa})
	first.Payload = make([]byte, 16)

	status, err := d.Handler(fakeCtx{msg: first}, nil)
	if err != nil {
		t.Fatalf("first Handler call returned error %v", err)
	}
	if !status.IsSendNext() {
		t.Fatalf("first block should report SendNext, got %+v", status)
	}

	var second message.Message
	second.Code = message.Content
	second.SetBlock2(1, false, szx)
	second.AddOption(message.ETag, []byte{0xaa})
	second.Payload = []byte("tail-of-transfer")

	status, err = d.Handler(fakeCtx{msg: second}, nil)
	if err != nil {
		t.Fatalf("second Handler call returned error %v", err)
	}
	if !status.IsDone() {
		t.Fatalf("second block should finish the transfer, got %+v", status)
	}
	if len(status.Value.Payload) != 16+len("tail-of-transfer") {
		t.Errorf("reassembled payload length got %d, want %d", len(status.Value.Payload), 16+len("tail-of-transfer"))
	}
}

func TestBlock2ETagMismatchResets(t *testing.T) {
	inner := EmitSuccessfulResponse[Void](Get())
	d := Block2(inner, block.DefaultInfo)

	szx := uint8(0)
	var first message.Message
	first.Code = message.Content
	first.SetBlock2(0, true, szx)
	first.AddOption(message.ETag, []byte{0xaa})
	first.Payload = make([]byte, 16)
	if _, err := d.Handler(fakeCtx{msg: first}, nil); err != nil {
		t.Fatalf("first Handler call returned error %v", err)
	}

	var second message.Message
	second.Code = message.Content
	second.SetBlock2(1, false, szx)
	second.AddOption(message.ETag, []byte{0xbb})
	second.Payload = []byte("mismatched")

	_, err := d.Handler(fakeCtx{msg: second}, nil)
	if err != ErrResetByPeer {
		t.Errorf("ETag mismatch got err %v, want %v", err, ErrResetByPeer)
	}
}

func TestObserveRestartsOnServerError(t *testing.T) {
	d := Observe()
	status, err := d.Handler(fakeCtx{msg: message.Message{Code: message.InternalServerError}}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsSendNext() {
		t.Errorf("observe error response should report SendNext, got %+v", status)
	}
}

func TestObserveEmitsNotification(t *testing.T) {
	d := Observe()
	status, err := d.Handler(fakeCtx{msg: message.Message{Code: message.Content, Payload: []byte("21.0")}}, nil)
	if err != nil {
		t.Fatalf("Handler returned error %v", err)
	}
	if !status.IsDone() || string(status.Value.Payload) != "21.0" {
		t.Errorf("got status %+v, want Done with payload 21.0", status)
	}
}
