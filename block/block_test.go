package block

import "testing"

func TestDefaultInfo(t *testing.T) {
	b := DefaultInfo
	if b.More() {
		t.Error("DefaultInfo.More() got true want false")
	}
	if got, want := b.Szx(), uint8(6); got != want {
		t.Errorf("DefaultInfo.Szx() got %d want %d", got, want)
	}
	if got, want := b.Num(), uint32(0); got != want {
		t.Errorf("DefaultInfo.Num() got %d want %d", got, want)
	}
	if got, want := b.Len(), 1024; got != want {
		t.Errorf("DefaultInfo.Len() got %d want %d", got, want)
	}
	if got, want := b.Offset(), 0; got != want {
		t.Errorf("DefaultInfo.Offset() got %d want %d", got, want)
	}
	if b.IsMaxBlock() || b.IsInvalid() {
		t.Error("DefaultInfo should be neither max nor invalid")
	}
}

func TestNext(t *testing.T) {
	b, ok := DefaultInfo.Next()
	if !ok {
		t.Fatal("DefaultInfo.Next() returned false")
	}
	if got, want := b.Num(), uint32(1); got != want {
		t.Errorf("Next().Num() got %d want %d", got, want)
	}
	if got, want := b.Offset(), 1024; got != want {
		t.Errorf("Next().Offset() got %d want %d", got, want)
	}
	if b.More() != DefaultInfo.More() {
		t.Errorf("Next() should preserve the more flag")
	}
}

func TestSmaller(t *testing.T) {
	b, ok := DefaultInfo.Smaller()
	if !ok {
		t.Fatal("DefaultInfo.Smaller() returned false")
	}
	if got, want := b.Szx(), uint8(5); got != want {
		t.Errorf("Smaller().Szx() got %d want %d", got, want)
	}
	if got, want := b.Len(), 512; got != want {
		t.Errorf("Smaller().Len() got %d want %d", got, want)
	}
	if got, want := b.Offset(), 0; got != want {
		t.Errorf("Smaller().Offset() got %d want %d", got, want)
	}
}

func TestNextThenSmallerPreservesOffset(t *testing.T) {
	n, _ := DefaultInfo.Next()
	s, ok := n.Smaller()
	if !ok {
		t.Fatal("Smaller() after Next() returned false")
	}
	if got, want := s.Offset(), n.Offset(); got != want {
		t.Errorf("Smaller().Offset() got %d want %d (n.Offset())", got, want)
	}
	if got, want := s.Len(), 512; got != want {
		t.Errorf("Smaller().Len() got %d want %d", got, want)
	}
}

func TestWithAndWithoutMore(t *testing.T) {
	b := DefaultInfo.WithoutMore()
	if b.More() {
		t.Error("WithoutMore().More() got true want false")
	}
	b = b.WithMore()
	if !b.More() {
		t.Error("WithMore().More() got false want true")
	}
	if got, want := b.Num(), uint32(0); got != want {
		t.Errorf("Num() unchanged by More() flips, got %d want %d", got, want)
	}
}

func TestNearMaxBlockSequence(t *testing.T) {
	b, ok := New(NumMax-1, true, 6)
	if !ok {
		t.Fatal("New(NumMax-1, ...) returned false")
	}
	if b.IsMaxBlock() {
		t.Error("NumMax-1 block reported IsMaxBlock")
	}

	b, ok = b.Next()
	if !ok {
		t.Fatal("Next() at NumMax-1 returned false")
	}
	if got, want := b.Num(), uint32(NumMax); got != want {
		t.Errorf("Next().Num() got %d want %d", got, want)
	}
	if !b.IsMaxBlock() {
		t.Error("NumMax block should report IsMaxBlock")
	}
	if _, ok := b.Next(); ok {
		t.Error("Next() past NumMax should return false")
	}
}

func TestSmallerAtMinimumSzxFails(t *testing.T) {
	if _, ok := Info(0).Smaller(); ok {
		t.Error("Smaller() at szx=0 should return false")
	}
}

func TestValidity(t *testing.T) {
	if Info(0).IsInvalid() {
		t.Error("Info(0) should be valid")
	}
	reserved, ok := New(0, false, szxReserved)
	if ok {
		t.Fatal("New with reserved szx should fail")
	}
	_ = reserved
	if !Info(szxReserved).IsInvalid() {
		t.Error("Info(szxReserved) should be invalid")
	}
}

func TestReconstructorSingleBlock(t *testing.T) {
	r := NewReconstructor(DefaultInfo)
	done, err := r.Feed(DefaultInfo.WithoutMore(), []byte("hello"))
	if err != nil {
		t.Fatalf("Feed returned error %v", err)
	}
	if !done {
		t.Fatal("Feed with more=false should report done")
	}
	if got, want := string(r.Bytes()), "hello"; got != want {
		t.Errorf("Bytes() got %q want %q", got, want)
	}
}

func TestReconstructorMultipleBlocks(t *testing.T) {
	szx := uint8(0) // 16-byte blocks
	b0, _ := New(0, true, szx)
	b1, _ := New(1, false, szx)

	r := NewReconstructor(b0)
	done, err := r.Feed(b0, make([]byte, 16))
	if err != nil || done {
		t.Fatalf("first Feed got (done=%v, err=%v), want (false, nil)", done, err)
	}
	if got, want := r.NextBlock().Num(), uint32(1); got != want {
		t.Errorf("NextBlock().Num() got %d want %d", got, want)
	}

	done, err = r.Feed(b1, []byte("tail-of-transfer"))
	if err != nil {
		t.Fatalf("second Feed returned error %v", err)
	}
	if !done {
		t.Error("second Feed with more=false should report done")
	}
	if got, want := len(r.Bytes()), 32; got != want {
		t.Errorf("total reassembled length got %d want %d", got, want)
	}
}

func TestReconstructorIgnoresDuplicateBlock(t *testing.T) {
	szx := uint8(0)
	b0, _ := New(0, true, szx)
	r := NewReconstructor(b0)
	r.Feed(b0, make([]byte, 16))

	done, err := r.Feed(b0, make([]byte, 16))
	if err != nil {
		t.Fatalf("duplicate Feed returned error %v", err)
	}
	if done {
		t.Error("duplicate Feed should not report done")
	}
	if got, want := len(r.Bytes()), 16; got != want {
		t.Errorf("duplicate Feed should not grow output, got len %d want %d", got, want)
	}
}

func TestReconstructorRejectsSkippedBlock(t *testing.T) {
	szx := uint8(0)
	b2, _ := New(2, false, szx)
	r := NewReconstructor(Info(0))

	_, err := r.Feed(b2, make([]byte, 16))
	if err != ErrUnexpectedBlock {
		t.Errorf("Feed with skipped block got err %v want %v", err, ErrUnexpectedBlock)
	}
}

func TestReconstructorRejectsPayloadLengthMismatch(t *testing.T) {
	szx := uint8(0)
	b0, _ := New(0, true, szx)
	r := NewReconstructor(b0)

	_, err := r.Feed(b0, make([]byte, 8))
	if err != ErrPayloadLength {
		t.Errorf("Feed with undersized payload got err %v want %v", err, ErrPayloadLength)
	}
}
