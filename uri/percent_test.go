package uri

import "testing"

func TestEscape(t *testing.T) {
	cases := []struct {
		in  string
		ctx EscapeContext
		out string
	}{
		{"hello", Full, "hello"},
		{"a b", Full, "a%20b"},
		{"a/b", Segment, "a%2Fb"},
		{"a/b", Query, "a/b"},
		{"a b", Query, "a+b"},
		{"a+b", Query, "a%2Bb"},
		{"x?y#z", Fragment, "x?y#z"},
		{"[::1]", Authority, "[::1]"},
	}
	for _, tc := range cases {
		got := Escape(tc.in, tc.ctx)
		if got != tc.out {
			t.Errorf("Escape(%q, %v) = %q, want %q", tc.in, tc.ctx, got, tc.out)
		}
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		in   string
		opts []UnescapeOption
		out  string
	}{
		{"hello", nil, "hello"},
		{"a%20b", nil, "a b"},
		{"a%2Fb", nil, "a/b"},
		{"a%2Fb", []UnescapeOption{KeepEncodedSlash()}, "a%2Fb"},
		{"100%", nil, "100�"},
		{"%zz", nil, "�zz"},
	}
	for _, tc := range cases {
		got := Unescape(tc.in, tc.opts...)
		if got != tc.out {
			t.Errorf("Unescape(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestTryUnescape(t *testing.T) {
	if got, _, ok := TryUnescape("a%20b"); !ok || got != "a b" {
		t.Errorf("TryUnescape(%q) = %q, %v, want \"a b\", true", "a%20b", got, ok)
	}
	if _, off, ok := TryUnescape("a%zzb"); ok || off != 1 {
		t.Errorf("TryUnescape(%q) = _, %d, %v, want offset 1, false", "a%zzb", off, ok)
	}
	if _, _, ok := TryUnescape("a\x01b"); ok {
		t.Errorf("TryUnescape with raw control should fail")
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	cases := []string{"hello world", "/a/b/c", "100%", "café", "a+b c"}
	for _, s := range cases {
		escaped := Escape(s, Full)
		got := Unescape(escaped)
		if got != s {
			t.Errorf("round trip of %q via Full context: got %q", s, got)
		}
	}
}
