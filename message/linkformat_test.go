package message

import "testing"

func TestParseLinkFormatSingleLink(t *testing.T) {
	links, err := ParseLinkFormat(`</sensors>;ct=40`)
	if err != nil {
		t.Fatalf("ParseLinkFormat returned error %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	if links[0].Target != "/sensors" {
		t.Errorf("target got %q, want /sensors", links[0].Target)
	}
	if v, ok := links[0].Attr("ct"); !ok || v != "40" {
		t.Errorf("ct attr got (%q,%v), want (40,true)", v, ok)
	}
}

func TestParseLinkFormatMultipleLinks(t *testing.T) {
	payload := "</sensors/temp>;if=\"sensor\",\n</sensors/light>;if=\"sensor\""
	links, err := ParseLinkFormat(payload)
	if err != nil {
		t.Fatalf("ParseLinkFormat returned error %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0].Target != "/sensors/temp" || links[1].Target != "/sensors/light" {
		t.Errorf("targets got %q, %q", links[0].Target, links[1].Target)
	}
	for _, l := range links {
		if v, ok := l.Attr("if"); !ok || v != "sensor" {
			t.Errorf("%s: if attr got (%q,%v), want (sensor,true)", l.Target, v, ok)
		}
	}
}

func TestParseLinkFormatAbsoluteTargetAndMultipleAttrs(t *testing.T) {
	payload := `<http://www.example.com/sensors/t123>;anchor="/sensors/temp";rel="describedby"`
	links, err := ParseLinkFormat(payload)
	if err != nil {
		t.Fatalf("ParseLinkFormat returned error %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	l := links[0]
	if l.Target != "http://www.example.com/sensors/t123" {
		t.Errorf("target got %q", l.Target)
	}
	if v, ok := l.Attr("anchor"); !ok || v != "/sensors/temp" {
		t.Errorf("anchor attr got (%q,%v)", v, ok)
	}
	if v, ok := l.Attr("rel"); !ok || v != "describedby" {
		t.Errorf("rel attr got (%q,%v)", v, ok)
	}
}

func TestParseLinkFormatRejectsMalformedInput(t *testing.T) {
	if _, err := ParseLinkFormat(`not-a-link-at-all`); err != ErrMalformedLinkFormat {
		t.Errorf("got err %v, want ErrMalformedLinkFormat", err)
	}
	if _, err := ParseLinkFormat(`</sensors`); err != ErrMalformedLinkFormat {
		t.Errorf("unterminated target: got err %v, want ErrMalformedLinkFormat", err)
	}
}
