package endpoint

import (
	"testing"

	"github.com/GiterLab/coap-core/transport"
	"github.com/GiterLab/coap-core/uri"
)

func TestCloneUsingRelRefResolvesAgainstBasePath(t *testing.T) {
	sock := transport.NewLoopback()
	ep := New(sock, nil)
	remote := NewRemote(ep, transport.LoopbackUnicast, "example.com", uri.MustParseRelRef("/api/v1/"))

	clone, err := remote.CloneUsingRelRef(uri.MustParseRelRef("sensors/42"))
	if err != nil {
		t.Fatalf("CloneUsingRelRef returned error %v", err)
	}
	if got := clone.basePath.String(); got != "/api/v1/sensors/42" {
		t.Errorf("got base path %q, want /api/v1/sensors/42", got)
	}
}

func TestCloneUsingRelRefAbsolutePathReplaces(t *testing.T) {
	sock := transport.NewLoopback()
	ep := New(sock, nil)
	remote := NewRemote(ep, transport.LoopbackUnicast, "example.com", uri.MustParseRelRef("/api/v1/sensors/"))

	clone, err := remote.CloneUsingRelRef(uri.MustParseRelRef("/other"))
	if err != nil {
		t.Fatalf("CloneUsingRelRef returned error %v", err)
	}
	if got := clone.basePath.String(); got != "/other" {
		t.Errorf("got base path %q, want /other", got)
	}
}

func TestRemoveHostOptionSuppressesHost(t *testing.T) {
	sock := transport.NewLoopback()
	ep := New(sock, nil)
	remote := NewRemote(ep, transport.LoopbackUnicast, "example.com", uri.MustParseRelRef("/"))
	suppressed := remote.RemoveHostOption()
	if !suppressed.suppressHost {
		t.Error("RemoveHostOption should set suppressHost")
	}
	if remote.suppressHost {
		t.Error("RemoveHostOption should not mutate the original Remote")
	}
}
