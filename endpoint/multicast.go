package endpoint

import (
	"net"

	"github.com/GiterLab/coap-core/transport"
)

// allCoapDevicesHostname is the symbolic multicast hostname spec §4.7
// recognizes, grounded on async-coap's ALL_COAP_DEVICES_HOSTNAME.
const allCoapDevicesHostname = "all-coap-devices.local"

// multicast IPv4 224.0.1.187 and IPv6 FF02::FD / FF03::FD, per
// spec §6.
var (
	multicastIPv4     = net.ParseIP("224.0.1.187")
	multicastIPv6Link = net.ParseIP("ff02::fd")
	multicastIPv6Site = net.ParseIP("ff03::fd")
)

// resolveHost resolves host to one or more peer addresses at port,
// recognizing allCoapDevicesHostname as the three canonical CoAP
// multicast addresses and otherwise delegating to the socket's
// collaborator lookup.
func (ep *Endpoint) resolveHost(host string, port int) ([]net.Addr, error) {
	if host == allCoapDevicesHostname {
		return []net.Addr{
			&net.UDPAddr{IP: multicastIPv6Link, Port: port},
			&net.UDPAddr{IP: multicastIPv6Site, Port: port},
			&net.UDPAddr{IP: multicastIPv4, Port: port},
		}, nil
	}
	return ep.sock.LookupHost(host, port)
}

// isMulticastAddr reports whether dest (the local address a received
// datagram was addressed to) names a multicast group.
func isMulticastAddr(dest net.Addr) bool {
	if dest == nil {
		return false
	}
	if udp, ok := dest.(*net.UDPAddr); ok {
		return udp.IP.IsMulticast()
	}
	return dest.String() == string(transport.LoopbackMulticast)
}
