package transport

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// UDP is the real Socket implementation, grounded on the teacher's
// server.go (net.ListenUDP / ReadFromUDP / WriteToUDP): a single
// *net.UDPConn used for both directions, serialized the way spec §5
// requires ("access must be serialized per direction") by relying on
// net.UDPConn's own internally-synchronized read/write paths.
type UDP struct {
	conn *net.UDPConn
}

// ListenUDP binds addr ("host:port", "" for any interface) and returns
// a Socket ready for Endpoint.
func ListenUDP(network, addr string) (*UDP, error) {
	uaddr, err := net.ResolveUDPAddr(network, addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, uaddr)
	if err != nil {
		return nil, err
	}
	return &UDP{conn: conn}, nil
}

func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

func (u *UDP) LookupHost(host string, port int) ([]net.Addr, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	out := make([]net.Addr, 0, len(ips))
	for _, ip := range ips {
		out = append(out, &net.UDPAddr{IP: ip, Port: port})
	}
	return out, nil
}

func (u *UDP) SendTo(peer net.Addr, data []byte) error {
	udpPeer, ok := peer.(*net.UDPAddr)
	if !ok {
		return fmt.Errorf("transport: peer %v is not a UDP address", peer)
	}
	_, err := u.conn.WriteToUDP(data, udpPeer)
	return err
}

func (u *UDP) RecvFrom(buf []byte) (int, net.Addr, net.Addr, error) {
	n, addr, err := u.conn.ReadFromUDP(buf)
	return n, addr, nil, err
}

// groupJoiner is the common shape of golang.org/x/net/ipv4.PacketConn
// and golang.org/x/net/ipv6.PacketConn used here, so JoinMulticast
// doesn't need to duplicate logic per address family.
type groupJoiner interface {
	JoinGroup(ifi *net.Interface, group net.Addr) error
	LeaveGroup(ifi *net.Interface, group net.Addr) error
}

// groupConn wraps the socket in the address-family-appropriate
// packet-conn from golang.org/x/net, which is where Go's standard
// library delegates multicast group membership (net.UDPConn has no
// join/leave of its own). A nil *net.Interface lets the kernel pick
// the outgoing interface.
func (u *UDP) groupConn(group net.IP) groupJoiner {
	if group.To4() != nil {
		return ipv4.NewPacketConn(u.conn)
	}
	return ipv6.NewPacketConn(u.conn)
}

func (u *UDP) JoinMulticast(group net.IP) error {
	return u.groupConn(group).JoinGroup(nil, &net.UDPAddr{IP: group})
}

func (u *UDP) LeaveMulticast(group net.IP) error {
	return u.groupConn(group).LeaveGroup(nil, &net.UDPAddr{IP: group})
}

func (u *UDP) Close() error { return u.conn.Close() }
