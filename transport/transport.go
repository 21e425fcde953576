// Package transport defines the datagram-socket collaborator an
// endpoint sends and receives through, plus two implementations: a
// real UDP socket, grounded on the teacher's server.go
// (net.ListenUDP/ReadFromUDP/WriteToUDP), and an in-process loopback
// used for tests, grounded on
// async-coap/src/datagram/loopback_socket.rs.
package transport

import "net"

// Socket is the collaborator interface spec §6 calls out: local
// address, blocking hostname lookup, non-blocking-in-spirit send/recv,
// and multicast group membership. An endpoint never constructs a UDP
// socket directly — it is handed one of these, so tests can substitute
// Loopback.
type Socket interface {
	LocalAddr() net.Addr
	LookupHost(host string, port int) ([]net.Addr, error)
	SendTo(peer net.Addr, data []byte) error
	// RecvFrom blocks until a datagram arrives, returning its payload,
	// source address, and — when the platform reports it — the local
	// address the datagram was addressed to (so the caller can detect
	// multicast reception per spec §4.7).
	RecvFrom(buf []byte) (n int, source net.Addr, dest net.Addr, err error)
	JoinMulticast(group net.IP) error
	LeaveMulticast(group net.IP) error
	Close() error
}
