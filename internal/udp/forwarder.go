// Package udp forwards accepted NMEA sentences to a UDP listener such as a
// chart plotter or navigation app.
package udp

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"
)

type udpConn interface {
	Write(p []byte) (int, error)
	Close() error
}

type resolveFunc func(network, address string) (*net.UDPAddr, error)

type dialFunc func(network string, laddr, raddr *net.UDPAddr) (udpConn, error)

type Forwarder struct {
	dest string
	conn udpConn
	sent atomic.Uint64
}

func NewForwarder(dest string) (*Forwarder, error) {
	return newForwarder(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		// DialUDP selects a suitable local address automatically.
		return net.DialUDP(network, laddr, raddr)
	})
}

func newForwarder(dest string, resolve resolveFunc, dial dialFunc) (*Forwarder, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &Forwarder{dest: dest, conn: conn}, nil
}

// Forward sends one sentence as a single datagram terminated by CRLF, the
// framing NMEA listeners expect.
func (f *Forwarder) Forward(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil
	}
	if _, err := f.conn.Write([]byte(line + "\r\n")); err != nil {
		return err
	}
	f.sent.Add(1)
	return nil
}

// Sent counts datagrams written successfully.
func (f *Forwarder) Sent() uint64 { return f.sent.Load() }

func (f *Forwarder) Dest() string { return f.dest }

func (f *Forwarder) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
