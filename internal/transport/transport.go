// Package transport wraps the IPv4 UDP sockets the relays own. An Endpoint
// binds with SO_REUSEADDR and can feed received datagrams, in receive order,
// into a channel drained by a single owning loop.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
)

// MaxDatagramSize is the receive buffer size; large enough for any UDP payload.
const MaxDatagramSize = 65535

// Datagram is one received UDP payload and its sender.
type Datagram struct {
	Data []byte
	Addr *net.UDPAddr
}

// Endpoint is a bound UDP socket owned by exactly one component.
type Endpoint struct {
	name string
	conn *net.UDPConn
}

// Listen binds a UDP socket on addr ("host:port"). name is used in log lines.
func Listen(ctx context.Context, name, addr string) (*Endpoint, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to bind %s: %w", name, addr, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, fmt.Errorf("%s: unexpected socket type %T", name, pc)
	}
	return &Endpoint{name: name, conn: conn}, nil
}

// Name returns the label given at Listen.
func (e *Endpoint) Name() string {
	return e.name
}

// LocalAddr returns the bound address.
func (e *Endpoint) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// Conn exposes the socket for callers that read synchronously.
func (e *Endpoint) Conn() *net.UDPConn {
	return e.conn
}

// SendTo writes one datagram to addr.
func (e *Endpoint) SendTo(data []byte, addr *net.UDPAddr) (int, error) {
	return e.conn.WriteToUDP(data, addr)
}

// Close releases the socket. Any Ingress goroutine exits and closes its channel.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}

// Ingress starts the reader goroutine for this endpoint and returns its
// queue. The channel is unbuffered: the kernel socket buffer is the only
// queue, so a slow consumer loses datagrams the way a slow peer would.
// The channel is closed when the socket is closed or ctx is cancelled.
func (e *Endpoint) Ingress(ctx context.Context, onError func(error)) <-chan Datagram {
	ch := make(chan Datagram)

	go func() {
		defer close(ch)

		buf := make([]byte, MaxDatagramSize)
		for {
			n, addr, err := e.conn.ReadFromUDP(buf)
			if err != nil {
				if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
					return
				}
				if onError != nil {
					onError(err)
				}
				continue
			}

			data := make([]byte, n)
			copy(data, buf[:n])

			select {
			case ch <- Datagram{Data: data, Addr: addr}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// ResolveUDP resolves an IPv4 host and port into a send target.
func ResolveUDP(host string, port int) (*net.UDPAddr, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s:%d: %w", host, port, err)
	}
	return addr, nil
}
