// Package bridge terminates a minimal subset of Chaosnet for one PDP-10 host.
// Each datagram is handled on its own: RFC is answered with OPN, DAT with
// ACK, CLS is echoed, and packets for other hosts go to the ARPANET gateway.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/transport"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

// Name identifies the bridge in logs and counter snapshots.
const Name = "chaosnet-bridge"

// counters are written only by the loop goroutine.
//
// opnSent counts OPN packets the bridge synthesizes in answer to RFC; the
// first shim tracked this as "opn_received".
type counters struct {
	rfcReceived   atomic.Uint64
	opnSent       atomic.Uint64
	datReceived   atomic.Uint64
	clsReceived   atomic.Uint64
	packetsSent   atomic.Uint64
	bytesReceived atomic.Uint64
	bytesSent     atomic.Uint64
	parseErrors   atomic.Uint64
	unhandledType atomic.Uint64
	foreignDst    atomic.Uint64
	forwarded     atomic.Uint64
}

// Bridge owns the Chaosnet listen socket for its lifetime.
type Bridge struct {
	cfg      Config
	ep       *transport.Endpoint
	gateway  *net.UDPAddr // nil unless forwarding is enabled
	counters counters
}

// New binds the listen socket and, when forwarding is enabled, resolves the gateway.
func New(ctx context.Context, cfg Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ep, err := transport.Listen(ctx, "chaosnet", cfg.listen())
	if err != nil {
		return nil, err
	}

	b := &Bridge{cfg: cfg, ep: ep}
	if cfg.Forward {
		port := cfg.GatewayPort
		if port == 0 {
			port = ep.LocalAddr().Port
		}
		b.gateway, err = transport.ResolveUDP(cfg.ArpanetGateway, port)
		if err != nil {
			ep.Close()
			return nil, err
		}
	}

	util.LogInfo("Chaosnet bridge listening on %s", ep.LocalAddr())
	util.LogInfo("PDP-10 target: %s", cfg.PDP10)
	if b.gateway != nil {
		util.LogInfo("ARPANET gateway: %s (forwarding)", b.gateway)
	} else {
		util.LogInfo("ARPANET gateway: %s (log only)", cfg.ArpanetGateway)
	}
	return b, nil
}

// LocalAddr returns the bound listen address.
func (b *Bridge) LocalAddr() *net.UDPAddr { return b.ep.LocalAddr() }

// Counters returns a snapshot of the bridge counters. Safe from any goroutine.
func (b *Bridge) Counters() util.Snapshot {
	return util.Snapshot{
		{Name: "rfc_received", Value: b.counters.rfcReceived.Load()},
		{Name: "opn_sent", Value: b.counters.opnSent.Load()},
		{Name: "dat_received", Value: b.counters.datReceived.Load()},
		{Name: "cls_received", Value: b.counters.clsReceived.Load()},
		{Name: "packets_sent", Value: b.counters.packetsSent.Load()},
		{Name: "bytes_received", Value: b.counters.bytesReceived.Load()},
		{Name: "bytes_sent", Value: b.counters.bytesSent.Load()},
		{Name: "parse_errors", Value: b.counters.parseErrors.Load()},
		{Name: "unhandled_type", Value: b.counters.unhandledType.Load()},
		{Name: "foreign_dst", Value: b.counters.foreignDst.Load()},
		{Name: "forwarded", Value: b.counters.forwarded.Load()},
	}
}

// Run serves datagrams until ctx is cancelled. Shutdown is noticed within
// ReceiveTimeout; the socket is closed before Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.ep.Close()

	util.StartCounterReporter(ctx, b.cfg.StatsInterval, b)
	util.LogDebug("entering main loop")

	conn := b.ep.Conn()
	buf := make([]byte, transport.MaxDatagramSize)

	for ctx.Err() == nil {
		if err := conn.SetReadDeadline(time.Now().Add(ReceiveTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			util.LogWarning("receive: %v", err)
			continue
		}

		b.serve(buf[:n], addr)
	}

	util.LogInfo("main loop ended")
	return nil
}

// serve handles one datagram and performs any reply or forward it yields.
func (b *Bridge) serve(data []byte, from *net.UDPAddr) {
	reply, forward := b.Handle(data)

	if reply != nil {
		sent, err := b.ep.SendTo(reply, from)
		if err != nil {
			util.LogWarning("send to %s failed: %v", from, err)
		} else {
			b.counters.packetsSent.Add(1)
			b.counters.bytesSent.Add(uint64(sent))
		}
	}

	if forward && b.gateway != nil {
		if _, err := b.ep.SendTo(data, b.gateway); err != nil {
			util.LogWarning("forward to %s failed: %v", b.gateway, err)
		} else {
			b.counters.forwarded.Add(1)
		}
	}
}

// Handle decodes one datagram and returns the reply to send back to its
// sender, if any. forward reports that the packet is addressed to another
// host. Handle does not touch the socket.
func (b *Bridge) Handle(data []byte) (reply []byte, forward bool) {
	b.counters.bytesReceived.Add(uint64(len(data)))

	pkt, err := chaos.Unpack(data)
	if err != nil {
		b.counters.parseErrors.Add(1)
		util.LogDebug("drop datagram: %v", err)
		return nil, false
	}

	util.LogDebug("received: type=%s src=(%s) dst=(%s) len=%d", pkt.Type, pkt.Src, pkt.Dst, pkt.Length)

	if pkt.Dst != b.cfg.PDP10 {
		b.counters.foreignDst.Add(1)
		util.LogDebug("forwarding to ARPANET: %s", pkt.Dst)
		return nil, true
	}

	switch pkt.Type {
	case chaos.TypeRFC:
		b.counters.rfcReceived.Add(1)
		util.LogInfo("RFC from %s, opening connection", pkt.Src)
		b.counters.opnSent.Add(1)
		return chaos.Pack(chaos.Reply(pkt, chaos.TypeOPN, b.cfg.PDP10)), false

	case chaos.TypeDAT:
		b.counters.datReceived.Add(1)
		util.LogInfo("DAT from %s, %d bytes", pkt.Src, len(pkt.Data))
		return chaos.Pack(chaos.Reply(pkt, chaos.TypeACK, b.cfg.PDP10)), false

	case chaos.TypeCLS:
		b.counters.clsReceived.Add(1)
		util.LogInfo("CLS from %s, closing connection", pkt.Src)
		echo := make([]byte, len(data))
		copy(echo, data)
		return echo, false

	default:
		b.counters.unhandledType.Add(1)
		util.LogDebug("unhandled packet type: %s", pkt.Type)
		return nil, false
	}
}
