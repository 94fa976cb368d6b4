// Package shim implements the HI1 host-interface relay between a PDP-10 and
// an IMP2 simulator. Payloads from the PDP-10 are wrapped into H316
// envelopes for the IMP; envelopes from the IMP are unwrapped for the
// PDP-10. The relay keeps no per-connection state.
package shim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/h316"
	"github.com/brfid/brfid.github.io-sub000/internal/transport"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

// Name identifies the shim in logs and counter snapshots.
const Name = "hi1-shim"

// counters are written only by the loop goroutine; atomics let other
// goroutines take snapshots.
type counters struct {
	pdp10Ingress atomic.Uint64
	impIngress   atomic.Uint64
	wrapped      atomic.Uint64
	unwrapped    atomic.Uint64
	parseErrors  atomic.Uint64
}

// Shim owns the two HI1 sockets for its lifetime.
type Shim struct {
	cfg Config

	pdp10 *transport.Endpoint // pdp10-side
	imp   *transport.Endpoint // imp-side

	pdp10Target *net.UDPAddr
	impTarget   *net.UDPAddr

	seq      uint32 // next H316 sequence; loop-owned, wraps at 2^32
	counters counters
}

// New resolves the targets and binds both listen sockets.
func New(ctx context.Context, cfg Config) (*Shim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.StatsInterval == 0 {
		cfg.StatsInterval = DefaultStatsInterval
	}

	pdp10Target, err := transport.ResolveUDP(cfg.PDP10Host, cfg.PDP10TargetPort)
	if err != nil {
		return nil, err
	}
	impTarget, err := transport.ResolveUDP(cfg.IMPHost, cfg.IMPTargetPort)
	if err != nil {
		return nil, err
	}

	pdp10, err := transport.Listen(ctx, "pdp10-side", cfg.pdp10Listen())
	if err != nil {
		return nil, err
	}
	imp, err := transport.Listen(ctx, "imp-side", cfg.impListen())
	if err != nil {
		pdp10.Close()
		return nil, err
	}

	util.LogInfo("%s listening on %s", pdp10.Name(), pdp10.LocalAddr())
	util.LogInfo("%s listening on %s", imp.Name(), imp.LocalAddr())

	return &Shim{
		cfg:         cfg,
		pdp10:       pdp10,
		imp:         imp,
		pdp10Target: pdp10Target,
		impTarget:   impTarget,
	}, nil
}

// PDP10Addr returns the bound pdp10-side address.
func (s *Shim) PDP10Addr() *net.UDPAddr { return s.pdp10.LocalAddr() }

// IMPAddr returns the bound imp-side address.
func (s *Shim) IMPAddr() *net.UDPAddr { return s.imp.LocalAddr() }

// Counters returns a snapshot of the relay counters. Safe from any goroutine.
func (s *Shim) Counters() util.Snapshot {
	return util.Snapshot{
		{Name: "pdp10_ingress", Value: s.counters.pdp10Ingress.Load()},
		{Name: "imp_ingress", Value: s.counters.impIngress.Load()},
		{Name: "wrapped", Value: s.counters.wrapped.Load()},
		{Name: "unwrapped", Value: s.counters.unwrapped.Load()},
		{Name: "parse_errors", Value: s.counters.parseErrors.Load()},
	}
}

// Run relays datagrams until ctx is cancelled, then closes both sockets.
// It returns an error only if a socket fails underneath the loop.
func (s *Shim) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.close()

	pdp10Queue := s.pdp10.Ingress(ctx, s.recvError(s.pdp10))
	impQueue := s.imp.Ingress(ctx, s.recvError(s.imp))

	var tick <-chan time.Time
	if s.cfg.StatsInterval > 0 {
		ticker := time.NewTicker(s.cfg.StatsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	util.LogInfo("Host-IMP Interface active: pdp10 %s -> imp %s, imp %s -> pdp10 %s",
		s.PDP10Addr(), s.impTarget, s.IMPAddr(), s.pdp10Target)

	for {
		select {
		case d, ok := <-pdp10Queue:
			if !ok {
				return s.queueClosed(ctx, s.pdp10)
			}
			s.fromPDP10(d)

		case d, ok := <-impQueue:
			if !ok {
				return s.queueClosed(ctx, s.imp)
			}
			s.fromIMP(d)

		case <-tick:
			util.LogInfo("counters %s", s.Counters())

		case <-ctx.Done():
			return nil
		}
	}
}

// fromPDP10 wraps a raw PDP-10 payload and forwards it to IMP2. The source
// address is not used for routing.
func (s *Shim) fromPDP10(d transport.Datagram) {
	s.counters.pdp10Ingress.Add(1)
	envelope := h316.Wrap(d.Data, s.seq)
	s.seq++
	s.counters.wrapped.Add(1)
	s.send(s.imp, envelope, s.impTarget)
}

// fromIMP unwraps an IMP2 envelope and forwards the payload to the PDP-10.
// Malformed envelopes are dropped.
func (s *Shim) fromIMP(d transport.Datagram) {
	s.counters.impIngress.Add(1)
	payload, err := h316.Unwrap(d.Data)
	if err != nil {
		s.counters.parseErrors.Add(1)
		util.LogDebug("drop IMP packet from %s: %v", d.Addr, err)
		return
	}
	s.counters.unwrapped.Add(1)
	s.send(s.pdp10, payload, s.pdp10Target)
}

// send writes through the endpoint facing the destination, so replies from
// the PDP-10 arrive on the pdp10-side port and vice versa.
func (s *Shim) send(ep *transport.Endpoint, data []byte, to *net.UDPAddr) {
	if _, err := ep.SendTo(data, to); err != nil {
		util.LogWarning("%s send to %s failed: %v", ep.Name(), to, err)
	}
}

func (s *Shim) recvError(ep *transport.Endpoint) func(error) {
	return func(err error) {
		util.LogWarning("%s UDP error: %v", ep.Name(), err)
	}
}

func (s *Shim) queueClosed(ctx context.Context, ep *transport.Endpoint) error {
	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("%s: %w", ep.Name(), net.ErrClosed)
}

func (s *Shim) close() {
	err := errors.Join(s.pdp10.Close(), s.imp.Close())
	if err != nil && !errors.Is(err, net.ErrClosed) {
		util.LogWarning("close sockets: %v", err)
	}
	util.LogInfo("counters %s", s.Counters())
}
