package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/transport"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

// DefaultTimeout is the wait for each reply.
const DefaultTimeout = 5 * time.Second

// Exchange outcomes.
const (
	StatusPass       = "pass"
	StatusUnexpected = "unexpected_response"
	StatusTimeout    = "timeout"
	StatusError      = "error"
)

// Options describes one connectivity check.
type Options struct {
	Host    string
	Port    int
	Src     chaos.Address
	Dst     chaos.Address
	Timeout time.Duration
	Data    []byte // empty skips the DAT and CLS exchanges
	RunID   string
}

// Step records one request/response exchange.
type Step struct {
	Sent           string `json:"sent"`
	Expected       string `json:"expected"`
	Received       string `json:"received,omitempty"`
	From           string `json:"from,omitempty"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
}

// Result is the JSON document written by -output.
type Result struct {
	Test      string    `json:"test"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Responder string    `json:"responder"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Status    string    `json:"status"`
	Steps     []Step    `json:"steps"`
}

// WriteJSON writes the result, creating the parent directory.
func (r Result) WriteJSON(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

type exchangeSpec struct {
	send *chaos.Packet
	want chaos.Type
}

// Ping runs the exchanges in order and stops at the first that does not pass.
func Ping(ctx context.Context, opts Options) Result {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	res := Result{
		Test:      "chaosnet_connectivity",
		RunID:     opts.RunID,
		Timestamp: time.Now().UTC(),
		Responder: net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port)),
		Source:    opts.Src.String(),
		Target:    opts.Dst.String(),
		Status:    StatusPass,
	}

	fail := func(step Step) Result {
		res.Steps = append(res.Steps, step)
		res.Status = step.Status
		return res
	}

	target, err := transport.ResolveUDP(opts.Host, opts.Port)
	if err != nil {
		return fail(Step{Sent: chaos.TypeRFC.String(), Expected: chaos.TypeOPN.String(), Status: StatusError, Message: err.Error()})
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fail(Step{Sent: chaos.TypeRFC.String(), Expected: chaos.TypeOPN.String(), Status: StatusError, Message: err.Error()})
	}
	defer conn.Close()

	exchanges := []exchangeSpec{
		{chaos.NewPacket(chaos.TypeRFC, opts.Src, opts.Dst, nil), chaos.TypeOPN},
	}
	if len(opts.Data) > 0 {
		exchanges = append(exchanges,
			exchangeSpec{chaos.NewPacket(chaos.TypeDAT, opts.Src, opts.Dst, opts.Data), chaos.TypeACK},
			exchangeSpec{chaos.NewPacket(chaos.TypeCLS, opts.Src, opts.Dst, nil), chaos.TypeCLS},
		)
	}

	for _, ex := range exchanges {
		step := exchange(ctx, conn, target, ex.send, ex.want, opts.Timeout)
		if step.Status != StatusPass {
			return fail(step)
		}
		res.Steps = append(res.Steps, step)
	}
	return res
}

// exchange sends one packet and waits for the first reply.
func exchange(ctx context.Context, conn *net.UDPConn, target *net.UDPAddr, send *chaos.Packet, want chaos.Type, timeout time.Duration) Step {
	step := Step{Sent: send.Type.String(), Expected: want.String()}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		step.Status, step.Message = StatusError, err.Error()
		return step
	}

	// Unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	start := time.Now()
	if _, err := conn.WriteToUDP(chaos.Pack(send), target); err != nil {
		step.Status, step.Message = StatusError, err.Error()
		return step
	}
	util.LogDebug("sent %s to %s", send.Type, target)

	buf := make([]byte, transport.MaxDatagramSize)
	n, from, err := conn.ReadFromUDP(buf)
	step.ResponseTimeMS = time.Since(start).Milliseconds()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			step.Status = StatusTimeout
			step.Message = fmt.Sprintf("no response within %s", timeout)
			if ctx.Err() != nil {
				step.Message = "interrupted"
			}
			return step
		}
		step.Status, step.Message = StatusError, err.Error()
		return step
	}
	step.From = from.String()

	reply, err := chaos.Unpack(buf[:n])
	if err != nil {
		step.Status, step.Message = StatusUnexpected, err.Error()
		return step
	}
	step.Received = reply.Type.String()
	if reply.Type != want {
		step.Status = StatusUnexpected
		step.Message = fmt.Sprintf("expected %s, got %s", want, reply.Type)
		return step
	}
	step.Status = StatusPass
	return step
}
