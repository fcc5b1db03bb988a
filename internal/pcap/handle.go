/*
 * NETCAP - Traffic Analysis Framework
 * Copyright (c) 2017-2020 Philipp Mieden <dreadl0ck [at] protonmail [dot] ch>
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package pcap wraps libpcap (via gopacket/pcap) behind an async-feeling
// capture handle. libpcap's selectable file descriptor is not reachable
// through this binding, so Next waits for readability by letting each
// dispatch block for at most the handle timeout and re-checking the
// context between slices; a wakeup that delivers nothing is still
// surfaced as its own error kind rather than swallowed.
package pcap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/google/gopacket/pcap"
)

// Mode selects libpcap promiscuous-mode behavior.
type Mode int

const (
	NonPromisc Mode = iota
	Promisc
)

type state int

const (
	stateIdle state = iota
	stateWaitingForFd
)

// Packet is a timestamped, already-decoded link-layer frame.
type Packet struct {
	Timestamp time.Time
	Frame     layers.Frame
}

// CaptureHandle is an open libpcap capture session.
type CaptureHandle struct {
	mu      sync.Mutex
	handle  *pcap.Handle
	state   state
	mode    Mode
	snaplen int32
	timeout time.Duration
}

// OpenLive opens dev in the given mode. Immediate mode makes the underlying
// dispatch hand over each packet as soon as libpcap queues it instead of
// batching a kernel buffer, which is what keeps the per-slice timeout an
// upper bound on wakeup latency rather than a delivery delay.
func OpenLive(dev string, mode Mode, timeout time.Duration, snaplen int32) (*CaptureHandle, error) {
	inactive, err := pcap.NewInactiveHandle(dev)
	if err != nil {
		return nil, err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(int(snaplen)); err != nil {
		return nil, err
	}
	if err := inactive.SetPromisc(mode == Promisc); err != nil {
		return nil, err
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return nil, err
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, err
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, err
	}

	return &CaptureHandle{
		handle:  handle,
		state:   stateIdle,
		mode:    mode,
		snaplen: snaplen,
		timeout: timeout,
	}, nil
}

func (h *CaptureHandle) setState(s state) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Next reads a single packet, decoding its link layer. When no packet is
// queued it blocks in timeout-bounded dispatch slices, re-checking ctx
// between them. A dispatch that wakes up claiming data but delivers an
// empty buffer is reported as ErrCouldNotCaptureAfterFdReady and must not
// be hidden: it indicates a pathological driver, and the handle stays
// usable for the next call.
func (h *CaptureHandle) Next(ctx context.Context) (Packet, error) {
	for {
		select {
		case <-ctx.Done():
			return Packet{}, ctx.Err()
		default:
		}

		h.setState(stateWaitingForFd)
		data, ci, err := h.handle.ZeroCopyReadPacketData()
		h.setState(stateIdle)

		if err == pcap.NextErrorTimeoutExpired {
			continue
		}
		if err != nil {
			return Packet{}, fmt.Errorf("%w: %v", ErrCouldNotCapture, err)
		}
		if len(data) == 0 {
			return Packet{}, ErrCouldNotCaptureAfterFdReady
		}

		// data aliases libpcap's ring buffer and is only valid until the
		// next read, so the decode happens here and copies out everything
		// it keeps.
		frame, decErr := layers.DecodeEthernet(data)
		if decErr != nil {
			return Packet{}, fmt.Errorf("%w: %w", ErrLinkLayer, decErr)
		}
		return Packet{Timestamp: ci.Timestamp, Frame: frame}, nil
	}
}

// Inject writes a frame to the wire via libpcap.
func (h *CaptureHandle) Inject(f layers.Frame) error {
	buf := f.EncodeInto(0, 0)
	return h.handle.WritePacketData(buf)
}

// Filter is a compiled BPF program bound to the handle that produced it.
type Filter struct {
	prog []pcap.BPFInstruction
}

// CompileFilterOptimized compiles a BPF expression against this handle's
// link type, optimized, with an unknown netmask.
func (h *CaptureHandle) CompileFilterOptimized(expr string) (*Filter, error) {
	prog, err := h.handle.CompileBPFFilter(expr)
	if err != nil {
		return nil, &FilterErr{}
	}
	return &Filter{prog: prog}, nil
}

// ApplyFilter attaches a previously compiled filter to the handle.
func (h *CaptureHandle) ApplyFilter(f *Filter) error {
	if err := h.handle.SetBPFInstructionFilter(f.prog); err != nil {
		return &FilterErr{CouldNotApply: true}
	}
	return nil
}

// WithFilter compiles and applies expr in one step.
func (h *CaptureHandle) WithFilter(expr string) error {
	f, err := h.CompileFilterOptimized(expr)
	if err != nil {
		return err
	}
	return h.ApplyFilter(f)
}

// Close releases the underlying libpcap handle.
func (h *CaptureHandle) Close() {
	h.handle.Close()
}
