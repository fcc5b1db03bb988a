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

// Package cloud multiplexes a capture handle's incoming packets and an
// injection queue onto a single goroutine, biased toward forwarding
// freshly captured packets over draining the injection queue.
package cloud

import (
	"context"
	"log"

	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/pcap"
	"github.com/dustin/go-humanize"
)

// CaptureOutputCap and InjectionCap are the bounded queue sizes: capture
// output is deep enough to absorb a short consumer stall without libpcap
// dropping packets at the kernel ring buffer; injection is shallower since
// a full injection queue should exert backpressure quickly.
const (
	CaptureOutputCap = 1000
	InjectionCap     = 100
)

// CapturedPacket is a packet read from the wrapped handle, or the error
// that Next returned while trying to read one.
type CapturedPacket struct {
	Packet pcap.Packet
	Err    error
}

// Cloud multiplexes a single CaptureHandle between inbound capture and
// outbound injection.
type Cloud struct {
	handle     *pcap.CaptureHandle
	injections <-chan layers.Frame
	output     chan CapturedPacket

	captured  uint64
	injected  uint64
	bytesSeen uint64
}

// New wraps handle, draining injections into it and delivering every
// captured packet (or capture error) on the returned channel.
func New(handle *pcap.CaptureHandle, injections <-chan layers.Frame) (*Cloud, <-chan CapturedPacket) {
	output := make(chan CapturedPacket, CaptureOutputCap)
	c := &Cloud{handle: handle, injections: injections, output: output}
	return c, output
}

// Run drives the cloud until ctx is cancelled. A closed injection channel
// only stops injection; capture forwarding goes on until cancellation. On
// each iteration it races a capture read against an
// injection, biased so a pending capture always wins a simultaneous
// readiness: under constant injection pressure the device must still
// drain.
func (c *Cloud) Run(ctx context.Context) {
	defer close(c.output)

	type forwardResult struct {
		pkt pcap.Packet
		err error
	}

	captureCh := make(chan forwardResult)
	go func() {
		for {
			pkt, err := c.handle.Next(ctx)
			select {
			case captureCh <- forwardResult{pkt: pkt, err: err}:
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case fwd, ok := <-captureCh:
			if !ok {
				return
			}
			c.forward(ctx, fwd.pkt, fwd.err)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case fwd, ok := <-captureCh:
			if !ok {
				return
			}
			c.forward(ctx, fwd.pkt, fwd.err)
		case frame, ok := <-c.injections:
			if !ok {
				c.injections = nil
				continue
			}
			c.inject(frame)
		}
	}
}

func (c *Cloud) forward(ctx context.Context, pkt pcap.Packet, err error) {
	msg := CapturedPacket{Packet: pkt, Err: err}
	if err == nil {
		c.captured++
		if pkt.Frame != nil {
			c.bytesSeen += uint64(len(pkt.Frame.EncodeInto(0, 0)))
		}
	}
	select {
	case c.output <- msg:
	case <-ctx.Done():
	}
}

// inject writes a frame to the wire. Injection failures are dropped
// silently: they represent transient link failures, not a reason to tear
// down the tunnel.
func (c *Cloud) inject(f layers.Frame) {
	if err := c.handle.Inject(f); err != nil {
		return
	}
	c.injected++
}

// LogThroughput emits a human-readable summary of packets forwarded,
// packets injected and bytes seen so far.
func (c *Cloud) LogThroughput() {
	log.Printf("cloud: captured=%d injected=%d seen=%s",
		c.captured, c.injected, humanize.Bytes(c.bytesSeen))
}
