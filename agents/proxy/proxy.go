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

// Package proxy implements the agent that straddles a tunnel's clear and
// meta interfaces: it opens both, merges their filtered capture streams,
// and forwards each packet through the tunnel's encode or decode mapping
// onto the opposite interface's injection queue.
package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/dreadl0ck/icmptun/internal/cloud"
	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/pcap"
	"github.com/dreadl0ck/icmptun/internal/tunnel"
)

// tunnelData tags a merged stream item by which side of the tunnel it came
// from, carrying exactly one of Plain or Meta.
type tunnelData struct {
	plain *tunnel.Tcp
	meta  *tunnel.Icmp
}

// Agent merges a Tcp-carrying stream and an Icmp-carrying stream and
// forwards each item through a Tunnel onto the opposite injection queue.
type Agent struct {
	tun             *tunnel.Tunnel
	tcpFrames       <-chan layers.Frame
	icmpFrames      <-chan layers.Frame
	tcpInjection    chan<- layers.Frame
	icmpInjection   chan<- layers.Frame
}

// New constructs an Agent that extracts Tcp carriers from tcpFrames and
// Icmp carriers from icmpFrames, forwarding tunnel output onto
// tcpInjection/icmpInjection respectively.
func New(tun *tunnel.Tunnel, tcpFrames, icmpFrames <-chan layers.Frame, tcpInjection, icmpInjection chan<- layers.Frame) *Agent {
	return &Agent{
		tun:           tun,
		tcpFrames:     tcpFrames,
		icmpFrames:    icmpFrames,
		tcpInjection:  tcpInjection,
		icmpInjection: icmpInjection,
	}
}

// Run merges the two input streams and forwards every recognized frame
// through the tunnel until ctx is cancelled or both inputs are exhausted.
// A send failure on either injection channel ends the loop: the injection
// side has been dropped, so there is no point continuing.
func (a *Agent) Run(ctx context.Context) {
	merged := make(chan tunnelData)
	go a.mergeInto(ctx, merged)

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-merged:
			if !ok {
				return
			}
			if !a.forward(ctx, item) {
				return
			}
		}
	}
}

func (a *Agent) mergeInto(ctx context.Context, out chan<- tunnelData) {
	defer close(out)
	for {
		if a.tcpFrames == nil && a.icmpFrames == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case f, ok := <-a.tcpFrames:
			if !ok {
				a.tcpFrames = nil
				continue
			}
			if tcp, ok := tunnel.ExtractTcp(f); ok {
				select {
				case out <- tunnelData{plain: &tcp}:
				case <-ctx.Done():
					return
				}
			}
		case f, ok := <-a.icmpFrames:
			if !ok {
				a.icmpFrames = nil
				continue
			}
			if icmp, ok := tunnel.ExtractIcmp(f); ok {
				select {
				case out <- tunnelData{meta: &icmp}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (a *Agent) forward(ctx context.Context, item tunnelData) bool {
	var frame layers.Frame
	var dst chan<- layers.Frame

	switch {
	case item.plain != nil:
		frame = a.tun.Encode(*item.plain).Embellish()
		dst = a.icmpInjection
	case item.meta != nil:
		frame = a.tun.Decode(*item.meta).Embellish()
		dst = a.tcpInjection
	default:
		return true
	}

	// A full injection queue exerts backpressure here; the only way a send
	// fails is cancellation, which means the injection side is gone and
	// there is no point continuing.
	select {
	case dst <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

// OpenWith opens the tunnel's two interfaces (metaIface for TCP, clearIface
// for ICMP, matching the `icmp-tcp <meta_interface> <clear_interface>
// <config.json>` CLI order), applies the role-appropriate BPF filters, and
// runs the capture clouds and the proxy loop until ctx is cancelled.
func OpenWith(ctx context.Context, tun *tunnel.Tunnel, metaIface, clearIface string) error {
	tcpHandle, err := pcap.OpenLive(metaIface, pcap.Promisc, 100*time.Millisecond, 65535)
	if err != nil {
		return fmt.Errorf("%w: %v", tunnel.ErrOpenInt, err)
	}
	defer tcpHandle.Close()
	if err := tcpHandle.WithFilter(tun.MetaFilter()); err != nil {
		return tunnel.ErrApplyFilter
	}

	icmpHandle, err := pcap.OpenLive(clearIface, pcap.Promisc, 100*time.Millisecond, 65535)
	if err != nil {
		return fmt.Errorf("%w: %v", tunnel.ErrOpenClear, err)
	}
	defer icmpHandle.Close()
	if err := icmpHandle.WithFilter(tun.ClearFilter()); err != nil {
		return tunnel.ErrApplyFilter
	}

	tcpInjection := make(chan layers.Frame, cloud.InjectionCap)
	icmpInjection := make(chan layers.Frame, cloud.InjectionCap)

	tcpCloud, tcpOut := cloud.New(tcpHandle, tcpInjection)
	icmpCloud, icmpOut := cloud.New(icmpHandle, icmpInjection)

	tcpFrames := make(chan layers.Frame)
	icmpFrames := make(chan layers.Frame)
	go forwardCaptured(ctx, tcpOut, tcpFrames)
	go forwardCaptured(ctx, icmpOut, icmpFrames)

	go tcpCloud.Run(ctx)
	go icmpCloud.Run(ctx)

	agent := New(tun, tcpFrames, icmpFrames, tcpInjection, icmpInjection)
	agent.Run(ctx)

	return nil
}

// forwardCaptured drops capture errors: a malformed packet is skipped, it
// never terminates the tunnel.
func forwardCaptured(ctx context.Context, in <-chan cloud.CapturedPacket, out chan<- layers.Frame) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case cp, ok := <-in:
			if !ok {
				return
			}
			if cp.Err != nil || cp.Packet.Frame == nil {
				continue
			}
			select {
			case out <- cp.Packet.Frame:
			case <-ctx.Done():
				return
			}
		}
	}
}
