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

// Package sniffer implements the plain packet dumper agent: open one
// interface, optionally apply a raw BPF filter, and print every captured
// frame until the context is cancelled. An audit trail and a TCP stream
// reassembly dump can both be enabled alongside the live printout.
package sniffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dreadl0ck/icmptun/internal/audit"
	"github.com/dreadl0ck/icmptun/internal/diag"
	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/pcap"
)

// Options configures a Run invocation.
type Options struct {
	Iface  string
	Filter string // empty means no filter is applied
	Out    io.Writer

	// AuditDir, if non-empty, persists every captured frame there via
	// internal/audit.
	AuditDir string
	AuditCSV bool

	// Reassemble enables the internal/diag TCP stream dumper alongside the
	// per-frame printout.
	Reassemble bool

	// Verbose dumps each decoded frame's full Go structure with go-spew in
	// addition to its one-line summary.
	Verbose bool
}

// Run opens Options.Iface in promiscuous mode and prints every captured
// frame to Options.Out (or the standard logger if nil) until ctx is
// cancelled or the handle returns a fatal error.
func Run(ctx context.Context, opts Options) error {
	handle, err := pcap.OpenLive(opts.Iface, pcap.Promisc, 100*time.Millisecond, 65535)
	if err != nil {
		return fmt.Errorf("sniffer: open %s: %w", opts.Iface, err)
	}
	defer handle.Close()

	if opts.Filter != "" {
		if err := handle.WithFilter(opts.Filter); err != nil {
			return fmt.Errorf("sniffer: apply filter %q: %w", opts.Filter, err)
		}
	}

	var auditWriter *audit.Writer
	if opts.AuditDir != "" {
		auditWriter, err = audit.NewWriter("sniff-"+opts.Iface, opts.AuditDir, !opts.AuditCSV, opts.AuditCSV)
		if err != nil {
			return err
		}
		defer func() {
			name, size, closeErr := auditWriter.Close()
			if closeErr == nil {
				log.Printf("sniffer: wrote audit trail %s (%d bytes)", name, size)
			}
		}()
	}

	var reassembler *diag.Reassembler
	if opts.Reassemble {
		out := opts.Out
		if out == nil {
			out = log.Writer()
		}
		reassembler = diag.NewReassembler(out)
		defer reassembler.Close()
	}

	for {
		pkt, err := handle.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A malformed packet or a spurious wakeup is not fatal to
			// the dump, only a dead interface is.
			if errors.Is(err, pcap.ErrLinkLayer) || errors.Is(err, pcap.ErrCouldNotCaptureAfterFdReady) {
				continue
			}
			return fmt.Errorf("sniffer: read: %w", err)
		}
		if pkt.Frame == nil {
			continue
		}

		print(opts, pkt)

		raw := pkt.Frame.EncodeInto(0, 0)

		if reassembler != nil {
			reassembler.Feed(raw, pkt.Timestamp)
		}

		if auditWriter != nil {
			if err := auditWriter.Write(&audit.CapturedFrame{
				TimestampUnixNano: pkt.Timestamp.UnixNano(),
				Interface:         opts.Iface,
				Summary:           pkt.Frame.Summary(),
				Length:            int32(len(raw)),
				Covert:            isCovert(pkt.Frame),
			}); err != nil {
				log.Printf("sniffer: audit write failed: %v", err)
			}
		}
	}
}

func print(opts Options, pkt pcap.Packet) {
	line := fmt.Sprintf("[%s] %s", pkt.Timestamp.Format(time.RFC3339Nano), layers.ColorSummary(pkt.Frame))
	if opts.Out != nil {
		fmt.Fprintln(opts.Out, line)
	} else {
		log.Println(line)
	}
	if opts.Verbose {
		spew.Fdump(logOrOut(opts), pkt.Frame)
	}
}

func logOrOut(opts Options) io.Writer {
	if opts.Out != nil {
		return opts.Out
	}
	return log.Writer()
}

func isCovert(f layers.Frame) bool {
	eth, ok := f.(*layers.EthernetFrame)
	if !ok {
		return false
	}
	ip, ok := eth.Payload.(*layers.IPv4Packet)
	if !ok {
		return false
	}
	_, isICMP := ip.Next.(*layers.IcmpPacket)
	return isICMP
}
