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

// Package diag provides an optional TCP stream reassembly dumper for the
// sniffer agent. It is not on the tunnel's data path: the tunnel treats TCP
// payloads as opaque bytes, this is operator tooling for watching the
// clear-side conversation the tunnel is carrying.
package diag

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dreadl0ck/gopacket"
	"github.com/dreadl0ck/gopacket/layers"
	"github.com/dreadl0ck/gopacket/reassembly"
	"github.com/mgutz/ansi"
)

// Reassembler feeds raw frame bytes into a TCP stream pool and prints each
// completed conversation to Out.
type Reassembler struct {
	Out io.Writer

	assembler *reassembly.Assembler
	factory   *streamFactory

	mu    sync.Mutex
	count int
}

// NewReassembler builds a Reassembler that writes completed streams to out.
func NewReassembler(out io.Writer) *Reassembler {
	factory := &streamFactory{out: out}
	pool := reassembly.NewStreamPool(factory)
	return &Reassembler{
		Out:       out,
		assembler: reassembly.NewAssembler(pool),
		factory:   factory,
	}
}

// Feed decodes raw as an Ethernet frame via gopacket and, if it carries
// IPv4-over-TCP, hands it to the assembler. Everything else is ignored:
// reassembly is TCP-only, and the tunnel itself treats TCP payloads as
// opaque bytes; this package only observes, it never participates.
func (r *Reassembler) Feed(raw []byte, ts time.Time) {
	packet := gopacket.NewPacket(raw, layers.LayerTypeEthernet, gopacket.NoCopy)
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil || packet.NetworkLayer() == nil {
		return
	}
	tcp, ok := tcpLayer.(*layers.TCP)
	if !ok {
		return
	}

	r.mu.Lock()
	r.count++
	count := r.count
	r.mu.Unlock()

	r.assembler.AssembleWithContext(packet.NetworkLayer().NetworkFlow(), tcp, &assemblerContext{
		CaptureInfo: gopacket.CaptureInfo{Timestamp: ts, Length: len(raw), CaptureLength: len(raw)},
	})

	// Flush stale connections periodically rather than accumulating them
	// for the lifetime of a long-running sniff.
	if count%4096 == 0 {
		r.assembler.FlushWithOptions(reassembly.FlushOptions{
			T:  ts.Add(-30 * time.Second),
			TC: ts.Add(-2 * time.Minute),
		})
	}
}

// Close flushes every remaining connection.
func (r *Reassembler) Close() {
	r.assembler.FlushAll()
}

type assemblerContext struct {
	gopacket.CaptureInfo
}

func (c *assemblerContext) GetCaptureInfo() gopacket.CaptureInfo { return c.CaptureInfo }

type streamFactory struct {
	out io.Writer
	wg  sync.WaitGroup
}

func (f *streamFactory) New(net, transport gopacket.Flow, tcp *layers.TCP, ac reassembly.AssemblerContext) reassembly.Stream {
	return &tcpStream{
		net:        net,
		transport:  transport,
		out:        f.out,
		tcpstate:   reassembly.NewTCPSimpleFSM(reassembly.TCPSimpleFSMOptions{SupportMissingEstablishment: true}),
		optchecker: reassembly.NewTCPOptionCheck(),
		ident:      fmt.Sprintf("%s:%s", net, transport),
	}
}

func (f *streamFactory) WaitGoRoutines() { f.wg.Wait() }

// tcpStream accumulates one bidirectional conversation's payload bytes,
// colored by direction, and prints it once reassembly considers the
// connection finished.
type tcpStream struct {
	net, transport gopacket.Flow
	tcpstate       *reassembly.TCPSimpleFSM
	optchecker     reassembly.TCPOptionCheck
	ident          string
	out            io.Writer

	fragments []fragment
	sync.Mutex
}

type fragment struct {
	raw       []byte
	dir       reassembly.TCPFlowDirection
	timestamp time.Time
}

func (t *tcpStream) Accept(tcp *layers.TCP, ci gopacket.CaptureInfo, dir reassembly.TCPFlowDirection, nextSeq reassembly.Sequence, start *bool, ac reassembly.AssemblerContext) bool {
	if !t.tcpstate.CheckState(tcp, dir) {
		return false
	}
	return t.optchecker.Accept(tcp, ci, dir, nextSeq, start) == nil
}

func (t *tcpStream) ReassembledSG(sg reassembly.ScatterGather, ac reassembly.AssemblerContext) {
	length, _ := sg.Lengths()
	dir, _, _, skip := sg.Info()
	if skip != 0 || length == 0 {
		return
	}
	data := sg.Fetch(length)
	cp := make([]byte, len(data))
	copy(cp, data)

	t.Lock()
	t.fragments = append(t.fragments, fragment{raw: cp, dir: dir, timestamp: ac.GetCaptureInfo().Timestamp})
	t.Unlock()
}

func (t *tcpStream) ReassemblyComplete(ac reassembly.AssemblerContext) bool {
	t.Lock()
	defer t.Unlock()

	sort.SliceStable(t.fragments, func(i, j int) bool { return t.fragments[i].timestamp.Before(t.fragments[j].timestamp) })

	var buf bytes.Buffer
	for _, frag := range t.fragments {
		color := ansi.Blue
		if frag.dir == reassembly.TCPDirClientToServer {
			color = ansi.Red
		}
		buf.WriteString(color)
		buf.Write(frag.raw)
		buf.WriteString(ansi.Reset)
	}
	if buf.Len() > 0 {
		fmt.Fprintf(t.out, "--- %s ---\n%s\n", t.ident, buf.String())
	}

	return true
}
