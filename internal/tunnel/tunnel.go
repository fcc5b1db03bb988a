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

// Package tunnel implements the TCP-over-ICMP encapsulation: a pair of
// Tunnelable carrier types (Tcp, Icmp) and a Tunnel that maps between them
// according to a proxy's configured Role.
package tunnel

import (
	"fmt"

	"github.com/dreadl0ck/icmptun/internal/checksum"
	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/stack"
)

// Tunnelable embellishes itself back into a link-layer frame. Extraction
// is not part of the interface: ExtractTcp and ExtractIcmp do it.
type Tunnelable interface {
	Embellish() layers.Frame
}

// Tcp is a plain TCP segment captured on the clear side, carried with
// enough IPv4 metadata to reconstruct its frame.
type Tcp struct {
	Segment  *layers.TcpSegment
	Metadata stack.Metadata
}

// ExtractTcp extracts a Tcp carrier from a frame whose session payload is
// TCP. ok is false for any other shape.
func ExtractTcp(f layers.Frame) (Tcp, bool) {
	session, meta, ok := stack.Extract(f)
	if !ok {
		return Tcp{}, false
	}
	seg, ok := session.(*layers.TcpSegment)
	if !ok {
		return Tcp{}, false
	}
	return Tcp{Segment: seg, Metadata: meta}, true
}

func (t Tcp) Embellish() layers.Frame {
	return t.Metadata.Embellish(t.Segment)
}

// Icmp is a tunneled TCP segment riding inside an ICMP echo message: the
// segment is the ICMP payload, Action/OriginalDst come from the ICMP
// header's type and rest-of-header fields.
type Icmp struct {
	Segment     *layers.TcpSegment
	Action      layers.IcmpAction
	OriginalDst [4]byte
	Metadata    stack.Metadata
}

// ExtractIcmp extracts an Icmp carrier from a frame whose session payload
// is ICMP and whose data decodes as a TCP segment.
func ExtractIcmp(f layers.Frame) (Icmp, bool) {
	session, meta, ok := stack.Extract(f)
	if !ok {
		return Icmp{}, false
	}
	icmp, ok := session.(*layers.IcmpPacket)
	if !ok {
		return Icmp{}, false
	}
	seg, err := layers.DecodeTCP(icmp.Data)
	if err != nil {
		return Icmp{}, false
	}
	return Icmp{Segment: seg, Action: icmp.Action, OriginalDst: icmp.Rest, Metadata: meta}, true
}

// Embellish re-encodes the carried TCP segment as the ICMP payload, with
// the TCP checksum computed over the carrier's IPv4 pseudo-header; the ICMP
// checksum itself has no pseudo-header and is computed on encode.
func (i Icmp) Embellish() layers.Frame {
	var pseudo [10]byte
	copy(pseudo[0:4], i.Metadata.IPSrc[:])
	copy(pseudo[4:8], i.Metadata.IPDst[:])
	pseudo[9] = 0x06
	pseudoSum := checksum.SumWords(pseudo[:])

	payload := i.Segment.EncodeInto(0, 0, pseudoSum)

	out := &layers.IcmpPacket{
		Action: i.Action,
		Rest:   i.OriginalDst,
		Data:   payload,
	}
	// Checksum is recomputed by IcmpPacket.EncodeInto itself, which ignores
	// the value stored here.
	out.Checksum = 0

	return i.Metadata.Embellish(out)
}

// EndpointIdentity names a machine by its IPv4 address and the hardware
// address used to route frames to it.
type EndpointIdentity struct {
	IP  [4]byte
	MAC [6]byte
}

// Role is the proxy's position relative to the tunnel: Aware proxies sit
// next to the TCP client and know its identity; Unaware proxies face the
// wider network and route via a configured gateway.
type Role struct {
	Aware   *EndpointIdentity
	Gateway *[6]byte
}

func (r Role) isAware() bool { return r.Aware != nil }

// Tunnel holds the four endpoint identities and role that determine how
// Tcp and Icmp carriers map onto each other.
type Tunnel struct {
	OtherProxy EndpointIdentity
	Clear      EndpointIdentity
	Meta       EndpointIdentity
	MyRole     Role
}

// Decode turns a received Icmp carrier back into the Tcp segment it
// tunneled, restoring IPv4 metadata per the proxy's role: an Aware proxy
// takes the source from OriginalDst and addresses the segment to its own
// client identity; an Unaware proxy takes the source from its own meta
// identity and the destination from OriginalDst.
func (t *Tunnel) Decode(in Icmp) Tcp {
	meta := stack.Metadata{
		MacSrc:         t.Meta.MAC,
		FragmentOffset: layers.FragmentOffset{Meaningful: false, Offset: 0},
		MF:             false,
		ID:             in.Metadata.ID,
		Dscp:           0,
		TTL:            in.Metadata.TTL,
		Ecn:            layers.EcnNonCapable,
	}
	if t.MyRole.isAware() {
		meta.MacDst = t.MyRole.Aware.MAC
		meta.IPSrc = in.OriginalDst
		meta.IPDst = t.MyRole.Aware.IP
	} else {
		meta.MacDst = *t.MyRole.Gateway
		meta.IPSrc = t.Meta.IP
		meta.IPDst = in.OriginalDst
	}
	return Tcp{Segment: in.Segment, Metadata: meta}
}

// Encode turns a plain Tcp segment captured on the clear side into the
// Icmp carrier that tunnels it to the peer proxy.
func (t *Tunnel) Encode(in Tcp) Icmp {
	meta := stack.Metadata{
		MacSrc:         t.Clear.MAC,
		MacDst:         t.OtherProxy.MAC,
		IPSrc:          t.Clear.IP,
		IPDst:          t.OtherProxy.IP,
		MF:             false,
		FragmentOffset: layers.FragmentOffset{Meaningful: false, Offset: 0},
		ID:             in.Metadata.ID,
		Dscp:           0,
		TTL:            in.Metadata.TTL,
		Ecn:            layers.EcnNonCapable,
	}

	action := layers.IcmpEchoReply
	var originalDst [4]byte
	if t.MyRole.isAware() {
		action = layers.IcmpEchoRequest
		originalDst = in.Metadata.IPDst
	} else {
		originalDst = in.Metadata.IPSrc
	}

	return Icmp{Segment: in.Segment, Metadata: meta, Action: action, OriginalDst: originalDst}
}

// ClearFilter builds the BPF expression applied to the interface that
// reads ICMP (confusingly named "clear": it carries the tunnel's covert
// side, not plaintext). It matches echoes addressed between this proxy's
// clear identity and its peer, with the action implied by role.
func (t *Tunnel) ClearFilter() string {
	action := "icmp-echo"
	if t.MyRole.isAware() {
		action = "icmp-echoreply"
	}
	return fmt.Sprintf(
		"ip proto \\icmp and dst net %d.%d.%d.%d and src net %d.%d.%d.%d and icmp[icmptype] = %s",
		t.Clear.IP[0], t.Clear.IP[1], t.Clear.IP[2], t.Clear.IP[3],
		t.OtherProxy.IP[0], t.OtherProxy.IP[1], t.OtherProxy.IP[2], t.OtherProxy.IP[3],
		action,
	)
}

// MetaFilter builds the BPF expression applied to the interface that
// reads TCP.
func (t *Tunnel) MetaFilter() string {
	if t.MyRole.isAware() {
		ip := t.MyRole.Aware.IP
		return fmt.Sprintf("ip proto \\tcp and src net %d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
	}
	return fmt.Sprintf("ip proto \\tcp and dst net %d.%d.%d.%d",
		t.Meta.IP[0], t.Meta.IP[1], t.Meta.IP[2], t.Meta.IP[3])
}
