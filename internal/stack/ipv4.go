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

// Package stack projects an Ethernet/IPv4 frame down to its session-layer
// payload plus the metadata needed to rebuild an equivalent frame around a
// different payload later.
package stack

import "github.com/dreadl0ck/icmptun/internal/layers"

// Metadata holds everything required to reconstruct an Ethernet/IPv4
// frame around a session-layer payload, other than the payload itself.
type Metadata struct {
	MacSrc, MacDst         [6]byte
	IPSrc, IPDst           [4]byte
	MF                     bool
	FragmentOffset         layers.FragmentOffset
	ID                     uint16
	TTL                    uint8
	Dscp                   uint8
	Ecn                    layers.Ecn
}

// Extract splits an Ethernet/IPv4 frame into its session-layer payload and
// the metadata needed to rebuild the frame. Any other shape (non-IPv4
// payload, ARP, IPv6) returns ok=false.
func Extract(f layers.Frame) (layers.SessionData, Metadata, bool) {
	eth, ok := f.(*layers.EthernetFrame)
	if !ok {
		return nil, Metadata{}, false
	}
	ip, ok := eth.Payload.(*layers.IPv4Packet)
	if !ok {
		return nil, Metadata{}, false
	}

	return ip.Next, Metadata{
		MacSrc:         eth.Src,
		MacDst:         eth.Dst,
		IPSrc:          ip.Src,
		IPDst:          ip.Dst,
		MF:             ip.MF,
		FragmentOffset: ip.FragmentOffset,
		ID:             ip.ID,
		TTL:            ip.TTL,
		Dscp:           ip.Dscp,
		Ecn:            ip.Ecn,
	}, true
}

// Embellish rebuilds an Ethernet/IPv4 frame around session, using m for
// everything else. The IPv4 checksum is always recomputed.
func (m Metadata) Embellish(session layers.SessionData) layers.Frame {
	return &layers.EthernetFrame{
		Src: m.MacSrc,
		Dst: m.MacDst,
		Payload: &layers.IPv4Packet{
			Src:            m.IPSrc,
			Dst:            m.IPDst,
			ID:             m.ID,
			TTL:            m.TTL,
			Dscp:           m.Dscp,
			Ecn:            m.Ecn,
			MF:             m.MF,
			FragmentOffset: m.FragmentOffset,
			Checksum:       nil,
			Next:           session,
		},
	}
}
