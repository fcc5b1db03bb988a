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

package layers

import (
	"fmt"

	gopacketlayers "github.com/google/gopacket/layers"
)

// EthernetFrame is a decoded Ethernet II frame: a 6-byte destination
// address, a 6-byte source address, a 2-byte ethertype and a NetworkData
// payload (IPv4, IPv6 or ARP).
type EthernetFrame struct {
	Dst, Src [6]byte
	Payload  NetworkData
}

// DecodeEthernet parses an Ethernet II frame. Frames shorter than
// 2*6+3 bytes (two addresses, ethertype, at least one payload byte) are
// rejected with ErrEthernetInvalidLength; an ethertype this package does
// not implement is rejected with ErrEthernetUnknownNetworkProt. IP of
// either version arrives under the IPv4 EtherType and is disambiguated by
// DecodeIP's version-nibble dispatch.
func DecodeEthernet(b []byte) (*EthernetFrame, error) {
	if len(b) < 2*6+3 {
		return nil, ErrEthernetInvalidLength
	}

	f := &EthernetFrame{}
	copy(f.Dst[:], b[0:6])
	copy(f.Src[:], b[6:12])

	ethType := gopacketlayers.EthernetType(uint16(b[12])<<8 | uint16(b[13]))
	payload := b[14:]

	var err error
	switch ethType {
	case gopacketlayers.EthernetTypeIPv4:
		f.Payload, err = DecodeIP(payload)
	case gopacketlayers.EthernetTypeARP:
		f.Payload, err = DecodeArp(payload)
	default:
		return nil, ErrEthernetUnknownNetworkProt
	}
	if err != nil {
		return nil, err
	}

	return f, nil
}

// EncodeInto re-serializes the frame. reserveBefore/reserveAfter let a
// caller (e.g. the ICMP tunnel carrier) reserve head/tail room in the
// returned buffer for outer framing without a second allocation.
func (f *EthernetFrame) EncodeInto(reserveBefore, reserveAfter int) []byte {
	payload := f.Payload.EncodeInto(0, 0)

	total := reserveBefore + 14 + len(payload) + reserveAfter
	out := make([]byte, total)
	b := out[reserveBefore : total-reserveAfter]

	copy(b[0:6], f.Dst[:])
	copy(b[6:12], f.Src[:])
	var et gopacketlayers.EthernetType
	switch f.Payload.(type) {
	case *ArpPacket:
		et = gopacketlayers.EthernetTypeARP
	default:
		et = gopacketlayers.EthernetTypeIPv4
	}
	b[12] = byte(et >> 8)
	b[13] = byte(et)
	copy(b[14:], payload)

	return out
}

func (f *EthernetFrame) Summary() string {
	return fmt.Sprintf("Ethernet %x -> %x | %s", f.Src, f.Dst, f.Payload.Summary())
}
