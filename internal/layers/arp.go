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

// LLAddressPair holds a (sender, receiver) hardware-address pair. Ethernet
// is the only data-link protocol currently supported.
type LLAddressPair struct {
	Sender, Receiver [6]byte
}

// NLAddressPair holds a (sender, receiver) network-address pair, for IPv4
// or IPv6.
type NLAddressPair struct {
	IsV6              bool
	SenderV4, RecvV4  [4]byte
	SenderV6, RecvV6  [8]byte
}

// ArpAction is the ARP opcode.
type ArpAction uint8

const (
	ArpRequest ArpAction = iota
	ArpResponse
)

// ArpPacket is a decoded Address Resolution Protocol message.
type ArpPacket struct {
	HwAddr LLAddressPair
	SwAddr NLAddressPair
	Action ArpAction
}

func (*ArpPacket) networkData() {}

// DecodeArp parses an ARP packet. Boundary behavior:
// 8 + 2*hw_len + 2*sw_len > len(buf) -> ErrArpInvalidLengthFields.
func DecodeArp(buf []byte) (*ArpPacket, error) {
	if len(buf) < 6 {
		return nil, ErrArpInvalidLength
	}
	hwLen := int(buf[4])
	swLen := int(buf[5])
	if len(buf) < 8+2*hwLen+2*swLen {
		return nil, ErrArpInvalidLengthFields
	}

	hwType := uint16(buf[0])<<8 | uint16(buf[1])
	if hwType != 1 {
		return nil, ErrArpUnknownLinkProtocol
	}
	if hwLen != 6 {
		return nil, ErrArpCantParseAddress
	}
	var hw LLAddressPair
	copy(hw.Sender[:], buf[8:8+hwLen])
	copy(hw.Receiver[:], buf[8+hwLen+swLen:8+2*hwLen+swLen])

	protoType := uint16(buf[2])<<8 | uint16(buf[3])
	var sw NLAddressPair
	switch protoType {
	case uint16(gopacketlayers.EthernetTypeIPv4):
		if swLen != 4 {
			return nil, ErrArpCantParseAddress
		}
		copy(sw.SenderV4[:], buf[8+hwLen:8+hwLen+swLen])
		copy(sw.RecvV4[:], buf[8+2*hwLen+swLen:8+2*hwLen+2*swLen])
	case uint16(gopacketlayers.EthernetTypeIPv6):
		sw.IsV6 = true
		if swLen != 8 {
			return nil, ErrArpCantParseAddress
		}
		copy(sw.SenderV6[:], buf[8+hwLen:8+hwLen+swLen])
		copy(sw.RecvV6[:], buf[8+2*hwLen+swLen:8+2*hwLen+2*swLen])
	default:
		return nil, ErrArpUnknownNetProtocol
	}

	var action ArpAction
	switch uint16(buf[6])<<8 | uint16(buf[7]) {
	case 1:
		action = ArpRequest
	case 2:
		action = ArpResponse
	default:
		return nil, ErrArpInvalidOperation
	}

	return &ArpPacket{HwAddr: hw, SwAddr: sw, Action: action}, nil
}

// EncodeInto writes the ARP packet with the opcode at its wire-correct
// location, bytes 6-7, rather than overwriting the sw-address length byte
// at offset 5.
func (p *ArpPacket) EncodeInto(reserveBefore, reserveAfter int) []byte {
	swLen := 4
	if p.SwAddr.IsV6 {
		swLen = 8
	}
	hwLen := 6
	total := reserveBefore + 8 + 2*hwLen + 2*swLen + reserveAfter
	out := make([]byte, total)
	b := out[reserveBefore : total-reserveAfter]

	b[0], b[1] = 0x00, 0x01 // hardware type: Ethernet
	if p.SwAddr.IsV6 {
		b[2], b[3] = 0x86, 0xDD
	} else {
		b[2], b[3] = 0x08, 0x00
	}
	b[4] = byte(hwLen)
	b[5] = byte(swLen)
	switch p.Action {
	case ArpRequest:
		b[6], b[7] = 0x00, 0x01
	case ArpResponse:
		b[6], b[7] = 0x00, 0x02
	}

	copy(b[8:8+hwLen], p.HwAddr.Sender[:])
	if p.SwAddr.IsV6 {
		copy(b[8+hwLen:8+hwLen+swLen], p.SwAddr.SenderV6[:])
		copy(b[8+hwLen+swLen:8+2*hwLen+swLen], p.HwAddr.Receiver[:])
		copy(b[8+2*hwLen+swLen:8+2*hwLen+2*swLen], p.SwAddr.RecvV6[:])
	} else {
		copy(b[8+hwLen:8+hwLen+swLen], p.SwAddr.SenderV4[:])
		copy(b[8+hwLen+swLen:8+2*hwLen+swLen], p.HwAddr.Receiver[:])
		copy(b[8+2*hwLen+swLen:8+2*hwLen+2*swLen], p.SwAddr.RecvV4[:])
	}

	return out
}

func (p *ArpPacket) Summary() string {
	act := "REQ"
	if p.Action == ArpResponse {
		act = "REP"
	}
	sender := fmt.Sprintf("%x", p.HwAddr.Sender)
	if p.SwAddr.IsV6 {
		return fmt.Sprintf("%s (%s,%x->?,%x)", act, sender, p.SwAddr.SenderV6, p.SwAddr.RecvV6)
	}
	return fmt.Sprintf("%s (%s,%d.%d.%d.%d->?,%d.%d.%d.%d)", act, sender,
		p.SwAddr.SenderV4[0], p.SwAddr.SenderV4[1], p.SwAddr.SenderV4[2], p.SwAddr.SenderV4[3],
		p.SwAddr.RecvV4[0], p.SwAddr.RecvV4[1], p.SwAddr.RecvV4[2], p.SwAddr.RecvV4[3])
}
