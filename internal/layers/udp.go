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

	"github.com/dreadl0ck/icmptun/internal/checksum"
	gopacketlayers "github.com/google/gopacket/layers"
)

// UdpDatagram is a decoded UDP datagram. Checksum is a pointer so that a
// zero on-wire checksum (legal for UDP over IPv4) can be told apart from a
// value this package should compute at encode time.
type UdpDatagram struct {
	SrcPort, DstPort uint16
	Checksum         *uint16
	Payload          []byte
}

func (UdpDatagram) ipProtocol() uint8 { return uint8(gopacketlayers.IPProtocolUDP) }

// DecodeUDP parses a UDP datagram. slc.len() < 8 -> ErrUDPInvalidLength;
// the length field exceeding the buffer -> ErrUDPInvalidLengthField.
func DecodeUDP(slc []byte) (*UdpDatagram, error) {
	if len(slc) < 8 {
		return nil, ErrUDPInvalidLength
	}
	l := int(slc[4])<<8 | int(slc[5])
	if len(slc) < l {
		return nil, ErrUDPInvalidLengthField
	}

	cs := uint16(slc[6])<<8 | uint16(slc[7])
	return &UdpDatagram{
		SrcPort:  uint16(slc[0])<<8 | uint16(slc[1]),
		DstPort:  uint16(slc[2])<<8 | uint16(slc[3]),
		Checksum: &cs,
		Payload:  append([]byte(nil), slc[8:l]...),
	}, nil
}

// EncodeInto re-serializes the datagram, writing the length field to bytes
// 4-5, not bytes 0-1 where it would clobber the source port.
func (d *UdpDatagram) EncodeInto(reserveBefore, reserveAfter int, pseudoSum uint32) []byte {
	l := 8 + len(d.Payload)
	out := make([]byte, reserveBefore+reserveAfter+l)
	b := out[reserveBefore : reserveBefore+l]

	b[0] = byte(d.SrcPort >> 8)
	b[1] = byte(d.SrcPort)
	b[2] = byte(d.DstPort >> 8)
	b[3] = byte(d.DstPort)
	b[4] = byte(l >> 8)
	b[5] = byte(l)
	copy(b[8:], d.Payload)

	if d.Checksum != nil {
		b[6] = byte(*d.Checksum >> 8)
		b[7] = byte(*d.Checksum)
	} else {
		cs := checksum.Checksum(b, pseudoSum+uint32(len(b)))
		b[6] = byte(cs >> 8)
		b[7] = byte(cs)
	}

	return out
}

func (d *UdpDatagram) Summary() string {
	cs := "AUTOCHECKSUM"
	if d.Checksum != nil {
		cs = fmt.Sprintf("%04X", *d.Checksum)
	}
	return fmt.Sprintf("(%d->%d,%s) | % X", d.SrcPort, d.DstPort, cs, d.Payload)
}
