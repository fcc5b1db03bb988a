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

// Ack carries the TCP acknowledgement number. Present marks whether the ACK
// control bit was set on the wire; the number itself is kept even when the
// bit is clear so re-encoding reproduces the original bytes.
type Ack struct {
	Present bool
	Number  uint32
}

// Urgent carries the TCP urgent pointer. Meaningful marks whether the URG
// control bit was set.
type Urgent struct {
	Meaningful bool
	Pointer    uint16
}

// TcpSegment is a decoded TCP segment.
type TcpSegment struct {
	SrcPort, DstPort       uint16
	SeqNo                  uint32
	AckNo                  Ack
	WindowSize             uint16
	Checksum               uint16
	UrgentData             Urgent
	Ns, Cwr, Ece           bool
	Psh, Rst, Syn, Fin     bool
	Options, Payload       []byte
}

func (TcpSegment) ipProtocol() uint8 { return uint8(gopacketlayers.IPProtocolTCP) }

// DecodeTCP parses a TCP segment. slc.len() < 20 -> ErrTCPInvalidLength;
// a data offset outside [20, len(slc)] -> ErrTCPInvalidLengthField.
func DecodeTCP(slc []byte) (*TcpSegment, error) {
	if len(slc) < 20 {
		return nil, ErrTCPInvalidLength
	}
	headSize := 4 * int(slc[12]>>4)
	if headSize > len(slc) || headSize < 20 {
		return nil, ErrTCPInvalidLengthField
	}

	urg := uint16(slc[18])<<8 | uint16(slc[19])
	ackNo := uint32(slc[8])<<24 | uint32(slc[9])<<16 | uint32(slc[10])<<8 | uint32(slc[11])

	return &TcpSegment{
		SrcPort: uint16(slc[0])<<8 | uint16(slc[1]),
		DstPort: uint16(slc[2])<<8 | uint16(slc[3]),
		SeqNo:   uint32(slc[4])<<24 | uint32(slc[5])<<16 | uint32(slc[6])<<8 | uint32(slc[7]),
		AckNo:   Ack{Present: slc[13]&0b00010000 != 0, Number: ackNo},
		WindowSize: uint16(slc[14])<<8 | uint16(slc[15]),
		Ns:         slc[12]&0b00000001 != 0,
		Cwr:        slc[13]&0b10000000 != 0,
		Ece:        slc[13]&0b01000000 != 0,
		Psh:        slc[13]&0b00001000 != 0,
		Rst:        slc[13]&0b00000100 != 0,
		Syn:        slc[13]&0b00000010 != 0,
		Fin:        slc[13]&0b00000001 != 0,
		UrgentData: Urgent{Meaningful: slc[13]&0b00100000 != 0, Pointer: urg},
		Checksum:   uint16(slc[16])<<8 | uint16(slc[17]),
		Options:    append([]byte(nil), slc[20:headSize]...),
		Payload:    append([]byte(nil), slc[headSize:]...),
	}, nil
}

// EncodeInto re-serializes the segment and recomputes its checksum over
// pseudoSum (the partial sum of the IPv4/IPv6 pseudo-header addresses and
// protocol number, accumulated by the caller), the TCP length (added here)
// and the segment itself, per the Internet checksum convention; the decoded Checksum value
// is discarded; the checksum is always recomputed for TCP.
func (s *TcpSegment) EncodeInto(reserveBefore, reserveAfter int, pseudoSum uint32) []byte {
	boundary := reserveBefore + 20 + len(s.Options) + len(s.Payload)
	out := make([]byte, boundary+reserveAfter)
	b := out[reserveBefore:boundary]

	b[0] = byte(s.SrcPort >> 8)
	b[1] = byte(s.SrcPort)
	b[2] = byte(s.DstPort >> 8)
	b[3] = byte(s.DstPort)
	b[4] = byte(s.SeqNo >> 24)
	b[5] = byte(s.SeqNo >> 16)
	b[6] = byte(s.SeqNo >> 8)
	b[7] = byte(s.SeqNo)
	b[8] = byte(s.AckNo.Number >> 24)
	b[9] = byte(s.AckNo.Number >> 16)
	b[10] = byte(s.AckNo.Number >> 8)
	b[11] = byte(s.AckNo.Number)

	b[12] = (5 + byte(len(s.Options)/4)) << 4
	if s.Ns {
		b[12] |= 0x01
	}

	b[13] = 0
	if s.Cwr {
		b[13] |= 0x80
	}
	if s.Ece {
		b[13] |= 0x40
	}
	if s.UrgentData.Meaningful {
		b[13] |= 0x20
	}
	if s.AckNo.Present {
		b[13] |= 0x10
	}
	if s.Psh {
		b[13] |= 0x08
	}
	if s.Rst {
		b[13] |= 0x04
	}
	if s.Syn {
		b[13] |= 0x02
	}
	if s.Fin {
		b[13] |= 0x01
	}

	b[14] = byte(s.WindowSize >> 8)
	b[15] = byte(s.WindowSize)
	b[16] = 0
	b[17] = 0
	b[18] = byte(s.UrgentData.Pointer >> 8)
	b[19] = byte(s.UrgentData.Pointer)

	copy(b[20:20+len(s.Options)], s.Options)
	copy(b[20+len(s.Options):], s.Payload)

	cs := checksum.Checksum(b, pseudoSum+uint32(len(b)))
	b[16] = byte(cs >> 8)
	b[17] = byte(cs)

	return out
}

func (s *TcpSegment) Summary() string {
	flags := ""
	switch {
	case s.Syn:
		flags = ",SYN"
	case s.Fin:
		flags = ",FIN"
	case s.Rst:
		flags = ",RST"
	}
	return fmt.Sprintf("(%d:%d->%d%s) | % X", s.SeqNo, s.SrcPort, s.DstPort, flags, s.Payload)
}
