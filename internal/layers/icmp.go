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

// IcmpAction is the (type, code) pair this package understands. Only the
// echo request/reply pair is modeled; anything else is ErrICMPUnknownAction.
type IcmpAction uint8

const (
	IcmpEchoRequest IcmpAction = iota
	IcmpEchoReply
)

func (a IcmpAction) headerFields() (typ, code byte) {
	if a == IcmpEchoRequest {
		return 8, 0
	}
	return 0, 0
}

// IcmpPacket is a decoded ICMP message.
type IcmpPacket struct {
	Action   IcmpAction
	Checksum uint16
	Rest     [4]byte
	Data     []byte
}

func (IcmpPacket) ipProtocol() uint8 { return uint8(gopacketlayers.IPProtocolICMPv4) }

// DecodeICMP parses an ICMP message. buf.len() < 8 -> ErrICMPInvalidLength;
// a (type, code) pair other than (0,0) or (8,0) -> ErrICMPUnknownAction.
func DecodeICMP(buf []byte) (*IcmpPacket, error) {
	if len(buf) < 8 {
		return nil, ErrICMPInvalidLength
	}

	var action IcmpAction
	switch {
	case buf[0] == 0 && buf[1] == 0:
		action = IcmpEchoReply
	case buf[0] == 8 && buf[1] == 0:
		action = IcmpEchoRequest
	default:
		return nil, ErrICMPUnknownAction
	}

	p := &IcmpPacket{
		Action:   action,
		Checksum: uint16(buf[2])<<8 | uint16(buf[3]),
		Data:     append([]byte(nil), buf[8:]...),
	}
	copy(p.Rest[:], buf[4:8])
	return p, nil
}

// EncodeInto re-serializes the message and recomputes the ICMP checksum,
// which unlike TCP/UDP has no pseudo-header; pseudoSum is accepted to
// satisfy SessionData and ignored.
func (p *IcmpPacket) EncodeInto(reserveBefore, reserveAfter int, _ uint32) []byte {
	out := make([]byte, reserveBefore+8+len(p.Data)+reserveAfter)
	b := out[reserveBefore : reserveBefore+8+len(p.Data)]

	typ, code := p.Action.headerFields()
	b[0], b[1] = typ, code
	b[4], b[5], b[6], b[7] = p.Rest[0], p.Rest[1], p.Rest[2], p.Rest[3]
	copy(b[8:], p.Data)

	// b[2:4] is still zero here, so Checksum folds over the header with
	// the checksum field itself blank, per the ICMP checksum convention.
	cs := checksum.Checksum(b, 0)
	b[2] = byte(cs >> 8)
	b[3] = byte(cs)

	return out
}

func (p *IcmpPacket) Summary() string {
	act := "ECHOREP"
	if p.Action == IcmpEchoRequest {
		act = "ECHOREQ"
	}
	if len(p.Data) >= 4 {
		return fmt.Sprintf("%s | %02X %02X %02X %02X", act, p.Data[0], p.Data[1], p.Data[2], p.Data[3])
	}
	return fmt.Sprintf("%s | % X", act, p.Data)
}
