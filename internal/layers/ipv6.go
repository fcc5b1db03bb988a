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
)

// IPv6Packet is a decoded IPv6 datagram. Src/Dst are zero-valued until
// filled from the buffer by the copy a few lines below.
type IPv6Packet struct {
	Src, Dst [16]byte
	Flow     uint32
	Traffic  uint8
	TTL      uint8
	Next     SessionData
}

func (*IPv6Packet) networkData() {}

// DecodeIPv6 parses an IPv6 datagram: buf.len() < 40 -> ErrIPv6InvalidLength;
// payload_length exceeding the buffer -> ErrIPv6InvalidPayloadLength.
func DecodeIPv6(buf []byte) (*IPv6Packet, error) {
	if len(buf) < 40 {
		return nil, ErrIPv6InvalidLength
	}
	l := int(buf[4])<<8 | int(buf[5])
	if len(buf) < 40+l {
		return nil, ErrIPv6InvalidPayloadLength
	}

	p := &IPv6Packet{
		Traffic: buf[0]<<4 | buf[1]>>4,
		Flow:    uint32(buf[1]&0x0F)<<16 | uint32(buf[2])<<8 | uint32(buf[3]),
		TTL:     buf[7],
	}
	copy(p.Src[:], buf[8:24])
	copy(p.Dst[:], buf[24:40])

	next, err := decodeSession(buf[6], buf[40:])
	if err != nil {
		return nil, err
	}
	p.Next = next

	return p, nil
}

// EncodeInto re-serializes the datagram with a freshly computed payload
// length; IPv6 has no header checksum of its own.
func (p *IPv6Packet) EncodeInto(reserveBefore, reserveAfter int) []byte {
	nextProto := p.Next.ipProtocol()

	var pseudo [36]byte
	copy(pseudo[0:16], p.Src[:])
	copy(pseudo[16:32], p.Dst[:])
	pseudo[35] = nextProto
	pseudoSum := checksum.SumWords(pseudo[:])

	v := p.Next.EncodeInto(reserveBefore+40, reserveAfter, pseudoSum)
	payloadLen := len(v) - reserveBefore - 40 - reserveAfter

	b := v[reserveBefore : len(v)-reserveAfter]
	hdr := b[:40]

	hdr[0] = 0x60 | p.Traffic>>4
	hdr[1] = p.Traffic<<4 | byte(p.Flow>>16)
	hdr[2] = byte(p.Flow >> 8)
	hdr[3] = byte(p.Flow)
	hdr[4] = byte(payloadLen >> 8)
	hdr[5] = byte(payloadLen)
	hdr[6] = nextProto
	hdr[7] = p.TTL

	copy(hdr[8:24], p.Src[:])
	copy(hdr[24:40], p.Dst[:])

	return v
}

func (p *IPv6Packet) Summary() string {
	return fmt.Sprintf("(%08X,%x->%x,TTL-%d) %s", p.Flow, p.Src, p.Dst, p.TTL, p.Next.Summary())
}
