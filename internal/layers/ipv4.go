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

// Ecn is the two-bit Explicit Congestion Notification field, shared by
// IPv4 and IPv6.
type Ecn uint8

const (
	EcnNonCapable Ecn = iota
	EcnCapable0
	EcnCapable1
	EcnCongestionEncountered
)

func decodeEcn(raw uint8) (Ecn, error) {
	if raw > 0x03 {
		return 0, ErrIPv4InvalidEcn
	}
	return Ecn(raw), nil
}

// FragmentOffset carries the IPv4 fragment-offset field. Meaningful is true
// when the "don't fragment" bit was clear on the wire (the offset can
// actually apply to this datagram); when DF was set the offset is carried
// as Arbitrary (Meaningful == false) but the raw bits are still kept so
// re-encoding reproduces them byte-exactly.
type FragmentOffset struct {
	Meaningful bool
	Offset     uint16
}

// IPv4Packet is a decoded IPv4 datagram.
type IPv4Packet struct {
	Src, Dst       [4]byte
	ID             uint16
	TTL            uint8
	Dscp           uint8
	Ecn            Ecn
	MF             bool
	FragmentOffset FragmentOffset
	Checksum       *uint16
	Next           SessionData
}

func (*IPv4Packet) networkData() {}

// DecodeIPv4 parses an IPv4 datagram: slc.len() < 20 ->
// ErrIPv4InvalidLength; total_length exceeding the buffer, or header
// length outside [20, total_length] -> ErrIPv4InvalidLengthField.
func DecodeIPv4(slc []byte) (*IPv4Packet, error) {
	if len(slc) < 20 {
		return nil, ErrIPv4InvalidLength
	}
	totSize := int(slc[2])<<8 | int(slc[3])
	headSize := 4 * int(slc[0]&0x0F)
	if totSize > len(slc) || headSize > totSize || headSize < 20 {
		return nil, ErrIPv4InvalidLengthField
	}

	ecn, err := decodeEcn(slc[1] & 0x03)
	if err != nil {
		return nil, err
	}

	p := &IPv4Packet{
		ID:   uint16(slc[4])<<8 | uint16(slc[5]),
		TTL:  slc[8],
		Dscp: slc[1] >> 2,
		Ecn:  ecn,
		MF:   slc[6]&0b00100000 != 0,
	}
	copy(p.Src[:], slc[12:16])
	copy(p.Dst[:], slc[16:20])

	offset := uint16(slc[6]&0b00011111)<<8 | uint16(slc[7])
	p.FragmentOffset = FragmentOffset{Meaningful: slc[6]&0b01000000 == 0, Offset: offset}

	cs := uint16(slc[10])<<8 | uint16(slc[11])
	p.Checksum = &cs

	next, err := decodeSession(slc[9], slc[headSize:totSize])
	if err != nil {
		return nil, err
	}
	p.Next = next

	return p, nil
}

// EncodeInto re-serializes the datagram. If Checksum is nil the header
// checksum is computed over the freshly written 20 header bytes with the
// checksum field zeroed; otherwise the stored value is written verbatim.
func (p *IPv4Packet) EncodeInto(reserveBefore, reserveAfter int) []byte {
	nextProto := p.Next.ipProtocol()

	var pseudo [10]byte
	copy(pseudo[0:4], p.Src[:])
	copy(pseudo[4:8], p.Dst[:])
	pseudo[9] = nextProto
	pseudoSum := checksum.SumWords(pseudo[:])

	v := p.Next.EncodeInto(reserveBefore+20, reserveAfter, pseudoSum)
	payloadLen := len(v) - reserveBefore - 20 - reserveAfter

	b := v[reserveBefore : len(v)-reserveAfter]
	hdr := b[:20]

	hdr[0] = 0x45
	hdr[1] = (p.Dscp << 2) | byte(p.Ecn)
	totLen := 20 + payloadLen
	hdr[2] = byte(totLen >> 8)
	hdr[3] = byte(totLen)
	hdr[4] = byte(p.ID >> 8)
	hdr[5] = byte(p.ID)

	hdr[6] = 0
	if p.MF {
		hdr[6] |= 0x20
	}
	if !p.FragmentOffset.Meaningful {
		hdr[6] |= 0x40
	}
	hdr[6] |= byte(p.FragmentOffset.Offset >> 8)
	hdr[7] = byte(p.FragmentOffset.Offset)

	hdr[8] = p.TTL
	hdr[9] = nextProto
	copy(hdr[12:16], p.Src[:])
	copy(hdr[16:20], p.Dst[:])

	if p.Checksum != nil {
		hdr[10] = byte(*p.Checksum >> 8)
		hdr[11] = byte(*p.Checksum)
	} else {
		hdr[10] = 0
		hdr[11] = 0
		cs := checksum.Checksum(hdr, 0)
		hdr[10] = byte(cs >> 8)
		hdr[11] = byte(cs)
	}

	return v
}

func (p *IPv4Packet) Summary() string {
	frag := ""
	if p.FragmentOffset.Meaningful {
		lf := "-LF"
		if p.MF {
			lf = ""
		}
		frag = fmt.Sprintf(",FRAG-%d%s", p.FragmentOffset.Offset, lf)
	}
	return fmt.Sprintf("(%04X:%d.%d.%d.%d->%d.%d.%d.%d,TTL-%d%s) %s",
		p.ID, p.Src[0], p.Src[1], p.Src[2], p.Src[3], p.Dst[0], p.Dst[1], p.Dst[2], p.Dst[3],
		p.TTL, frag, p.Next.Summary())
}
