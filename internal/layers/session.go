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

import "fmt"

// UnknownProtocolData carries the payload of an IP protocol number this
// package does not decode, verbatim, so packets using it can still be
// reconstructed bit-for-bit.
type UnknownProtocolData struct {
	Protocol uint8
	Raw      []byte
}

func (u UnknownProtocolData) ipProtocol() uint8 { return u.Protocol }

func (u *UnknownProtocolData) EncodeInto(reserveBefore, reserveAfter int, _ uint32) []byte {
	out := make([]byte, reserveBefore+len(u.Raw)+reserveAfter)
	copy(out[reserveBefore:], u.Raw)
	return out
}

func (u *UnknownProtocolData) Summary() string {
	return fmt.Sprintf("Unknown-%d | % X", u.Protocol, u.Raw)
}

// decodeSession dispatches on an IPv4/IPv6 protocol number to the matching
// SessionData codec, falling back to UnknownProtocolData for anything this
// package doesn't implement.
func decodeSession(protocol uint8, slc []byte) (SessionData, error) {
	switch protocol {
	case 0x01:
		p, err := DecodeICMP(slc)
		if err != nil {
			return nil, err
		}
		return p, nil
	case 0x06:
		s, err := DecodeTCP(slc)
		if err != nil {
			return nil, err
		}
		return s, nil
	case 0x11:
		d, err := DecodeUDP(slc)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return &UnknownProtocolData{Protocol: protocol, Raw: append([]byte(nil), slc...)}, nil
	}
}
