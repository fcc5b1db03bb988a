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

// DecodeIP dispatches on the version nibble of the first byte: 4 -> IPv4,
// 6 -> IPv6. Both versions travel under the IPv4 EtherType; the nibble is
// the only discriminant.
func DecodeIP(slc []byte) (NetworkData, error) {
	if len(slc) < 1 {
		return nil, ErrIPInvalidLength
	}
	switch slc[0] >> 4 {
	case 4:
		return DecodeIPv4(slc)
	case 6:
		return DecodeIPv6(slc)
	default:
		return nil, ErrIPUnknownVersion
	}
}
