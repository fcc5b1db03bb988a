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

// Package checksum computes the 16-bit one's-complement Internet checksum
// used by IPv4, TCP, UDP and ICMP.
package checksum

// Checksum interprets b as big-endian 16-bit words (an odd trailing byte is
// treated as the high byte of a final zero-padded word), adds them to
// initial, folds the accumulator to 16 bits and returns the bitwise
// complement. initial lets callers pre-accumulate a pseudo-header sum.
func Checksum(b []byte, initial uint32) uint16 {
	sum := initial

	n := len(b)
	i := 0
	for n > 1 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
		i += 2
		n -= 2
	}
	if n > 0 {
		sum += uint32(b[i]) << 8
	}

	sum = (sum >> 16) + (sum & 0xFFFF)
	sum = (sum >> 16) + (sum & 0xFFFF)

	return ^uint16(sum)
}

// SumWords folds b into a partial checksum accumulator by summing it as
// big-endian 16-bit words, without the final fold or complement. It is
// used to turn an IPv4/IPv6 pseudo-header into the initial value passed to
// Checksum for a TCP/UDP checksum.
func SumWords(b []byte) uint32 {
	var sum uint32
	n := len(b)
	i := 0
	for n > 1 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
		i += 2
		n -= 2
	}
	if n > 0 {
		sum += uint32(b[i]) << 8
	}
	return sum
}
