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

import "errors"

// Ethernet errors.
var (
	ErrEthernetInvalidLength      = errors.New("layers: ethernet frame shorter than 15 bytes")
	ErrEthernetUnknownNetworkProt = errors.New("layers: unknown ethertype")
)

// ARP errors.
var (
	ErrArpInvalidLength       = errors.New("layers: arp packet too short")
	ErrArpInvalidLengthFields = errors.New("layers: arp hw/sw length fields exceed buffer")
	ErrArpUnknownLinkProtocol = errors.New("layers: unknown arp hardware type")
	ErrArpUnknownNetProtocol  = errors.New("layers: unknown arp protocol type")
	ErrArpInvalidOperation    = errors.New("layers: unknown arp opcode")
	ErrArpCantParseAddress    = errors.New("layers: could not slice arp address field")
)

// IP version-dispatch errors.
var (
	ErrIPInvalidLength  = errors.New("layers: empty ip packet")
	ErrIPUnknownVersion = errors.New("layers: unknown ip protocol version")
)

// IPv4 errors.
var (
	ErrIPv4InvalidLength      = errors.New("layers: ipv4 header shorter than 20 bytes")
	ErrIPv4InvalidLengthField = errors.New("layers: ipv4 ihl/total_length inconsistent with buffer")
	ErrIPv4InvalidEcn         = errors.New("layers: ipv4 ecn field out of range")
)

// IPv6 errors.
var (
	ErrIPv6InvalidLength        = errors.New("layers: ipv6 header shorter than 40 bytes")
	ErrIPv6InvalidPayloadLength = errors.New("layers: ipv6 payload_length exceeds buffer")
)

// TCP errors.
var (
	ErrTCPInvalidLength      = errors.New("layers: tcp segment shorter than 20 bytes")
	ErrTCPInvalidLengthField = errors.New("layers: tcp data offset inconsistent with buffer")
)

// UDP errors.
var (
	ErrUDPInvalidLength      = errors.New("layers: udp datagram shorter than 8 bytes")
	ErrUDPInvalidLengthField = errors.New("layers: udp length field exceeds buffer")
)

// ICMP errors.
var (
	ErrICMPInvalidLength   = errors.New("layers: icmp packet shorter than 8 bytes")
	ErrICMPUnknownAction   = errors.New("layers: unrecognized icmp type/code combination")
)
