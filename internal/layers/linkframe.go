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

// Package layers implements decode/encode codecs for Ethernet, ARP, IPv4,
// IPv6, ICMP, TCP and UDP. Each codec preserves enough structural
// information that encode(decode(b)) reproduces b bytewise except where a
// checksum was recomputed.
package layers

// Frame is a link-layer frame. Ethernet is the only variant implemented;
// new link types are added by implementing Frame, not by subclassing
// EthernetFrame.
type Frame interface {
	// EncodeInto writes the frame into a buffer with reserveBefore bytes
	// of free space before the frame and reserveAfter bytes after it.
	EncodeInto(reserveBefore, reserveAfter int) []byte
	Summary() string
}

// NetworkData is the network-layer payload of a link frame: IPv4, IPv6 or
// ARP. networkData seals the set of variants to this package; the Ethernet
// encoder switches over them to pick the EtherType.
type NetworkData interface {
	EncodeInto(reserveBefore, reserveAfter int) []byte
	Summary() string
	networkData()
}

// SessionData is the session-layer payload of an IP packet: TCP, UDP, ICMP
// or an unrecognized IP protocol number carried verbatim.
type SessionData interface {
	// EncodeInto writes the segment/datagram into a buffer, folding
	// pseudoSum (a partial checksum accumulated over the IP pseudo-header
	// by the caller) into its own checksum where applicable.
	EncodeInto(reserveBefore, reserveAfter int, pseudoSum uint32) []byte
	Summary() string
	ipProtocol() uint8
}
