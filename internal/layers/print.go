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

	"github.com/evilsocket/islazy/tui"
	"github.com/mgutz/ansi"
)

// colorRest highlights the ICMP rest-of-header bytes: they carry the
// tunnel's return address, which is the one field worth spotting at a
// glance in a live dump.
var colorRest = ansi.ColorFunc("yellow+b")

// ColorSummary renders a frame's Summary with the ICMP/covert branch of the
// tunnel highlighted, so a sniffer operator can tell at a glance which
// frames are carrying tunneled TCP inside ICMP versus plain traffic.
func ColorSummary(f Frame) string {
	eth, ok := f.(*EthernetFrame)
	if !ok {
		return f.Summary()
	}
	ip, ok := eth.Payload.(*IPv4Packet)
	if !ok {
		return f.Summary()
	}
	switch next := ip.Next.(type) {
	case *IcmpPacket:
		return tui.Red(f.Summary()) + " rest=" + colorRest(fmt.Sprintf("% X", next.Rest))
	case *TcpSegment:
		if next.Syn || next.Fin || next.Rst {
			return tui.Green(f.Summary())
		}
	}
	return f.Summary()
}
