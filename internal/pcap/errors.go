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

package pcap

import "errors"

// Capture error kinds. ErrLinkLayer wraps the layer-level parse error so
// consumers can drop malformed packets without treating the handle as dead.
var (
	ErrLinkLayer                   = errors.New("pcap: link layer decode failed")
	ErrCouldNotCapture             = errors.New("pcap: dispatch returned an unexpected result")
	ErrCouldNotReadSelectableFd    = errors.New("pcap: could not poll the capture file descriptor")
	ErrCouldNotCaptureAfterFdReady = errors.New("pcap: fd signalled readable but dispatch returned nothing")
)

// FilterErr distinguishes a filter that failed to compile from one that
// compiled but could not be attached to the handle.
type FilterErr struct {
	CouldNotApply bool
}

func (e *FilterErr) Error() string {
	if e.CouldNotApply {
		return "pcap: filter compiled but could not be applied"
	}
	return "pcap: filter did not compile"
}
