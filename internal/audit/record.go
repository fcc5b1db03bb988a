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

package audit

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// CapturedFrame is the audit record persisted for every frame the sniffer
// observes: just enough to reconstruct what crossed the wire and
// when, without re-deriving it from the raw bytes.
type CapturedFrame struct {
	TimestampUnixNano int64  `protobuf:"varint,1,opt,name=timestamp_unix_nano,json=timestampUnixNano" json:"TimestampUnixNano,omitempty"`
	Interface         string `protobuf:"bytes,2,opt,name=interface" json:"Interface,omitempty"`
	Summary           string `protobuf:"bytes,3,opt,name=summary" json:"Summary,omitempty"`
	Length            int32  `protobuf:"varint,4,opt,name=length" json:"Length,omitempty"`
	Covert            bool   `protobuf:"varint,5,opt,name=covert" json:"Covert,omitempty"`
}

// Reset, String and ProtoMessage implement the legacy proto.Message
// interface by hand: no .proto file is compiled in this repo, so this
// mirrors the shape protoc-gen-go would have produced for a message this
// small.
func (r *CapturedFrame) Reset() { *r = CapturedFrame{} }

func (r *CapturedFrame) String() string {
	return fmt.Sprintf("CapturedFrame{ts=%d iface=%s len=%d covert=%v %q}",
		r.TimestampUnixNano, r.Interface, r.Length, r.Covert, r.Summary)
}

func (r *CapturedFrame) ProtoMessage() {}

var _ proto.Message = (*CapturedFrame)(nil)

// CSVHeader and CSVRecord give CapturedFrame a CSV row shape for the
// Writer's CSV path without reflecting over protobuf field tags.
func (r *CapturedFrame) CSVHeader() []string {
	return []string{"TimestampUnixNano", "Interface", "Summary", "Length", "Covert"}
}

func (r *CapturedFrame) CSVRecord() []string {
	return []string{
		fmt.Sprint(r.TimestampUnixNano),
		r.Interface,
		r.Summary,
		fmt.Sprint(r.Length),
		fmt.Sprint(r.Covert),
	}
}
