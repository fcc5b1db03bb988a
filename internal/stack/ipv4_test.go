package stack

import (
	"testing"

	"github.com/dreadl0ck/icmptun/internal/layers"
)

func TestExtractEmbellishRoundTrip(t *testing.T) {
	tcp := &layers.TcpSegment{SrcPort: 1, DstPort: 2, Payload: []byte("x")}
	original := &layers.EthernetFrame{
		Src: [6]byte{1, 2, 3, 4, 5, 6},
		Dst: [6]byte{6, 5, 4, 3, 2, 1},
		Payload: &layers.IPv4Packet{
			Src: [4]byte{10, 0, 0, 1}, Dst: [4]byte{10, 0, 0, 2},
			ID: 7, TTL: 64, Ecn: layers.EcnNonCapable, Next: tcp,
		},
	}

	session, meta, ok := Extract(original)
	if !ok {
		t.Fatalf("expected Extract to succeed on an Ethernet/IPv4 frame")
	}
	if meta.ID != 7 || meta.TTL != 64 {
		t.Fatalf("metadata not captured correctly: %+v", meta)
	}

	rebuilt := meta.Embellish(session)
	encodedOriginal := original.EncodeInto(0, 0)
	encodedRebuilt := rebuilt.EncodeInto(0, 0)
	if len(encodedOriginal) != len(encodedRebuilt) {
		t.Fatalf("length mismatch after embellish: %d vs %d", len(encodedOriginal), len(encodedRebuilt))
	}
}

func TestExtractRejectsNonIPv4(t *testing.T) {
	arp := &layers.EthernetFrame{
		Payload: &layers.ArpPacket{Action: layers.ArpRequest},
	}
	if _, _, ok := Extract(arp); ok {
		t.Fatalf("expected Extract to reject an ARP payload")
	}
}
