package diag

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/dreadl0ck/gopacket"
	"github.com/dreadl0ck/gopacket/layers"
)

func buildTCPFrame(t *testing.T, seq uint32, payload []byte, syn, fin bool) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{1, 2, 3, 4, 5, 6},
		DstMAC:       net.HardwareAddr{6, 5, 4, 3, 2, 1},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	tcp := &layers.TCP{
		SrcPort: 4000,
		DstPort: 80,
		Seq:     seq,
		SYN:     syn,
		FIN:     fin,
		ACK:     !syn,
		Window:  1024,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func TestReassemblerPrintsCompletedConversation(t *testing.T) {
	var out bytes.Buffer
	r := NewReassembler(&out)

	now := time.Now()
	r.Feed(buildTCPFrame(t, 1, nil, true, false), now)
	r.Feed(buildTCPFrame(t, 2, []byte("hello"), false, false), now.Add(time.Millisecond))
	r.Feed(buildTCPFrame(t, 7, nil, false, true), now.Add(2*time.Millisecond))
	r.Close()

	if !bytes.Contains(out.Bytes(), []byte("hello")) {
		t.Fatalf("expected reassembled payload in output, got %q", out.String())
	}
}

func TestFeedIgnoresNonTCP(t *testing.T) {
	var out bytes.Buffer
	r := NewReassembler(&out)

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{1, 2, 3, 4, 5, 6},
		DstMAC:       net.HardwareAddr{6, 5, 4, 3, 2, 1},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolUDP,
		SrcIP: net.IPv4(10, 0, 0, 1), DstIP: net.IPv4(10, 0, 0, 2),
	}
	udp := &layers.UDP{SrcPort: 1000, DstPort: 2000}
	udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload([]byte("x"))); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	r.Feed(buf.Bytes(), time.Now())
	r.Close()

	if out.Len() != 0 {
		t.Fatalf("expected no output for a non-TCP frame, got %q", out.String())
	}
}
