package tunnel

import (
	"testing"

	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/stack"
)

// TestTunnelSymmetry checks that a TCP segment entering proxy A's clear
// side, tunneled to proxy B, decodes back to the original destination.
func TestTunnelSymmetry(t *testing.T) {
	clientMAC := [6]byte{0xc1, 0, 0, 0, 0, 1}
	gateway := [6]byte{0xaa, 0, 0, 0, 0, 1}

	a := &Tunnel{
		MyRole:     Role{Aware: &EndpointIdentity{IP: [4]byte{10, 0, 0, 5}, MAC: clientMAC}},
		Clear:      EndpointIdentity{IP: [4]byte{10, 0, 0, 1}, MAC: [6]byte{1}},
		Meta:       EndpointIdentity{IP: [4]byte{20, 0, 0, 1}, MAC: [6]byte{2}},
		OtherProxy: EndpointIdentity{IP: [4]byte{20, 0, 0, 2}, MAC: [6]byte{3}},
	}
	b := &Tunnel{
		MyRole:     Role{Gateway: &gateway},
		Clear:      EndpointIdentity{IP: [4]byte{30, 0, 0, 1}, MAC: [6]byte{4}},
		Meta:       EndpointIdentity{IP: [4]byte{20, 0, 0, 2}, MAC: [6]byte{3}},
		OtherProxy: EndpointIdentity{IP: [4]byte{20, 0, 0, 1}, MAC: [6]byte{2}},
	}

	seg := &layers.TcpSegment{SrcPort: 4000, DstPort: 80, Payload: []byte("GET /")}
	incoming := Tcp{
		Segment: seg,
		Metadata: stack.Metadata{
			IPSrc: [4]byte{10, 0, 0, 5}, IPDst: [4]byte{8, 8, 8, 8},
			ID: 0x42, TTL: 64,
		},
	}

	icmp := a.Encode(incoming)
	if icmp.Action != layers.IcmpEchoRequest {
		t.Fatalf("Aware proxy must emit EchoRequest, got %v", icmp.Action)
	}
	if icmp.OriginalDst != ([4]byte{8, 8, 8, 8}) {
		t.Fatalf("OriginalDst should carry the client's TCP destination, got %v", icmp.OriginalDst)
	}

	decoded := b.Decode(icmp)
	if decoded.Metadata.IPDst != ([4]byte{8, 8, 8, 8}) {
		t.Fatalf("B must restore destination 8.8.8.8, got %v", decoded.Metadata.IPDst)
	}
	if decoded.Metadata.IPSrc != b.Meta.IP {
		t.Fatalf("Unaware proxy must source from its own meta IP, got %v", decoded.Metadata.IPSrc)
	}
	if decoded.Metadata.MacDst != gateway {
		t.Fatalf("Unaware proxy must route via its configured gateway MAC, got %v", decoded.Metadata.MacDst)
	}
	if decoded.Segment != seg {
		t.Fatalf("tunneled segment identity should be preserved end to end")
	}
}

func TestLoadConfigAware(t *testing.T) {
	raw := []byte(`{
		"other_proxy": {"ip":[20,0,0,2], "mac":[3,3,3,3,3,3]},
		"clear":       {"ip":[10,0,0,1], "mac":[1,1,1,1,1,1]},
		"meta":        {"ip":[20,0,0,1], "mac":[2,2,2,2,2,2]},
		"my_role":     {"Aware":{"ip":[10,0,0,5],"mac":[5,5,5,5,5,5]}}
	}`)

	tun, err := LoadConfig(raw)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !tun.MyRole.isAware() {
		t.Fatalf("expected Aware role")
	}
	if tun.MyRole.Aware.IP != ([4]byte{10, 0, 0, 5}) {
		t.Fatalf("unexpected client ip: %v", tun.MyRole.Aware.IP)
	}
}

func TestLoadConfigUnaware(t *testing.T) {
	raw := []byte(`{
		"other_proxy": {"ip":[20,0,0,2], "mac":[3,3,3,3,3,3]},
		"clear":       {"ip":[10,0,0,1], "mac":[1,1,1,1,1,1]},
		"meta":        {"ip":[20,0,0,1], "mac":[2,2,2,2,2,2]},
		"my_role":     {"Unaware":{"gateway":[9,9,9,9,9,9]}}
	}`)

	tun, err := LoadConfig(raw)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if tun.MyRole.isAware() {
		t.Fatalf("expected Unaware role")
	}
	if *tun.MyRole.Gateway != ([6]byte{9, 9, 9, 9, 9, 9}) {
		t.Fatalf("unexpected gateway: %v", *tun.MyRole.Gateway)
	}
}

func TestClearFilterString(t *testing.T) {
	tun := &Tunnel{
		MyRole:     Role{Gateway: &[6]byte{0}},
		Clear:      EndpointIdentity{IP: [4]byte{10, 0, 0, 1}},
		OtherProxy: EndpointIdentity{IP: [4]byte{20, 0, 0, 2}},
	}
	want := "ip proto \\icmp and dst net 10.0.0.1 and src net 20.0.0.2 and icmp[icmptype] = icmp-echo"
	if got := tun.ClearFilter(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
