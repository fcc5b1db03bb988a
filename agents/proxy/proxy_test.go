package proxy

import (
	"context"
	"testing"
	"time"

	"github.com/dreadl0ck/icmptun/internal/layers"
	"github.com/dreadl0ck/icmptun/internal/stack"
	"github.com/dreadl0ck/icmptun/internal/tunnel"
)

func buildTunnels() (*tunnel.Tunnel, *tunnel.Tunnel) {
	gateway := [6]byte{0xaa, 0, 0, 0, 0, 1}
	a := &tunnel.Tunnel{
		MyRole:     tunnel.Role{Aware: &tunnel.EndpointIdentity{IP: [4]byte{10, 0, 0, 5}, MAC: [6]byte{0xc1}}},
		Clear:      tunnel.EndpointIdentity{IP: [4]byte{10, 0, 0, 1}, MAC: [6]byte{1}},
		Meta:       tunnel.EndpointIdentity{IP: [4]byte{20, 0, 0, 1}, MAC: [6]byte{2}},
		OtherProxy: tunnel.EndpointIdentity{IP: [4]byte{20, 0, 0, 2}, MAC: [6]byte{3}},
	}
	b := &tunnel.Tunnel{
		MyRole:     tunnel.Role{Gateway: &gateway},
		Clear:      tunnel.EndpointIdentity{IP: [4]byte{30, 0, 0, 1}, MAC: [6]byte{4}},
		Meta:       tunnel.EndpointIdentity{IP: [4]byte{20, 0, 0, 2}, MAC: [6]byte{3}},
		OtherProxy: tunnel.EndpointIdentity{IP: [4]byte{20, 0, 0, 1}, MAC: [6]byte{2}},
	}
	return a, b
}

// TestForwardEncodesPlainIntoIcmpInjection verifies that a Tcp-tagged item
// is encoded and lands on the icmp injection channel, never the tcp one.
func TestForwardEncodesPlainIntoIcmpInjection(t *testing.T) {
	tun, _ := buildTunnels()

	tcpInjection := make(chan layers.Frame, 1)
	icmpInjection := make(chan layers.Frame, 1)
	a := New(tun, nil, nil, tcpInjection, icmpInjection)

	seg := &layers.TcpSegment{SrcPort: 4000, DstPort: 80, Payload: []byte("GET /")}
	item := tunnelData{plain: &tunnel.Tcp{
		Segment: seg,
		Metadata: stack.Metadata{
			IPSrc: [4]byte{10, 0, 0, 5}, IPDst: [4]byte{8, 8, 8, 8},
			TTL: 64,
		},
	}}

	if !a.forward(context.Background(), item) {
		t.Fatalf("forward reported failure")
	}

	select {
	case <-icmpInjection:
	default:
		t.Fatalf("expected a frame on the icmp injection channel")
	}
	select {
	case <-tcpInjection:
		t.Fatalf("tcp injection channel should be untouched")
	default:
	}
}

// TestRunStopsOnContextCancellation ensures the merge loop exits promptly
// once ctx is cancelled, rather than leaking goroutines.
func TestRunStopsOnContextCancellation(t *testing.T) {
	tun, _ := buildTunnels()
	tcpFrames := make(chan layers.Frame)
	icmpFrames := make(chan layers.Frame)
	tcpInjection := make(chan layers.Frame, 1)
	icmpInjection := make(chan layers.Frame, 1)

	a := New(tun, tcpFrames, icmpFrames, tcpInjection, icmpInjection)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after context cancellation")
	}
}
