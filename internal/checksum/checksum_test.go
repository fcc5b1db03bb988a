package checksum

import "testing"

func TestChecksumIPv4HeaderIsZero(t *testing.T) {
	// A valid IPv4 header (including its own checksum field) checksums to 0.
	hdr := []byte{
		0x45, 0x00, 0x00, 0x28, 0x1c, 0x46, 0x40, 0x00,
		0x40, 0x06, 0xb1, 0xe6, 0xc0, 0xa8, 0x00, 0x01,
		0xc0, 0xa8, 0x00, 0xc7,
	}
	if got := Checksum(hdr, 0); got != 0 {
		t.Fatalf("expected checksum 0 over a valid header with checksum field, got %#04x", got)
	}
}

func TestChecksumRecomputesToKnownValue(t *testing.T) {
	hdr := []byte{
		0x45, 0x00, 0x00, 0x28, 0x1c, 0x46, 0x40, 0x00,
		0x40, 0x06, 0x00, 0x00, 0xc0, 0xa8, 0x00, 0x01,
		0xc0, 0xa8, 0x00, 0xc7,
	}
	if got := Checksum(hdr, 0); got != 0xb1e6 {
		t.Fatalf("expected 0xb1e6, got %#04x", got)
	}
}

func TestChecksumIcmpEcho(t *testing.T) {
	// Echo request with checksum=0, rest=[0,1,0,1], data="abcd".
	b := []byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x61, 0x62, 0x63, 0x64}
	got := Checksum(b, 0)
	// sum = 0x0800 + 0x0000 + 0x0001 + 0x0001 + 0x6162 + 0x6364, folded then complemented.
	want := ^uint16(0x0800 + 0x0000 + 0x0001 + 0x0001 + 0x6162 + 0x6364)
	if got != want {
		t.Fatalf("got %#04x want %#04x", got, want)
	}
}

func TestChecksumOddLengthTailByte(t *testing.T) {
	b := []byte{0x00, 0x01, 0x02}
	got := Checksum(b, 0)
	want := ^uint16(0x0001 + (0x0002 << 8))
	if got != want {
		t.Fatalf("got %#04x want %#04x", got, want)
	}
}

func TestChecksumAllocationFreeShape(t *testing.T) {
	// Pure function: same input, same output, no dependence on call order.
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	a := Checksum(b, 0)
	c := Checksum(b, 0)
	if a != c {
		t.Fatalf("checksum is not pure: %#04x != %#04x", a, c)
	}
}
