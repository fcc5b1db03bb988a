package layers

import "testing"

// buildIPv4TCP constructs a minimal, checksum-correct Ethernet/IPv4/TCP
// frame for use as a round-trip fixture.
func buildIPv4TCP(t *testing.T) *EthernetFrame {
	t.Helper()

	tcp := &TcpSegment{
		SrcPort: 1234, DstPort: 80, SeqNo: 1,
		AckNo:      Ack{Present: false, Number: 0},
		WindowSize: 8192,
		UrgentData: Urgent{Meaningful: false, Pointer: 0},
		Syn:        true,
		Options:    nil,
		Payload:    []byte("hello"),
	}
	ip := &IPv4Packet{
		Src: [4]byte{192, 168, 0, 1}, Dst: [4]byte{192, 168, 0, 199},
		ID: 0x1c46, TTL: 64, Dscp: 0, Ecn: EcnNonCapable,
		FragmentOffset: FragmentOffset{Meaningful: false, Offset: 0},
		Next:           tcp,
	}
	eth := &EthernetFrame{
		Src: [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01},
		Dst: [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x02},
		Payload: ip,
	}
	return eth
}

func TestEthernetIPv4TCPRoundTrip(t *testing.T) {
	eth := buildIPv4TCP(t)
	encoded := eth.EncodeInto(0, 0)

	decoded, err := DecodeEthernet(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	reencoded := decoded.EncodeInto(0, 0)
	if len(reencoded) != len(encoded) {
		t.Fatalf("length mismatch: %d vs %d", len(reencoded), len(encoded))
	}
	for i := range encoded {
		if encoded[i] != reencoded[i] {
			t.Fatalf("byte %d differs: %#02x vs %#02x", i, encoded[i], reencoded[i])
		}
	}
}

func TestReserveBeforeAfterPreservesPayload(t *testing.T) {
	eth := buildIPv4TCP(t)
	plain := eth.EncodeInto(0, 0)
	padded := eth.EncodeInto(4, 6)

	if len(padded) != len(plain)+10 {
		t.Fatalf("expected padded length %d, got %d", len(plain)+10, len(padded))
	}
	inner := padded[4 : len(padded)-6]
	for i := range plain {
		if plain[i] != inner[i] {
			t.Fatalf("reserved padding corrupted payload at byte %d", i)
		}
	}
}

func TestArpOpcodeAtBytesSixSeven(t *testing.T) {
	// The opcode must land on wire bytes 6-7, not clobber the
	// sw-address-length byte at offset 5.
	p := &ArpPacket{
		HwAddr: LLAddressPair{Sender: [6]byte{1, 2, 3, 4, 5, 6}, Receiver: [6]byte{}},
		SwAddr: NLAddressPair{SenderV4: [4]byte{10, 0, 0, 1}, RecvV4: [4]byte{10, 0, 0, 2}},
		Action: ArpResponse,
	}
	b := p.EncodeInto(0, 0)
	if b[5] != 4 {
		t.Fatalf("sw-address length byte at offset 5 was clobbered: got %d", b[5])
	}
	if b[6] != 0x00 || b[7] != 0x02 {
		t.Fatalf("opcode not at bytes 6-7: got %02x %02x", b[6], b[7])
	}

	decoded, err := DecodeArp(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Action != ArpResponse {
		t.Fatalf("expected ArpResponse, got %v", decoded.Action)
	}
}

func TestUdpLengthAtBytesFourFive(t *testing.T) {
	// Length must not overwrite src_port at bytes 0-1.
	d := &UdpDatagram{SrcPort: 53, DstPort: 12345, Payload: []byte("abcd")}
	b := d.EncodeInto(0, 0, 0)

	gotSrc := uint16(b[0])<<8 | uint16(b[1])
	if gotSrc != 53 {
		t.Fatalf("src_port clobbered by length write: got %d", gotSrc)
	}
	gotLen := uint16(b[4])<<8 | uint16(b[5])
	if gotLen != uint16(len(b)) {
		t.Fatalf("length field wrong: got %d want %d", gotLen, len(b))
	}
}

func TestIPv6AddressesNotUninitialized(t *testing.T) {
	buf := make([]byte, 40+8)
	buf[6] = 0x01 // next header: ICMP
	buf[7] = 64   // ttl
	// payload length = 8
	buf[4], buf[5] = 0, 8
	for i := 0; i < 16; i++ {
		buf[8+i] = byte(i + 1)
		buf[24+i] = byte(i + 100)
	}
	// minimal ICMP echo reply, 8 bytes
	copy(buf[40:], []byte{0, 0, 0, 0, 0, 0, 0, 0})

	p, err := DecodeIPv6(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 16; i++ {
		if p.Src[i] != byte(i+1) {
			t.Fatalf("src[%d] = %d, want %d", i, p.Src[i], i+1)
		}
		if p.Dst[i] != byte(i+100) {
			t.Fatalf("dst[%d] = %d, want %d", i, p.Dst[i], i+100)
		}
	}
}

func TestFragmentOffsetArbitraryWhenDFSet(t *testing.T) {
	// DF=1, fragment_offset bits = 0x0123 -> Arbitrary(0x0123); re-encode
	// must set DF=1 and write back the same 13 bits.
	hdr := make([]byte, 20)
	hdr[0] = 0x45
	hdr[2], hdr[3] = 0, 20
	hdr[6] = 0x40 | byte(0x0123>>8)
	hdr[7] = byte(0x0123 & 0xFF)
	hdr[9] = 0x2F // unknown protocol, no further decode needed

	p, err := DecodeIPv4(hdr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.FragmentOffset.Meaningful {
		t.Fatalf("expected Arbitrary (Meaningful=false) fragment offset when DF set")
	}
	if p.FragmentOffset.Offset != 0x0123 {
		t.Fatalf("expected offset 0x0123, got %#x", p.FragmentOffset.Offset)
	}

	b := p.EncodeInto(0, 0)
	if b[6]&0x40 == 0 {
		t.Fatalf("expected DF bit set on re-encode")
	}
	gotOffset := uint16(b[6]&0x1F)<<8 | uint16(b[7])
	if gotOffset != 0x0123 {
		t.Fatalf("expected offset 0x0123 preserved, got %#x", gotOffset)
	}
}

// TestIPv4KnownHeaderFields decodes a known-good wire header carrying a
// minimal TCP segment and checks every decoded field, then re-encodes
// with Checksum nil and expects the original checksum back.
func TestIPv4KnownHeaderFields(t *testing.T) {
	buf := []byte{
		0x45, 0x00, 0x00, 0x28, 0x1c, 0x46, 0x40, 0x00,
		0x40, 0x06, 0xb1, 0xe6, 0xc0, 0xa8, 0x00, 0x01,
		0xc0, 0xa8, 0x00, 0xc7,
	}
	tcp := make([]byte, 20)
	tcp[12] = 0x50 // data offset 5
	buf = append(buf, tcp...)

	p, err := DecodeIPv4(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Src != ([4]byte{192, 168, 0, 1}) || p.Dst != ([4]byte{192, 168, 0, 199}) {
		t.Fatalf("addresses wrong: %v -> %v", p.Src, p.Dst)
	}
	if p.ID != 0x1c46 || p.TTL != 64 {
		t.Fatalf("id/ttl wrong: %#x/%d", p.ID, p.TTL)
	}
	if p.FragmentOffset.Meaningful || p.MF {
		t.Fatalf("expected DF set (Arbitrary offset) and MF clear: %+v", p)
	}
	if p.Checksum == nil || *p.Checksum != 0xb1e6 {
		t.Fatalf("expected retained checksum 0xb1e6, got %v", p.Checksum)
	}
	if _, ok := p.Next.(*TcpSegment); !ok {
		t.Fatalf("expected TCP session payload, got %T", p.Next)
	}

	p.Checksum = nil
	b := p.EncodeInto(0, 0)
	if got := uint16(b[10])<<8 | uint16(b[11]); got != 0xb1e6 {
		t.Fatalf("recomputed checksum %#04x, want 0xb1e6", got)
	}
}

func TestEthernetTooShort(t *testing.T) {
	if _, err := DecodeEthernet(make([]byte, 14)); err != ErrEthernetInvalidLength {
		t.Fatalf("expected ErrEthernetInvalidLength, got %v", err)
	}
}

func TestTCPBoundaryErrors(t *testing.T) {
	if _, err := DecodeTCP(make([]byte, 19)); err != ErrTCPInvalidLength {
		t.Fatalf("expected ErrTCPInvalidLength, got %v", err)
	}

	b := make([]byte, 20)
	b[12] = 0x40 // data offset 4 -> header size 16 < 20
	if _, err := DecodeTCP(b); err != ErrTCPInvalidLengthField {
		t.Fatalf("expected ErrTCPInvalidLengthField for small offset, got %v", err)
	}
	b[12] = 0xF0 // data offset 15 -> header size 60 > buffer
	if _, err := DecodeTCP(b); err != ErrTCPInvalidLengthField {
		t.Fatalf("expected ErrTCPInvalidLengthField for large offset, got %v", err)
	}
}

func TestEcnBijection(t *testing.T) {
	for raw := uint8(0); raw <= 0x03; raw++ {
		e, err := decodeEcn(raw)
		if err != nil {
			t.Fatalf("decodeEcn(%d): %v", raw, err)
		}
		if byte(e) != raw {
			t.Fatalf("ecn %d did not round-trip: got %d", raw, byte(e))
		}
	}
	if _, err := decodeEcn(0x04); err == nil {
		t.Fatalf("expected error for out-of-range ecn value")
	}
}

func TestIPv4BoundaryErrors(t *testing.T) {
	if _, err := DecodeIPv4(make([]byte, 10)); err != ErrIPv4InvalidLength {
		t.Fatalf("expected ErrIPv4InvalidLength, got %v", err)
	}

	hdr := make([]byte, 20)
	hdr[0] = 0x45
	hdr[2], hdr[3] = 0xFF, 0xFF // total_length far exceeds buffer
	if _, err := DecodeIPv4(hdr); err != ErrIPv4InvalidLengthField {
		t.Fatalf("expected ErrIPv4InvalidLengthField, got %v", err)
	}
}

func TestEthernetUnknownEtherType(t *testing.T) {
	b := make([]byte, 20)
	b[12], b[13] = 0x88, 0x08 // EtherType not implemented by this package
	if _, err := DecodeEthernet(b); err != ErrEthernetUnknownNetworkProt {
		t.Fatalf("expected ErrEthernetUnknownNetworkProt, got %v", err)
	}
}

func TestIPVersionDispatch(t *testing.T) {
	if _, err := DecodeIP(nil); err != ErrIPInvalidLength {
		t.Fatalf("expected ErrIPInvalidLength on empty input, got %v", err)
	}
	if _, err := DecodeIP([]byte{0x50}); err != ErrIPUnknownVersion {
		t.Fatalf("expected ErrIPUnknownVersion for version nibble 5, got %v", err)
	}
}

func TestIPv6TravelsUnderIPv4EtherType(t *testing.T) {
	// Both IP versions ride EtherType 0x0800; the version nibble of the
	// first payload byte is the discriminant.
	icmp := &IcmpPacket{Action: IcmpEchoReply, Data: []byte{1, 2, 3, 4}}
	v6 := &IPv6Packet{Traffic: 0, Flow: 0x12345, TTL: 64, Next: icmp}
	v6.Src[15], v6.Dst[15] = 1, 2
	eth := &EthernetFrame{Payload: v6}

	b := eth.EncodeInto(0, 0)
	if b[12] != 0x08 || b[13] != 0x00 {
		t.Fatalf("expected EtherType 0x0800, got %02x%02x", b[12], b[13])
	}
	if b[14]>>4 != 6 {
		t.Fatalf("expected version nibble 6 on the encoded header, got %d", b[14]>>4)
	}

	decoded, err := DecodeEthernet(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := decoded.Payload.(*IPv6Packet)
	if !ok {
		t.Fatalf("expected *IPv6Packet, got %T", decoded.Payload)
	}
	if got.Flow != 0x12345 || got.Src != v6.Src || got.Dst != v6.Dst {
		t.Fatalf("ipv6 fields did not round-trip: %+v", got)
	}
}

func TestUnknownIpProtocolPreservesRaw(t *testing.T) {
	ip := &IPv4Packet{
		Src: [4]byte{1, 1, 1, 1}, Dst: [4]byte{2, 2, 2, 2},
		TTL: 10, Ecn: EcnNonCapable,
		Next: &UnknownProtocolData{Protocol: 0x2F, Raw: []byte{0xAA, 0xBB, 0xCC}},
	}
	b := ip.EncodeInto(0, 0)

	decoded, err := DecodeIPv4(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	u, ok := decoded.Next.(*UnknownProtocolData)
	if !ok {
		t.Fatalf("expected *UnknownProtocolData, got %T", decoded.Next)
	}
	if u.Protocol != 0x2F {
		t.Fatalf("protocol number not preserved: got %#x", u.Protocol)
	}
	if string(u.Raw) != "\xAA\xBB\xCC" {
		t.Fatalf("raw payload not preserved: got % X", u.Raw)
	}
}
