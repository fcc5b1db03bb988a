package audit

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/protobuf/proto"
)

func TestWriteProtoFramesWithLengthPrefix(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("test", dir, false, false)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	rec := &CapturedFrame{TimestampUnixNano: 1, Interface: "eth0", Summary: "x", Length: 10}
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write: %v", err)
	}
	name, size, err := w.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if size == 0 {
		t.Fatalf("expected non-zero file size")
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		t.Fatalf("read length prefix: %v", err)
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("read record: %v", err)
	}

	var got CapturedFrame
	if err := proto.Unmarshal(buf, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Interface != "eth0" || got.TimestampUnixNano != 1 {
		t.Fatalf("unexpected roundtrip: %+v", got)
	}
}

func TestWriteCSVIncludesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("test", dir, false, true)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := w.Write(&CapturedFrame{Interface: "eth0", Summary: "x"}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	name, _, err := w.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(filepath.Clean(name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Interface" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
}
