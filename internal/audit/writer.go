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

// Package audit persists CapturedFrame records to disk: one gzip-compressed,
// length-delimited protobuf stream per run, or a CSV file when configured
// for human inspection instead.
package audit

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/golang/protobuf/proto"
	gzip "github.com/klauspost/pgzip"
)

// DefaultBufferSize sizes the bufio writer in front of the file.
// DefaultCompressionBlockSize is the pgzip.SetConcurrency block size (at
// least 100k per block), with twice the number of cores worth of blocks in
// flight.
const (
	DefaultBufferSize           = 1 << 20
	DefaultCompressionBlockSize = 1 << 20
)

// Writer persists CapturedFrame records, either as length-delimited
// protobuf or as CSV.
type Writer struct {
	Name string

	file    *os.File
	bWriter *bufio.Writer
	gWriter *gzip.Writer
	csv     *csv.Writer

	compress    bool
	writeAsCSV  bool
	wroteHeader bool
	mu          sync.Mutex
}

// NewWriter opens out/name.ncap (or out/name.csv when writeAsCSV is set),
// with .gz appended when compress is set, and configures compression.
func NewWriter(name, out string, compress, writeAsCSV bool) (*Writer, error) {
	w := &Writer{Name: name, compress: compress, writeAsCSV: writeAsCSV}

	ext := ".ncap"
	if writeAsCSV {
		ext = ".csv"
	}
	if compress {
		ext += ".gz"
	}

	f, err := os.Create(filepath.Join(out, name+ext))
	if err != nil {
		return nil, fmt.Errorf("audit: create %s: %w", name, err)
	}
	w.file = f
	w.bWriter = bufio.NewWriterSize(f, DefaultBufferSize)

	var dest io.Writer = w.bWriter
	if compress {
		w.gWriter = gzip.NewWriter(w.bWriter)
		if err := w.gWriter.SetConcurrency(DefaultCompressionBlockSize, runtime.GOMAXPROCS(0)*2); err != nil {
			return nil, fmt.Errorf("audit: configure pgzip: %w", err)
		}
		dest = w.gWriter
	}

	if writeAsCSV {
		w.csv = csv.NewWriter(dest)
	}

	return w, nil
}

// WriteCSV writes r as a CSV row, writing the header first if this is the
// first record.
func (w *Writer) WriteCSV(r *CapturedFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		if err := w.csv.Write(r.CSVHeader()); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	if err := w.csv.Write(r.CSVRecord()); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// WriteProto serializes r and frames it with a 4-byte big-endian length
// prefix, using stdlib encoding/binary for the length-delimited framing.
func (w *Writer) WriteProto(r proto.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := proto.Marshal(r)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}

	var dest io.Writer = w.bWriter
	if w.gWriter != nil {
		dest = w.gWriter
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(buf)))
	if _, err := dest.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err = dest.Write(buf)
	return err
}

// Write dispatches to WriteCSV or WriteProto depending on how the Writer
// was configured.
func (w *Writer) Write(r *CapturedFrame) error {
	if w.writeAsCSV {
		return w.WriteCSV(r)
	}
	return w.WriteProto(r)
}

// Close flushes and closes every layer of the writer, returning the final
// file name and size.
func (w *Writer) Close() (string, int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.gWriter != nil {
		if err := w.gWriter.Flush(); err != nil {
			return "", 0, err
		}
		if err := w.gWriter.Close(); err != nil {
			return "", 0, err
		}
	}
	if err := w.bWriter.Flush(); err != nil {
		return "", 0, err
	}

	info, err := w.file.Stat()
	if err != nil {
		return "", 0, err
	}
	name := w.file.Name()
	if err := w.file.Close(); err != nil {
		return "", 0, err
	}
	return name, info.Size(), nil
}
