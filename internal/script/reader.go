// Package script reads the SQL statement stream out of a dump file, which
// may be plain text or gzip-compressed.
package script

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"strings"
)

const chunkSize = 256

// statementTerminator separates one SQL statement from the next in a dump
// file's text.
var statementTerminator = []byte(";\n")

// Reader pulls fixed-size chunks off a dump file and assembles them into
// complete, terminated SQL statements, one per Next call. Any bytes read
// past a statement's terminator are held over for the following call.
type Reader struct {
	f      *os.File
	gz     *gzip.Reader
	src    io.Reader
	buf    []byte // bytes read but not yet returned by Next
	chunk  [chunkSize]byte
	sawEOF bool
}

// Open opens path, transparently wrapping a gzip reader when the name ends
// in ".gz".
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, src: f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.gz = gz
		r.src = gz
	}
	return r, nil
}

// Close releases the underlying file (and gzip reader, if any).
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.f.Close()
}

// terminatorEnd returns the offset just past the first ";\n" in buf, or -1
// if buf holds no complete statement yet.
func terminatorEnd(buf []byte) int {
	i := bytes.Index(buf, statementTerminator)
	if i < 0 {
		return -1
	}
	return i + len(statementTerminator)
}

// Next returns the next statement in the file, up to and including its
// ";\n" terminator. eof is true once the underlying reader has nothing
// left; stmt may still be non-empty on the call where eof becomes true,
// for a final statement missing its trailing terminator. Any bytes already
// read past the returned statement are retained for the next call.
func (r *Reader) Next() (stmt string, eof bool, err error) {
	for {
		if end := terminatorEnd(r.buf); end >= 0 {
			stmt = string(r.buf[:end])
			r.buf = r.buf[end:]
			return stmt, false, nil
		}
		if r.sawEOF {
			stmt = string(r.buf)
			r.buf = nil
			return stmt, true, nil
		}
		n, rerr := r.src.Read(r.chunk[:])
		if n > 0 {
			r.buf = append(r.buf, r.chunk[:n]...)
		}
		if rerr == io.EOF {
			r.sawEOF = true
			continue
		}
		if rerr != nil {
			return "", false, rerr
		}
	}
}
