package xmldict

import (
	"compress/gzip"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Source is an opened dictionary file. Reads are decompressed by extension (.gz, .xz) and the raw
// bytes are hashed on the way.
type Source struct {
	Path    string
	reader  io.Reader
	raw     io.Reader
	hash    *blake3.Hasher
	closers []func() error
}

// Open opens path for reading.
func Open(path string) (*Source, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	h := blake3.New()
	raw := io.TeeReader(f, h)
	src := &Source{Path: path, reader: raw, raw: raw, hash: h, closers: []func() error{f.Close}}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		gr, err := gzip.NewReader(raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		src.reader = gr
		src.closers = append([]func() error{gr.Close}, src.closers...)
	case strings.HasSuffix(lower, ".xz"):
		xr, err := xz.NewReader(raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz %s: %w", path, err)
		}
		src.reader = xr
	}
	return src, nil
}

func (s *Source) Read(p []byte) (int, error) { return s.reader.Read(p) }

// Digest drains whatever the parser left unread and returns the blake3 sum of the file as hex.
func (s *Source) Digest() (string, error) {
	if _, err := io.Copy(io.Discard, s.raw); err != nil {
		return "", fmt.Errorf("hash %s: %w", s.Path, err)
	}
	return hex.EncodeToString(s.hash.Sum(nil)), nil
}

func (s *Source) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
