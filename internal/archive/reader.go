// Package archive reads and writes the compressed tar bundles used to move
// projects between installations. Bundles are written as tar.xz; tar.gz is
// accepted on read.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ulikunitz/xz"
)

var (
	// ErrUnsupportedFormat is returned for streams that are neither xz nor gzip.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrUnsafeName is returned for entry names that could escape a directory.
	ErrUnsafeName = errors.New("unsafe entry name")
	// ErrEntryTooLarge is returned when an entry exceeds the reader's limit.
	ErrEntryTooLarge = errors.New("archive entry too large")
)

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	decompressor io.Closer
}

// NewReader sniffs the compression of r and returns a tar reader over the
// decompressed stream.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && len(head) < len(gzipMagic) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	switch {
	case bytes.HasPrefix(head, xzMagic):
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return &Reader{Reader: tar.NewReader(xzr)}, nil
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &Reader{Reader: tar.NewReader(gzr), decompressor: gzr}, nil
	}
	return nil, ErrUnsupportedFormat
}

// Close releases the decompressor, if it holds resources.
func (r *Reader) Close() error {
	if r.decompressor != nil {
		return r.decompressor.Close()
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks the regular file entries of the archive. Entries with
// unsafe names fail the walk.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if err := checkName(header.Name); err != nil {
			return err
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// ReadAll collects every regular file into memory, keyed by entry name.
// Entries larger than maxEntry bytes fail with ErrEntryTooLarge.
func ReadAll(r io.Reader, maxEntry int64) (map[string][]byte, error) {
	ar, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer ar.Close()

	files := make(map[string][]byte)
	err = ar.Iterate(func(h *tar.Header, content io.Reader) (bool, error) {
		if h.Size > maxEntry {
			return false, fmt.Errorf("%w: %s is %d bytes", ErrEntryTooLarge, h.Name, h.Size)
		}
		data, err := io.ReadAll(io.LimitReader(content, maxEntry))
		if err != nil {
			return false, fmt.Errorf("read %s: %w", h.Name, err)
		}
		files[h.Name] = data
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	clean := path.Clean(name)
	if clean != name || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return nil
}
