package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/ulikunitz/xz"
)

// Writer produces a tar.xz stream.
type Writer struct {
	xw      *xz.Writer
	tw      *tar.Writer
	modTime time.Time
}

// NewWriter creates a tar.xz writer on w. Every entry is stamped with
// modTime so identical content yields identical archives.
func NewWriter(w io.Writer, modTime time.Time) (*Writer, error) {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	return &Writer{xw: xw, tw: tar.NewWriter(xw), modTime: modTime.UTC()}, nil
}

// Add writes one regular file entry of the given size from r.
func (w *Writer) Add(name string, size int64, r io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     size,
		ModTime:  w.modTime,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := io.CopyN(w.tw, r, size); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// AddBytes writes data as a regular file entry.
func (w *Writer) AddBytes(name string, data []byte) error {
	return w.Add(name, int64(len(data)), bytes.NewReader(data))
}

// Close flushes the tar stream and then the xz stream.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.xw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	if err := w.xw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}
