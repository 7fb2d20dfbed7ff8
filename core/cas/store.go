// Package cas provides content-addressed storage for rendered images.
// Blobs are keyed by their BLAKE3 digest, so identical renders are stored
// once and a digest doubles as an HTTP entity tag.
package cas

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/zeebo/blake3"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// ErrBlobNotFound is returned when a blob with the given digest does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidDigest is returned when a digest is not 64 lowercase hex characters.
var ErrInvalidDigest = errors.New("invalid digest format")

var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// DigestReader hashes r to EOF and returns the digest and byte count.
func DigestReader(r io.Reader) (string, int64, error) {
	h := blake3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// DigestFile hashes the file at path.
func DigestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return DigestReader(f)
}

// ValidDigest reports whether s is a well-formed digest.
func ValidDigest(s string) bool {
	return digestPattern.MatchString(s)
}

// Store is a directory of blobs laid out as <root>/blobs/blake3/<first2>/<digest>.
type Store struct {
	root string
}

// NewStore creates the store directory structure under root.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "blake3"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Put streams r into the store and returns its digest. Storing content that
// is already present is a no-op.
func (s *Store) Put(r io.Reader) (string, error) {
	tmpDir := filepath.Join(s.root, "blobs", "blake3")
	tmp, err := os.CreateTemp(tmpDir, ".blob-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	h := blake3.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	digest := hex.EncodeToString(h.Sum(nil))
	if s.Exists(digest) {
		return digest, nil
	}
	blobPath := s.Path(digest)
	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create prefix directory: %w", err)
	}
	if err := osRename(tmpPath, blobPath); err != nil {
		return "", fmt.Errorf("failed to rename blob: %w", err)
	}
	return digest, nil
}

// PutFile stores the file at path.
func (s *Store) PutFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.Put(f)
}

// Open opens the blob with the given digest.
func (s *Store) Open(digest string) (*os.File, error) {
	if !ValidDigest(digest) {
		return nil, ErrInvalidDigest
	}
	f, err := os.Open(s.Path(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Exists reports whether the blob is present.
func (s *Store) Exists(digest string) bool {
	if !ValidDigest(digest) {
		return false
	}
	_, err := os.Stat(s.Path(digest))
	return err == nil
}

// Path returns the file path for a digest. The digest must be valid.
func (s *Store) Path(digest string) string {
	return filepath.Join(s.root, "blobs", "blake3", digest[:2], digest)
}
