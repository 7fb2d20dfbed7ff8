// Package validation checks user-supplied project names, output locations
// and uploaded files before they reach the filesystem.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits applied to user input (CWE-400).
const (
	// MaxUploadSize bounds an uploaded passages file (8 MB).
	MaxUploadSize = 8 << 20
	// MaxBundleSize bounds an imported project bundle (256 MB).
	MaxBundleSize = 256 << 20
	// MaxNameLength is the maximum project name length in bytes.
	MaxNameLength = 200
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name too long")
	ErrNotText          = errors.New("file is not plain text")
)

// ValidateName checks a project name. Names are free text; only blank
// names, overlong names and control characters are rejected.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidCharacter)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidatePath performs path validation without requiring a base directory.
// It checks length limits and invalid characters.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ResolveOutputDir turns a user-supplied output directory into an absolute
// path. When root is non-empty the result must stay inside root; relative
// paths are taken relative to root. Without a root any valid path is
// accepted, relative paths resolving against the working directory.
func ResolveOutputDir(root, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}
	if root == "" {
		return filepath.Abs(userPath)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output root: %w", err)
	}
	target := userPath
	if !filepath.IsAbs(target) {
		target = filepath.Join(absRoot, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrPathTraversal, userPath, absRoot)
	}
	return target, nil
}

// FileType is a coarse content classification from leading bytes.
type FileType string

const (
	FileTypeXZ      FileType = "xz"
	FileTypeGzip    FileType = "gzip"
	FileTypeZip     FileType = "zip"
	FileTypePNG     FileType = "png"
	FileTypePDF     FileType = "pdf"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

// sniffLen is how many leading bytes Detect needs.
const sniffLen = 512

var magicBytes = []struct {
	fileType FileType
	magic    []byte
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{FileTypePNG, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}},
	{FileTypePDF, []byte("%PDF-")},
	{FileTypeSQLite, []byte("SQLite format 3")},
}

// Detect classifies buf, the first bytes of a file.
func Detect(buf []byte) FileType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.fileType
		}
	}
	if isLikelyText(buf) {
		return FileTypeText
	}
	return FileTypeUnknown
}

// TextUpload checks that r starts like a plain text file and returns a
// reader yielding the full content, including the inspected prefix. An
// empty upload is accepted.
func TextUpload(r io.Reader) (io.Reader, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	buf = buf[:n]
	if n > 0 {
		if ft := Detect(buf); ft != FileTypeText {
			return nil, fmt.Errorf("%w: looks like %s", ErrNotText, ft)
		}
	}
	return io.MultiReader(bytes.NewReader(buf), r), nil
}

// isLikelyText reports whether buf appears to be UTF-8 or ASCII text.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable, control := 0, 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// bytes >= 0x80 are UTF-8 sequences and count for neither side
	}
	if printable == 0 {
		// Entirely non-ASCII text, such as a Greek or Hebrew list.
		return control == 0 && utf8.Valid(trimPartialRune(buf))
	}
	return float64(printable)/float64(printable+control) > 0.95
}

// trimPartialRune drops a multi-byte sequence cut off by the sniff window.
func trimPartialRune(buf []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(buf) > 0; i++ {
		if utf8.Valid(buf) {
			return buf
		}
		buf = buf[:len(buf)-1]
	}
	return buf
}
