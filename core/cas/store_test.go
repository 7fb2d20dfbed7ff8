package cas

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// emptyDigest is the BLAKE3-256 digest of zero bytes.
const emptyDigest = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

func TestDigest(t *testing.T) {
	if got := Digest(nil); got != emptyDigest {
		t.Errorf("Digest(nil) = %s, want %s", got, emptyDigest)
	}

	data := []byte("For God so loved the world")
	got, n, err := DigestReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != Digest(data) || n != int64(len(data)) {
		t.Errorf("DigestReader() = %s, %d; want %s, %d", got, n, Digest(data), len(data))
	}

	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if got, _, err := DigestFile(path); err != nil || got != Digest(data) {
		t.Errorf("DigestFile() = %s, %v", got, err)
	}
	if _, _, err := DigestFile(path + ".missing"); err == nil {
		t.Error("DigestFile(missing) should fail")
	}
}

// TestStoreAndOpen tests that storing a blob returns its digest and that
// opening by digest returns the same bytes.
func TestStoreAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	data := []byte("\x89PNG fake image bytes")
	digest, err := store.Put(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if digest != Digest(data) {
		t.Errorf("Put() = %s, want %s", digest, Digest(data))
	}
	if !store.Exists(digest) {
		t.Error("Exists() = false after Put")
	}

	f, err := store.Open(digest)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, _ := io.ReadAll(f)
	f.Close()
	if !bytes.Equal(got, data) {
		t.Errorf("Open() content = %q", got)
	}

	again, err := store.Put(bytes.NewReader(data))
	if err != nil || again != digest {
		t.Errorf("duplicate Put() = %s, %v", again, err)
	}

	entries, _ := os.ReadDir(filepath.Join(store.root, "blobs", "blake3"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".blob-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestPutFile(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(filepath.Join(dir, "cas"))
	path := filepath.Join(dir, "img.png")
	if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	digest, err := store.PutFile(path)
	if err != nil || digest != Digest([]byte("png")) {
		t.Errorf("PutFile() = %s, %v", digest, err)
	}
	if _, err := store.PutFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("PutFile(missing) should fail")
	}
}

func TestOpenErrors(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Open(emptyDigest); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrBlobNotFound", err)
	}
	for _, bad := range []string{"", "abc", strings.ToUpper(emptyDigest), "../" + emptyDigest[3:]} {
		if _, err := store.Open(bad); !errors.Is(err, ErrInvalidDigest) {
			t.Errorf("Open(%q) error = %v, want ErrInvalidDigest", bad, err)
		}
		if store.Exists(bad) {
			t.Errorf("Exists(%q) = true", bad)
		}
	}
}

func TestPutRenameError(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	orig := osRename
	osRename = func(string, string) error { return errors.New("rename failed") }
	defer func() { osRename = orig }()

	if _, err := store.Put(strings.NewReader("x")); err == nil || !strings.Contains(err.Error(), "rename failed") {
		t.Errorf("Put() error = %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestPutReadError(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Put(failingReader{}); err == nil {
		t.Error("Put() should fail when the reader fails")
	}
	if _, _, err := DigestReader(failingReader{}); err == nil {
		t.Error("DigestReader() should fail when the reader fails")
	}
}
