package validation

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"Easter Study", nil},
		{"Römerbrief ✝", nil},
		{"", ErrEmptyName},
		{"   ", ErrEmptyName},
		{strings.Repeat("a", MaxNameLength+1), ErrNameTooLong},
		{"bad\x00name", ErrInvalidCharacter},
		{"tab\tname", ErrInvalidCharacter},
		{"\xff\xfe", ErrInvalidCharacter},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateName(%q) error = %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateName(%q) error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath("out/images"); err != nil {
		t.Errorf("ValidatePath() error = %v", err)
	}
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyPath},
		{" ", ErrEmptyPath},
		{"a\x00b", ErrInvalidCharacter},
		{strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
	}
	for _, tt := range tests {
		if err := ValidatePath(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("ValidatePath(%.20q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestResolveOutputDir(t *testing.T) {
	root := t.TempDir()

	t.Run("relative inside root", func(t *testing.T) {
		got, err := ResolveOutputDir(root, "studies/easter")
		if err != nil || got != filepath.Join(root, "studies", "easter") {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("absolute inside root", func(t *testing.T) {
		in := filepath.Join(root, "a")
		got, err := ResolveOutputDir(root, in)
		if err != nil || got != in {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("root itself", func(t *testing.T) {
		if got, err := ResolveOutputDir(root, "."); err != nil || got != root {
			t.Errorf("got %q, %v", got, err)
		}
	})

	for _, bad := range []string{"../escape", "a/../../b", filepath.Join(filepath.Dir(root), "sibling")} {
		if _, err := ResolveOutputDir(root, bad); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("ResolveOutputDir(%q) error = %v, want traversal", bad, err)
		}
	}

	t.Run("no root", func(t *testing.T) {
		got, err := ResolveOutputDir("", "rel/dir")
		if err != nil || !filepath.IsAbs(got) || !strings.HasSuffix(got, filepath.Join("rel", "dir")) {
			t.Errorf("got %q, %v", got, err)
		}
	})

	if _, err := ResolveOutputDir(root, ""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path error = %v", err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want FileType
	}{
		{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0, 1}, FileTypeXZ},
		{"gzip", []byte{0x1f, 0x8b, 8}, FileTypeGzip},
		{"zip", []byte("PK\x03\x04rest"), FileTypeZip},
		{"png", []byte("\x89PNG\r\n\x1a\nIHDR"), FileTypePNG},
		{"pdf", []byte("%PDF-1.7"), FileTypePDF},
		{"sqlite", []byte("SQLite format 3\x00"), FileTypeSQLite},
		{"ascii", []byte("John 3:16\nGen 1:1-3\n"), FileTypeText},
		{"greek", []byte("Ἰωάννης Ματθαῖος"), FileTypeText},
		{"binary", []byte{1, 2, 3, 4, 5}, FileTypeUnknown},
		{"empty", nil, FileTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.buf); got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTextUpload(t *testing.T) {
	content := strings.Repeat("Romans 8:28\n", 100)
	r, err := TextUpload(strings.NewReader(content))
	if err != nil {
		t.Fatalf("TextUpload() error = %v", err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != content {
		t.Error("TextUpload() lost content")
	}

	if r, err := TextUpload(bytes.NewReader(nil)); err != nil {
		t.Errorf("empty upload error = %v", err)
	} else if got, _ := io.ReadAll(r); len(got) != 0 {
		t.Errorf("empty upload yielded %q", got)
	}

	if _, err := TextUpload(bytes.NewReader([]byte("\x89PNG\r\n\x1a\n...."))); !errors.Is(err, ErrNotText) {
		t.Errorf("png upload error = %v", err)
	}
}

func TestTrimPartialRune(t *testing.T) {
	s := []byte("αβ")
	if got := trimPartialRune(s[:len(s)-1]); string(got) != "α" {
		t.Errorf("trimPartialRune() = %q", got)
	}
}
