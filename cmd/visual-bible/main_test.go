package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/config"
)

// Test helper functions

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func testGlobals(t *testing.T, store string) *config.Globals {
	t.Helper()
	dir := t.TempDir()
	corpus := createTestFile(t, dir, "corpus.csv", "book,chapter,verse,text\n"+
		"Genesis,1,1,In the beginning God created the heaven and the earth.\n"+
		"John,3,16,For God so loved the world\n"+
		"John,3,17,For God sent not his Son into the world to condemn the world\n")
	return &config.Globals{
		LogLevel:          "error",
		LogFormat:         "text",
		DataDir:           filepath.Join(dir, "data"),
		Store:             store,
		Corpus:            corpus,
		ParallelThreshold: 256,
		Snapshots:         true,
	}
}

var idLine = regexp.MustCompile(`(?m)^id: (\S+)$`)

func TestVersionCmd_Run(t *testing.T) {
	out := captureOutput(t)
	if err := (&VersionCmd{}).Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "visual-bible version "+version+"\n" {
		t.Errorf("output = %q", got)
	}
}

func TestBooksCmd_Run(t *testing.T) {
	out := captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	if err := (&BooksCmd{}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 66 {
		t.Fatalf("got %d books, want 66", len(lines))
	}
	if !strings.Contains(lines[42], "John") || !strings.Contains(lines[42], "21") {
		t.Errorf("book 43 = %q", lines[42])
	}

	out.Reset()
	if err := (&BooksCmd{JSON: true}).Run(g); err != nil {
		t.Fatalf("Run(JSON) error = %v", err)
	}
	var books []map[string]any
	if err := json.Unmarshal(out.Bytes(), &books); err != nil || len(books) != 66 {
		t.Errorf("JSON books: %d, err %v", len(books), err)
	}
}

func TestResolveCmd_Run(t *testing.T) {
	out := captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	cmd := &ResolveCmd{Text: []string{"John 3:16-17", "Hezekiah 1:1"}}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"John 3:16\n", "John 3:17\n", "error: line 2 \"Hezekiah 1:1\""} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestResolveCmd_Run_File(t *testing.T) {
	out := captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	file := createTestFile(t, t.TempDir(), "refs.txt", "Gen 1:1\n")
	cmd := &ResolveCmd{File: file, Text: []string{"Jn 3:16"}, JSON: true}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	var res resolveOutput
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(res.References, ",") != "Genesis 1:1,John 3:16" || res.Candidates != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestResolveCmd_Run_NothingResolved(t *testing.T) {
	out := captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	err := (&ResolveCmd{Text: []string{"John 99:1"}, JSON: true}).Run(g)
	if !errors.Is(err, errors.ErrNoReferencesResolved) {
		t.Fatalf("Run() error = %v, want ErrNoReferencesResolved", err)
	}
	var res resolveOutput
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.References) != 0 || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestResolveCmd_Run_BinaryFile(t *testing.T) {
	captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	file := createTestFile(t, t.TempDir(), "refs.txt", "\x89PNG\r\n\x1a\n\x00\x00")
	var verr *errors.ValidationError
	if err := (&ResolveCmd{File: file}).Run(g); !errors.As(err, &verr) {
		t.Errorf("Run() error = %v, want ValidationError", err)
	}
}

func TestGenerateCmd_Run_ProjectLifecycle(t *testing.T) {
	for _, store := range []string{config.StoreJSON, config.StoreSQLite} {
		t.Run(store, func(t *testing.T) {
			out := captureOutput(t)
			g := testGlobals(t, store)
			outDir := t.TempDir()

			gen := &GenerateCmd{Name: "Sermon Notes", Output: outDir, Text: "John 3:16\nRomans 8:28\nJude 9:9"}
			if err := gen.Run(g); err != nil {
				t.Fatalf("generate error = %v", err)
			}
			got := out.String()
			for _, want := range []string{"error: line 3", "warning: verse Romans 8:28 not found on rendered page", "references: 2"} {
				if !strings.Contains(got, want) {
					t.Errorf("generate output missing %q:\n%s", want, got)
				}
			}
			m := idLine.FindStringSubmatch(got)
			if m == nil {
				t.Fatalf("no id in output:\n%s", got)
			}
			id := m[1]
			image := filepath.Join(outDir, "Sermon_Notes.png")
			if _, err := os.Stat(image); err != nil {
				t.Fatalf("image not written: %v", err)
			}
			if _, err := os.Stat(g.ResolvedBaseImage()); err != nil {
				t.Errorf("base image not generated: %v", err)
			}

			out.Reset()
			if err := (&ProjectsListCmd{}).Run(g); err != nil {
				t.Fatalf("list error = %v", err)
			}
			if !strings.Contains(out.String(), id) || !strings.Contains(out.String(), "Sermon Notes") {
				t.Errorf("list output:\n%s", out)
			}

			out.Reset()
			if err := (&ProjectsShowCmd{ID: id}).Run(g); err != nil {
				t.Fatalf("show error = %v", err)
			}
			var rec struct {
				ID         string   `json:"id"`
				References []string `json:"references"`
			}
			if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
				t.Fatalf("decode show: %v", err)
			}
			if rec.ID != id || strings.Join(rec.References, ",") != "John 3:16,Romans 8:28" {
				t.Errorf("record = %+v", rec)
			}

			bundle := filepath.Join(t.TempDir(), "notes.tar.xz")
			if err := (&ProjectsExportCmd{ID: id, Out: bundle}).Run(g); err != nil {
				t.Fatalf("export error = %v", err)
			}

			if err := (&ProjectsDeleteCmd{ID: id}).Run(g); err != nil {
				t.Fatalf("delete error = %v", err)
			}
			var nf *errors.NotFoundError
			if err := (&ProjectsShowCmd{ID: id}).Run(g); !errors.As(err, &nf) {
				t.Errorf("show after delete error = %v, want NotFoundError", err)
			}

			if err := os.Remove(image); err != nil {
				t.Fatal(err)
			}
			out.Reset()
			if err := (&ProjectsImportCmd{Bundle: bundle}).Run(g); err != nil {
				t.Fatalf("import error = %v", err)
			}
			if !strings.Contains(out.String(), "imported "+id) {
				t.Errorf("import output = %q", out)
			}
			if _, err := os.Stat(image); err != nil {
				t.Errorf("import did not restore image: %v", err)
			}
			if err := (&ProjectsShowCmd{ID: id}).Run(g); err != nil {
				t.Errorf("show after import error = %v", err)
			}
		})
	}
}

func TestGenerateCmd_Run_NothingResolved(t *testing.T) {
	out := captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	err := (&GenerateCmd{Name: "Empty", Output: t.TempDir(), Text: "Nope 1:1"}).Run(g)
	if !errors.Is(err, errors.ErrNoReferencesResolved) {
		t.Fatalf("Run() error = %v, want ErrNoReferencesResolved", err)
	}
	if !strings.Contains(out.String(), "error: line 1") {
		t.Errorf("output = %q", out)
	}
}

func TestGenerateCmd_Run_OutputRoot(t *testing.T) {
	captureOutput(t)
	g := testGlobals(t, config.StoreJSON)
	g.OutputRoot = t.TempDir()
	var verr *errors.ValidationError
	err := (&GenerateCmd{Name: "Escape", Output: "../../etc", Text: "John 3:16"}).Run(g)
	if !errors.As(err, &verr) || verr.Field != "outputPath" {
		t.Errorf("Run() error = %v, want outputPath ValidationError", err)
	}
}

func TestServeCmd_Config(t *testing.T) {
	cmd := &ServeCmd{Port: 9000, RateLimit: 30, RateBurst: 5, APIKey: "0123456789abcdef", MaxUpload: 1024}
	cfg := cmd.config()
	if cfg.Port != 9000 || cfg.Version != version || cfg.RateLimitRequests != 30 || cfg.RateLimitBurst != 5 {
		t.Errorf("config = %+v", cfg)
	}
	if !cfg.Auth.Enabled || cfg.TLS.Enabled || cfg.MaxUploadSize != 1024 {
		t.Errorf("auth/tls = %+v / %+v", cfg.Auth, cfg.TLS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	cmd.APIKey = "short"
	if err := cmd.Run(testGlobals(t, config.StoreJSON)); err == nil {
		t.Error("Run() accepted a short API key")
	}
}
