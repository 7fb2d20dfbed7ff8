package project

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/cas"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/archive"
	"github.com/jnthodge/visual-bible/internal/layout"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/textsource"
)

type memStore struct {
	mu      sync.Mutex
	records []*Record
}

func (m *memStore) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(slices.DeleteFunc(m.records, rec.Supersedes), rec)
	return nil
}

func (m *memStore) List(context.Context) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records), nil
}

func (m *memStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.NewNotFound("project", id)
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	m.records = slices.DeleteFunc(m.records, func(r *Record) bool { return r.ID == id })
	if len(m.records) == n {
		return errors.NewNotFound("project", id)
	}
	return nil
}

func (m *memStore) Close() error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Progress(op, stage, _ string, _ int) { n.add(op + ":" + stage) }
func (n *recordingNotifier) Complete(op, _ string, _ map[string]any) {
	n.add(op + ":complete")
}
func (n *recordingNotifier) Fail(op, _ string) { n.add(op + ":error") }
func (n *recordingNotifier) add(e string) {
	n.mu.Lock()
	n.events = append(n.events, e)
	n.mu.Unlock()
}

type countingObserver struct {
	resolutions, renders, misses, created int
}

func (o *countingObserver) ObserveResolution(*scripture.Resolution, time.Duration) { o.resolutions++ }
func (o *countingObserver) ObserveRender(time.Duration)                            { o.renders++ }
func (o *countingObserver) ObserveHighlightMisses(n int)                           { o.misses += n }
func (o *countingObserver) ObserveProjectCreated()                                 { o.created++ }

type fixture struct {
	svc      *Service
	store    *memStore
	notifier *recordingNotifier
	observer *countingObserver
	blobs    *cas.Store
	root     string
}

// newFixture lays out only John 3:1-18 and Genesis 1:1, so other verses
// resolve but are missing from the page.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	idx := canon.MustKJV()
	var verses []textsource.Verse
	verses = append(verses, textsource.Verse{ID: scripture.VerseID{Book: 1, Chapter: 1, Verse: 1}, Text: "In the beginning"})
	for v := 1; v <= 18; v++ {
		verses = append(verses, textsource.Verse{ID: scripture.VerseID{Book: 43, Chapter: 3, Verse: v}, Text: "text"})
	}
	page, err := layout.Build(idx, textsource.NewCorpus(verses))
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	renderer := render.New(page, filepath.Join(dir, "base.png"))
	if _, err := renderer.EnsureBase(); err != nil {
		t.Fatal(err)
	}
	blobs, err := cas.NewStore(filepath.Join(dir, "cas"))
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		store:    &memStore{},
		notifier: &recordingNotifier{},
		observer: &countingObserver{},
		blobs:    blobs,
		root:     filepath.Join(dir, "out"),
	}
	ids := 0
	base := []Option{
		WithNotifier(f.notifier),
		WithObserver(f.observer),
		WithBlobStore(blobs),
		WithOutputRoot(f.root),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 123, time.UTC) }),
	}
	f.svc = NewService(scripture.NewResolver(idx), page, renderer, f.store, append(base, opts...)...)
	f.svc.newID = func() string {
		ids++
		return []string{
			"7d3f9a52-1111-4c1e-9d8e-000000000001",
			"7d3f9a52-1111-4c1e-9d8e-000000000002",
			"7d3f9a52-1111-4c1e-9d8e-000000000003",
		}[ids-1]
	}
	return f
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, Submission{
		Name:       "Easter Study",
		OutputPath: "studies",
		File:       strings.NewReader("John 3:16-17\nGen 1:1\nNotABook 1:1\n"),
		Text:       "Jn 3:16; Romans 8:28",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	rec := res.Record
	if res.Message != CreatedMessage || rec.ID == "" {
		t.Errorf("Result = %+v", res)
	}

	wantRefs := []string{"John 3:16", "John 3:17", "Genesis 1:1", "Romans 8:28"}
	if !slices.Equal(rec.References, wantRefs) {
		t.Errorf("References = %v, want %v", rec.References, wantRefs)
	}
	if len(rec.Highlights) != 3 {
		t.Errorf("Highlights = %d, want 3", len(rec.Highlights))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "Romans 8:28") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if len(res.Errors) != 1 || res.Errors[0].Source != 0 || res.Errors[0].Line != 3 {
		t.Errorf("Errors = %v", res.Errors)
	}

	wantPath := filepath.Join(f.root, "studies", "Easter_Study.png")
	if rec.ImagePath != wantPath {
		t.Errorf("ImagePath = %s, want %s", rec.ImagePath, wantPath)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if rec.ImageDigest != cas.Digest(data) || !f.blobs.Exists(rec.ImageDigest) {
		t.Error("image digest not stored")
	}
	if rec.CreatedAt != time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}

	if got, err := f.svc.Get(ctx, rec.ID); err != nil || got != rec {
		t.Errorf("Get() = %v, %v", got, err)
	}
	wantEvents := []string{"generate:resolve", "generate:render", "generate:save", "generate:complete"}
	if !slices.Equal(f.notifier.events, wantEvents) {
		t.Errorf("events = %v", f.notifier.events)
	}
	if o := f.observer; o.resolutions != 1 || o.renders != 1 || o.misses != 1 || o.created != 1 {
		t.Errorf("observer = %+v", o)
	}
}

func TestCreateSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := Submission{Name: "Study", OutputPath: "out", Text: "John 3:16"}
	if _, err := f.svc.Create(ctx, sub); err != nil {
		t.Fatal(err)
	}
	sub.Text = "John 3:17"
	res, err := f.svc.Create(ctx, sub)
	if err != nil {
		t.Fatal(err)
	}
	list, _ := f.svc.List(ctx)
	if len(list) != 1 || list[0].ID != res.Record.ID || list[0].References[0] != "John 3:17" {
		t.Errorf("List() = %v", list)
	}
}

func TestCreateNothingResolved(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Create(context.Background(), Submission{
		Name: "Empty", OutputPath: "out", Text: "Hezekiah 1:1\nJohn 3:99",
	})
	if !errors.Is(err, errors.ErrNoReferencesResolved) {
		t.Fatalf("Create() error = %v", err)
	}
	if res == nil || res.Record != nil || len(res.Errors) != 2 {
		t.Fatalf("Result = %+v", res)
	}
	if !errors.Is(res.Errors[0], errors.ErrUnknownBook) || !errors.Is(res.Errors[1], errors.ErrVerseOutOfRange) {
		t.Errorf("Errors = %v", res.Errors)
	}
	if list, _ := f.svc.List(context.Background()); len(list) != 0 {
		t.Error("record saved despite no references")
	}
	if last := f.notifier.events[len(f.notifier.events)-1]; last != "generate:error" {
		t.Errorf("last event = %s", last)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		sub   Submission
		field string
	}{
		{"blank name", Submission{Name: "  ", OutputPath: "out", Text: "John 3:16"}, "name"},
		{"blank output", Submission{Name: "x", OutputPath: "", Text: "John 3:16"}, "outputPath"},
		{"escaping output", Submission{Name: "x", OutputPath: "../../etc", Text: "John 3:16"}, "outputPath"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.sub)
			var ve *errors.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("Create() error = %v, want validation of %s", err, tt.field)
			}
		})
	}
}

func TestDeleteAndOpenImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, Submission{Name: "Img", OutputPath: "out", Text: "John 3:16"})
	if err != nil {
		t.Fatal(err)
	}
	id := res.Record.ID

	img, err := f.svc.OpenImage(ctx, id)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	img.Close()
	if img.Digest != res.Record.ImageDigest || img.Size == 0 {
		t.Errorf("Image = %+v", img)
	}
	img, err = f.svc.OpenImage(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	img.Close()
	if st := f.svc.DigestStats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("DigestStats() = %+v, want one miss then one hit", st)
	}

	// The blob store copy is served once the file is gone.
	if err := os.Remove(res.Record.ImagePath); err != nil {
		t.Fatal(err)
	}
	img, err = f.svc.OpenImage(ctx, id)
	if err != nil {
		t.Fatalf("OpenImage() from blobs error = %v", err)
	}
	img.Close()

	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.svc.Delete(ctx, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if _, err := f.svc.OpenImage(ctx, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("OpenImage() after delete error = %v", err)
	}
}

func TestOpenImageWithoutBlobs(t *testing.T) {
	f := newFixture(t, WithBlobStore(nil))
	ctx := context.Background()
	res, err := f.svc.Create(ctx, Submission{Name: "NoBlobs", OutputPath: "out", Text: "Gen 1:1"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(res.Record.ImagePath)
	if res.Record.ImageDigest != cas.Digest(data) {
		t.Error("digest does not match file")
	}
	os.Remove(res.Record.ImagePath)
	if _, err := f.svc.OpenImage(ctx, res.Record.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("OpenImage() error = %v, want not found", err)
	}
}

func TestExportImport(t *testing.T) {
	src := newFixture(t)
	ctx := context.Background()
	res, err := src.svc.Create(ctx, Submission{Name: "Portable", OutputPath: "trip", Text: "John 3:16-18"})
	if err != nil {
		t.Fatal(err)
	}

	var bundle bytes.Buffer
	if err := src.svc.Export(ctx, res.Record.ID, &bundle); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := src.svc.Export(ctx, "missing", &bytes.Buffer{}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Export(missing) error = %v", err)
	}

	dst := newFixture(t)
	rec, err := dst.svc.Import(ctx, bytes.NewReader(bundle.Bytes()))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if rec.ID != res.Record.ID || !slices.Equal(rec.References, res.Record.References) {
		t.Errorf("imported record = %+v", rec)
	}
	if rec.ImagePath != filepath.Join(dst.root, "trip", "Portable.png") {
		t.Errorf("ImagePath = %s", rec.ImagePath)
	}
	data, err := os.ReadFile(rec.ImagePath)
	if err != nil || cas.Digest(data) != res.Record.ImageDigest {
		t.Errorf("imported image digest mismatch: %v", err)
	}
	if !dst.blobs.Exists(rec.ImageDigest) {
		t.Error("imported image not in blob store")
	}
	if got, err := dst.svc.Get(ctx, rec.ID); err != nil || got.Name != "Portable" {
		t.Errorf("Get() after import = %v, %v", got, err)
	}
	for i, h := range rec.Highlights {
		if h.ID != res.Record.Highlights[i].ID {
			t.Errorf("highlight %d ID = %v, want %v", i, h.ID, res.Record.Highlights[i].ID)
		}
	}
}

func bundleOf(t *testing.T, record string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := archive.NewWriter(&buf, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	if err := w.AddBytes(BundleRecord, []byte(record)); err != nil {
		t.Fatal(err)
	}
	if err := w.AddBytes(BundleImage, png); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImportRestoresVerseIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy := `{"id":"7d3f9a52-2222-4c1e-9d8e-000000000009","name":"Old","outputPath":"old",
		"references":["John 3:16","Genesis 1:1"],
		"highlights":[{"verse":"John 3:16","text":"t","x":1,"y":2,"width":3,"height":4},
		              {"verse":"Genesis 1:1","text":"t","x":5,"y":6,"width":7,"height":8}]}`
	rec, err := f.svc.Import(ctx, bytes.NewReader(bundleOf(t, legacy)))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := []scripture.VerseID{{Book: 43, Chapter: 3, Verse: 16}, {Book: 1, Chapter: 1, Verse: 1}}
	for i, h := range rec.Highlights {
		if h.ID != want[i] {
			t.Errorf("highlight %d ID = %v, want %v", i, h.ID, want[i])
		}
	}

	broken := strings.Replace(legacy, `"verse":"John 3:16"`, `"verse":"Nowhere 3:16"`, 1)
	var ve *errors.ValidationError
	if _, err := f.svc.Import(ctx, bytes.NewReader(bundleOf(t, broken))); !errors.As(err, &ve) || ve.Field != "highlights" {
		t.Errorf("Import(unparseable verse) error = %v, want highlights validation", err)
	}
}

func TestImportRejects(t *testing.T) {
	f := newFixture(t)
	for name, body := range map[string][]byte{
		"not an archive": []byte("hello"),
		"empty":          nil,
	} {
		_, err := f.svc.Import(context.Background(), bytes.NewReader(body))
		var ve *errors.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: Import() error = %v, want validation", name, err)
		}
	}
}
