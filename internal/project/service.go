package project

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jnthodge/visual-bible/core/cache"
	"github.com/jnthodge/visual-bible/core/cas"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/logging"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/validation"
)

const operation = "generate"

// Service coordinates resolution, rendering and storage of projects.
type Service struct {
	resolver   *scripture.Resolver
	locator    scripture.Locator
	renderer   Renderer
	store      Store
	blobs      *cas.Store
	digests    *cache.DigestCache
	notifier   Notifier
	observer   Observer
	outputRoot string
	now        func() time.Time
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sends progress updates to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithObserver reports pipeline measurements to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithBlobStore keeps a content-addressed copy of every rendered image.
func WithBlobStore(b *cas.Store) Option {
	return func(s *Service) { s.blobs = b }
}

// WithOutputRoot confines output paths to root.
func WithOutputRoot(root string) Option {
	return func(s *Service) { s.outputRoot = root }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a project service.
func NewService(resolver *scripture.Resolver, locator scripture.Locator, renderer Renderer, store Store, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		locator:  locator,
		renderer: renderer,
		store:    store,
		digests:  cache.NewDigestCache(256),
		notifier: nopNotifier{},
		observer: nopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create resolves the submission, renders the highlighted image, binds
// highlight regions and saves the record. Lines that fail to resolve are
// reported in Result.Errors; verses missing from the page become warnings.
// When nothing resolves the returned error wraps ErrNoReferencesResolved
// and the Result carries the line errors.
func (s *Service) Create(ctx context.Context, sub Submission) (*Result, error) {
	name := strings.TrimSpace(sub.Name)
	if err := validation.ValidateName(sub.Name); err != nil {
		return nil, errors.NewValidation("name", err.Error())
	}
	dir, err := validation.ResolveOutputDir(s.outputRoot, sub.OutputPath)
	if err != nil {
		return nil, errors.NewValidation("outputPath", err.Error())
	}

	var fileText string
	if sub.File != nil {
		data, err := io.ReadAll(sub.File)
		if err != nil {
			return nil, errors.NewIO("read", "passagesFile", err)
		}
		fileText = string(data)
	}

	s.notifier.Progress(operation, "resolve", "Resolving references", 10)
	start := time.Now()
	res, err := s.resolver.Resolve(ctx, fileText, sub.Text)
	if res != nil {
		s.observer.ObserveResolution(res, time.Since(start))
		logging.Resolution(ctx, res.Candidates, len(res.Verses), len(res.Errors), time.Since(start), "name", name)
	}
	if err != nil {
		s.notifier.Fail(operation, err.Error())
		if errors.Is(err, errors.ErrNoReferencesResolved) {
			return &Result{Errors: res.Errors}, err
		}
		return nil, err
	}

	idx := s.resolver.Index()
	regions, misses := scripture.Bind(idx, res.Verses, s.locator)
	s.observer.ObserveHighlightMisses(len(misses))
	warnings := make([]string, 0, len(misses))
	for _, w := range misses {
		warnings = append(warnings, w.Message)
	}

	imagePath := filepath.Join(dir, render.FileName(name))
	s.notifier.Progress(operation, "render", fmt.Sprintf("Rendering %d highlights", len(regions)), 50)
	start = time.Now()
	err = s.renderer.Render(imagePath, regions)
	s.observer.ObserveRender(time.Since(start))
	if err != nil {
		s.notifier.Fail(operation, err.Error())
		return nil, err
	}

	digest, err := s.snapshot(imagePath)
	if err != nil {
		s.notifier.Fail(operation, err.Error())
		return nil, err
	}

	if regions == nil {
		regions = []scripture.HighlightRegion{}
	}
	rec := &Record{
		ID:          s.newID(),
		Name:        name,
		OutputPath:  sub.OutputPath,
		ImagePath:   imagePath,
		ImageDigest: digest,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
		References:  res.References(idx),
		Highlights:  regions,
	}
	s.notifier.Progress(operation, "save", "Saving project", 90)
	if err := s.store.Save(ctx, rec); err != nil {
		s.notifier.Fail(operation, err.Error())
		return nil, err
	}

	s.observer.ObserveProjectCreated()
	logging.ProjectEvent(ctx, "created", rec.ID, rec.Name,
		"references", len(rec.References), "highlights", len(rec.Highlights), "warnings", len(warnings))
	s.notifier.Complete(operation, CreatedMessage, map[string]any{"id": rec.ID, "name": rec.Name})

	return &Result{
		Record:   rec,
		Message:  CreatedMessage,
		Warnings: warnings,
		Errors:   res.Errors,
	}, nil
}

// snapshot digests the rendered image, copying it into the blob store when
// one is configured.
func (s *Service) snapshot(path string) (string, error) {
	if s.blobs != nil {
		return s.blobs.PutFile(path)
	}
	digest, _, err := s.digests.Digest(path)
	if err != nil {
		return "", errors.NewIO("digest", path, err)
	}
	return digest, nil
}

// DigestStats reports the image digest cache counters.
func (s *Service) DigestStats() cache.Stats {
	return s.digests.Stats()
}

// List returns every stored record.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.store.Get(ctx, id)
}

// Delete removes a record. The image file on disk is left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logging.ProjectEvent(ctx, "deleted", rec.ID, rec.Name)
	return nil
}

// Image is an opened project image.
type Image struct {
	io.ReadSeekCloser
	Digest  string
	ModTime time.Time
	Size    int64
}

// OpenImage opens the image of a record. When the file at ImagePath is
// gone, the blob store copy is served instead.
func (s *Service) OpenImage(ctx context.Context, id string) (*Image, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	digest, info, err := s.digests.Digest(rec.ImagePath)
	if err == nil {
		f, err := os.Open(rec.ImagePath)
		if err == nil {
			return &Image{ReadSeekCloser: f, Digest: digest, ModTime: info.ModTime(), Size: info.Size()}, nil
		}
	}

	if s.blobs != nil && rec.ImageDigest != "" {
		f, err := s.blobs.Open(rec.ImageDigest)
		if err == nil {
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, errors.NewIO("stat", rec.ImageDigest, err)
			}
			return &Image{ReadSeekCloser: f, Digest: rec.ImageDigest, ModTime: rec.CreatedAt, Size: info.Size()}, nil
		}
	}
	return nil, errors.NewNotFound("image", id)
}
