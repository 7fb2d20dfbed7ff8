package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jnthodge/visual-bible/core/cas"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/archive"
	"github.com/jnthodge/visual-bible/internal/fileutil"
	"github.com/jnthodge/visual-bible/internal/logging"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/validation"
)

// Bundle entry names.
const (
	BundleRecord = "record.json"
	BundleImage  = "image.png"
)

// Export writes a tar.xz bundle holding the record and its image to w.
func (s *Service) Export(ctx context.Context, id string, w io.Writer) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	img, err := s.OpenImage(ctx, id)
	if err != nil {
		return err
	}
	defer img.Close()

	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode record")
	}

	aw, err := archive.NewWriter(w, rec.CreatedAt)
	if err != nil {
		return err
	}
	if err := aw.AddBytes(BundleRecord, meta); err != nil {
		return err
	}
	if err := aw.Add(BundleImage, img.Size, img); err != nil {
		return err
	}
	if err := aw.Close(); err != nil {
		return err
	}
	logging.ProjectEvent(ctx, "exported", rec.ID, rec.Name, "bytes", img.Size)
	return nil
}

// Import restores a bundle written by Export. The image is written to the
// record's output path, resolved against this installation's output root,
// and the record is saved, superseding any record with the same ID or the
// same name and output path.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Record, error) {
	files, err := archive.ReadAll(r, validation.MaxBundleSize)
	if err != nil {
		return nil, errors.NewValidation("bundle", err.Error())
	}
	meta, ok := files[BundleRecord]
	if !ok {
		return nil, errors.NewValidation("bundle", "missing "+BundleRecord)
	}
	image, ok := files[BundleImage]
	if !ok {
		return nil, errors.NewValidation("bundle", "missing "+BundleImage)
	}

	var rec Record
	if err := json.Unmarshal(meta, &rec); err != nil {
		return nil, errors.NewValidation("bundle", fmt.Sprintf("invalid %s: %v", BundleRecord, err))
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		return nil, errors.NewValidation("id", "not a UUID")
	}
	if err := validation.ValidateName(rec.Name); err != nil {
		return nil, errors.NewValidation("name", err.Error())
	}
	if err := s.restoreVerseIDs(&rec); err != nil {
		return nil, err
	}
	if ft := validation.Detect(image); ft != validation.FileTypePNG {
		return nil, errors.NewValidation("bundle", BundleImage+" is not a PNG image")
	}
	digest := cas.Digest(image)
	if rec.ImageDigest != "" && rec.ImageDigest != digest {
		return nil, errors.NewValidation("bundle", "image digest mismatch")
	}

	dir, err := validation.ResolveOutputDir(s.outputRoot, rec.OutputPath)
	if err != nil {
		return nil, errors.NewValidation("outputPath", err.Error())
	}
	rec.ImagePath = filepath.Join(dir, render.FileName(rec.Name))
	rec.ImageDigest = digest

	err = fileutil.WriteAtomic(rec.ImagePath, 0o644, func(w io.Writer) error {
		_, err := w.Write(image)
		return err
	})
	if err != nil {
		return nil, errors.NewIO("write", rec.ImagePath, err)
	}
	if s.blobs != nil {
		if _, err := s.blobs.Put(bytes.NewReader(image)); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(ctx, &rec); err != nil {
		return nil, err
	}
	logging.ProjectEvent(ctx, "imported", rec.ID, rec.Name)
	return &rec, nil
}

// restoreVerseIDs fills in highlight verse ids missing from bundles written
// before regions carried them, parsing the display reference instead.
func (s *Service) restoreVerseIDs(rec *Record) error {
	idx := s.resolver.Index()
	for i := range rec.Highlights {
		h := &rec.Highlights[i]
		if h.ID != (scripture.VerseID{}) {
			continue
		}
		id, err := scripture.ParseDisplay(idx, h.Verse)
		if err != nil {
			return errors.NewValidation("highlights", fmt.Sprintf("region %d: %v", i, err))
		}
		h.ID = id
	}
	return nil
}
