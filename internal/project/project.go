// Package project turns reference submissions into rendered, highlighted
// page images and keeps a record of every generated image.
package project

import (
	"context"
	"io"
	"time"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
)

// CreatedMessage is returned for every successfully created project.
const CreatedMessage = "Saved image and passage map."

// Record is a stored project: one generated image and its passage map.
type Record struct {
	ID          string                      `json:"id"`
	Name        string                      `json:"name"`
	OutputPath  string                      `json:"outputPath"`
	ImagePath   string                      `json:"imagePath"`
	ImageDigest string                      `json:"imageDigest,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	References  []string                    `json:"references"`
	Highlights  []scripture.HighlightRegion `json:"highlights"`
}

// Supersedes reports whether saving r replaces old: same record ID, or the
// same name written to the same output path.
func (r *Record) Supersedes(old *Record) bool {
	return r.ID == old.ID || (r.Name == old.Name && r.OutputPath == old.OutputPath)
}

// Submission is one request to generate a project. File and Text are both
// optional; their lines are resolved in that order.
type Submission struct {
	Name       string
	OutputPath string
	File       io.Reader
	Text       string
}

// Result is the outcome of Service.Create. On ErrNoReferencesResolved only
// Errors is populated.
type Result struct {
	Record   *Record
	Message  string
	Warnings []string
	Errors   []*errors.ReferenceError
}

// Store persists project records. Implementations must be safe for
// concurrent use. Save replaces every record the new one supersedes. Get
// and Delete return an errors.NotFoundError for unknown IDs.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Renderer writes a highlighted page image.
type Renderer interface {
	Render(out string, regions []scripture.HighlightRegion) error
}

// Notifier receives progress updates for long-running operations.
type Notifier interface {
	Progress(operation, stage, message string, progress int)
	Complete(operation, message string, data map[string]any)
	Fail(operation, message string)
}

// Observer receives measurements of the pipeline.
type Observer interface {
	ObserveResolution(res *scripture.Resolution, took time.Duration)
	ObserveRender(took time.Duration)
	ObserveHighlightMisses(n int)
	ObserveProjectCreated()
}

type nopNotifier struct{}

func (nopNotifier) Progress(string, string, string, int)   {}
func (nopNotifier) Complete(string, string, map[string]any) {}
func (nopNotifier) Fail(string, string)                     {}

type nopObserver struct{}

func (nopObserver) ObserveResolution(*scripture.Resolution, time.Duration) {}
func (nopObserver) ObserveRender(time.Duration)                            {}
func (nopObserver) ObserveHighlightMisses(int)                             {}
func (nopObserver) ObserveProjectCreated()                                 {}
