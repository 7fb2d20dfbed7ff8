// Package render draws the base page image from a layout and writes
// highlighted copies of it.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"regexp"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/fileutil"
	"github.com/jnthodge/visual-bible/internal/layout"
	"github.com/jnthodge/visual-bible/internal/logging"
)

var (
	paper     = color.RGBA{250, 248, 242, 255}
	ink       = color.RGBA{30, 30, 30, 255}
	divider   = color.RGBA{120, 120, 120, 255}
	labelInk  = color.RGBA{90, 90, 90, 255}
	markInk   = color.RGBA{235, 0, 0, 255}
	highlight = color.NRGBA{255, 0, 0, 70}
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FileName turns a project name into a PNG file name.
func FileName(name string) string {
	return unsafeName.ReplaceAllString(name, "_") + ".png"
}

// Renderer draws pages for one layout.
type Renderer struct {
	page     *layout.Page
	basePath string
}

// New returns a renderer whose base image lives at basePath.
func New(page *layout.Page, basePath string) *Renderer {
	return &Renderer{page: page, basePath: basePath}
}

// BasePath returns the base image location.
func (r *Renderer) BasePath() string {
	return r.basePath
}

// EnsureBase writes the base image unless a file already exists at the
// base path. It reports whether a new image was written.
func (r *Renderer) EnsureBase() (bool, error) {
	if _, err := os.Stat(r.basePath); err == nil {
		logging.Debug("base image present", "path", r.basePath)
		return false, nil
	}
	logging.Info("generating base image", "path", r.basePath, "width", r.page.Width, "height", r.page.Height)
	if err := writePNG(r.basePath, r.drawBase()); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Renderer) drawBase() *image.RGBA {
	p := r.page
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(ink), Face: basicfont.Face7x13}
	for _, col := range p.Columns {
		d.Dot = fixed.P(col.X, layout.TitleY)
		d.DrawString(col.Book.Name)
		if col.Testament {
			fill(img, image.Rect(col.X-8, 18, col.X-7, p.Height-5), divider)
		}
	}

	// Labels are shorter than a 7x13 glyph line, so each is drawn as a bar
	// covering the label box below the baseline.
	for _, l := range p.Labels {
		fill(img, image.Rect(l.X, l.Y-3, l.X+l.Width, l.Y-1), labelInk)
	}
	return img
}

// Render copies the base image, marks every region and writes the result
// as a PNG to out.
func (r *Renderer) Render(out string, regions []scripture.HighlightRegion) error {
	base, err := readPNG(r.basePath)
	if err != nil {
		return err
	}
	img := image.NewRGBA(base.Bounds())
	draw.Draw(img, img.Bounds(), base, base.Bounds().Min, draw.Src)

	tint := image.NewUniform(highlight)
	for _, reg := range regions {
		box := image.Rect(reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height).Intersect(img.Bounds())
		if box.Empty() {
			continue
		}
		// The label baseline sits two pixels above the bottom of the box.
		fill(img, image.Rect(box.Min.X+1, box.Max.Y-4, box.Max.X-2, box.Max.Y-2), markInk)
		draw.Draw(img, box, tint, image.Point{}, draw.Over)
	}
	return writePNG(out, img)
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, errors.NewIO("decode", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return enc.Encode(w, img)
	})
	if err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}
