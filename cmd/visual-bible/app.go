package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/cas"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/config"
	"github.com/jnthodge/visual-bible/internal/layout"
	"github.com/jnthodge/visual-bible/internal/project"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/store"
	"github.com/jnthodge/visual-bible/internal/textsource"
)

// app is the wired pipeline shared by every command that touches projects.
type app struct {
	idx      *canon.Index
	resolver *scripture.Resolver
	page     *layout.Page
	renderer *render.Renderer
	store    project.Store
	blobs    *cas.Store
	service  *project.Service
}

func loadIndex(g *config.Globals) (*canon.Index, error) {
	if g.Aliases != "" {
		return canon.WithOverlay(g.Aliases)
	}
	return canon.KJV()
}

func newResolver(g *config.Globals, idx *canon.Index) *scripture.Resolver {
	return scripture.NewResolver(idx, scripture.WithParallelThreshold(g.ParallelThreshold))
}

func openStore(g *config.Globals) (project.Store, error) {
	path := g.ResolvedStorePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	if g.Store == config.StoreSQLite {
		return store.OpenSQLite(path)
	}
	return store.NewJSONStore(path), nil
}

// openApp loads the canon and corpus, lays out the page, makes sure the base
// image exists and opens the record store.
func openApp(g *config.Globals, opts ...project.Option) (*app, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	idx, err := loadIndex(g)
	if err != nil {
		return nil, err
	}

	corpus := textsource.FromIndex(idx)
	if g.Corpus != "" {
		if corpus, err = textsource.Load(g.Corpus, idx); err != nil {
			return nil, err
		}
	}
	page, err := layout.Build(idx, corpus)
	if err != nil {
		return nil, err
	}

	base := g.ResolvedBaseImage()
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	renderer := render.New(page, base)
	if _, err := renderer.EnsureBase(); err != nil {
		return nil, err
	}

	st, err := openStore(g)
	if err != nil {
		return nil, err
	}

	a := &app{idx: idx, resolver: newResolver(g, idx), page: page, renderer: renderer, store: st}
	if g.Snapshots {
		if a.blobs, err = cas.NewStore(g.BlobDir()); err != nil {
			st.Close()
			return nil, err
		}
		opts = append(opts, project.WithBlobStore(a.blobs))
	}
	if g.OutputRoot != "" {
		opts = append(opts, project.WithOutputRoot(g.OutputRoot))
	}
	a.service = project.NewService(a.resolver, page, renderer, st, opts...)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
