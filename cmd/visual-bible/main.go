// Command visual-bible resolves free-form Bible references, highlights them
// on a rendered page of the whole canon and serves the results over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/api"
	"github.com/jnthodge/visual-bible/internal/config"
	"github.com/jnthodge/visual-bible/internal/fileutil"
	"github.com/jnthodge/visual-bible/internal/logging"
	"github.com/jnthodge/visual-bible/internal/metrics"
	"github.com/jnthodge/visual-bible/internal/project"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/validation"
)

const version = "0.4.0"

// stdout receives command output.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface.
type CLI struct {
	config.Globals

	Serve    ServeCmd    `cmd:"" help:"Start the HTTP API server"`
	Resolve  ResolveCmd  `cmd:"" help:"Resolve references and print the verses they name"`
	Generate GenerateCmd `cmd:"" help:"Generate a highlighted page image"`
	Projects ProjectsCmd `cmd:"" help:"Manage saved projects"`
	Books    BooksCmd    `cmd:"" help:"List the books of the canon"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// ServeCmd runs the API server until interrupted.
type ServeCmd struct {
	Port           int      `help:"HTTP server port" default:"8080" env:"VISUAL_BIBLE_PORT"`
	RateLimit      int      `help:"Requests per minute per client (0 disables)" default:"60"`
	RateBurst      int      `help:"Rate limit burst size" default:"10"`
	APIKey         string   `name:"api-key" help:"Require this key in X-API-Key" env:"VISUAL_BIBLE_API_KEY"`
	TLSCert        string   `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey         string   `name:"tls-key" help:"TLS private key file" type:"path"`
	AllowedOrigins []string `help:"Allowed CORS and WebSocket origins (empty allows all)"`
	MaxUpload      int64    `help:"Maximum submission size in bytes" default:"10485760"`
	ProcessMetrics bool     `help:"Export process metrics" default:"true" negatable:""`
	GoMetrics      bool     `help:"Export Go runtime metrics" default:"true" negatable:""`
}

func (c *ServeCmd) config() api.Config {
	cfg := api.DefaultConfig()
	cfg.Port = c.Port
	cfg.Version = version
	cfg.RateLimitRequests = c.RateLimit
	cfg.RateLimitBurst = c.RateBurst
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.MaxUploadSize = c.MaxUpload
	if c.APIKey != "" {
		cfg.Auth = api.AuthConfig{Enabled: true, APIKey: c.APIKey}
	}
	if c.TLSCert != "" || c.TLSKey != "" {
		cfg.TLS = api.TLSConfig{Enabled: true, CertFile: c.TLSCert, KeyFile: c.TLSKey}
	}
	return cfg
}

func (c *ServeCmd) Run(g *config.Globals) error {
	cfg := c.config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	m := metrics.New(metrics.Config{EnableProcessMetrics: c.ProcessMetrics, EnableGoMetrics: c.GoMetrics})
	hub := api.NewHub()
	a, err := openApp(g, project.WithNotifier(hub), project.WithObserver(m))
	if err != nil {
		return err
	}
	defer a.Close()
	m.WatchDigestCache(a.service.DigestStats)

	srv := api.New(cfg, a.service, a.resolver, api.WithMetrics(m), api.WithHub(hub))
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

// ResolveCmd previews a submission without rendering anything.
type ResolveCmd struct {
	Text []string `arg:"" optional:"" help:"Reference text; each argument is one line"`
	File string   `short:"f" help:"Read references from a text file" type:"existingfile"`
	JSON bool     `help:"Print JSON"`
}

type resolveOutput struct {
	References []string `json:"references"`
	Errors     []string `json:"errors"`
	Candidates int      `json:"candidates"`
}

func (c *ResolveCmd) Run(g *config.Globals) error {
	if err := g.Validate(); err != nil {
		return err
	}
	idx, err := loadIndex(g)
	if err != nil {
		return err
	}

	var fileText string
	if c.File != "" {
		data, err := readTextFile(c.File)
		if err != nil {
			return err
		}
		fileText = string(data)
	}

	res, err := newResolver(g, idx).Resolve(context.Background(), fileText, strings.Join(c.Text, "\n"))
	if err != nil && !errors.Is(err, errors.ErrNoReferencesResolved) {
		return err
	}

	out := resolveOutput{References: res.References(idx), Errors: make([]string, 0, len(res.Errors)), Candidates: res.Candidates}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}
	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out); encErr != nil {
			return encErr
		}
		return err
	}

	for _, ref := range out.References {
		fmt.Fprintln(stdout, ref)
	}
	for _, e := range out.Errors {
		fmt.Fprintf(stdout, "error: %s\n", e)
	}
	return err
}

// GenerateCmd creates a project from the command line.
type GenerateCmd struct {
	Name   string `short:"n" required:"" help:"Project name"`
	Output string `short:"o" required:"" help:"Output directory" type:"path"`
	File   string `short:"f" help:"Text file of references" type:"existingfile"`
	Text   string `short:"t" help:"References, one per line or separated by commas"`
}

func (c *GenerateCmd) Run(g *config.Globals) error {
	a, err := openApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	sub := project.Submission{Name: c.Name, OutputPath: c.Output, Text: c.Text}
	if c.File != "" {
		data, err := readTextFile(c.File)
		if err != nil {
			return err
		}
		sub.File = strings.NewReader(string(data))
	}

	res, err := a.service.Create(context.Background(), sub)
	if res != nil {
		for _, e := range res.Errors {
			fmt.Fprintf(stdout, "error: %s\n", e.Error())
		}
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	fmt.Fprintf(stdout, "%s\nid: %s\nimage: %s\nreferences: %d\n",
		res.Message, res.Record.ID, res.Record.ImagePath, len(res.Record.References))
	return nil
}

// ProjectsCmd groups record management.
type ProjectsCmd struct {
	List   ProjectsListCmd   `cmd:"" help:"List saved projects"`
	Show   ProjectsShowCmd   `cmd:"" help:"Show one project as JSON"`
	Delete ProjectsDeleteCmd `cmd:"" help:"Delete a project record"`
	Export ProjectsExportCmd `cmd:"" help:"Export a project bundle (.tar.xz)"`
	Import ProjectsImportCmd `cmd:"" help:"Import a project bundle"`
}

type ProjectsListCmd struct{}

func (c *ProjectsListCmd) Run(g *config.Globals) error {
	st, err := openStore(g)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREFERENCES\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Name, len(r.References), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

type ProjectsShowCmd struct {
	ID string `arg:"" help:"Project ID"`
}

func (c *ProjectsShowCmd) Run(g *config.Globals) error {
	st, err := openStore(g)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

type ProjectsDeleteCmd struct {
	ID string `arg:"" help:"Project ID"`
}

func (c *ProjectsDeleteCmd) Run(g *config.Globals) error {
	st, err := openStore(g)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	logging.ProjectEvent(context.Background(), "deleted", c.ID, "")
	fmt.Fprintf(stdout, "deleted %s\n", c.ID)
	return nil
}

type ProjectsExportCmd struct {
	ID  string `arg:"" help:"Project ID"`
	Out string `short:"o" help:"Bundle file (default: <name>.tar.xz)" type:"path"`
}

func (c *ProjectsExportCmd) Run(g *config.Globals) error {
	a, err := openApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	rec, err := a.service.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(render.FileName(rec.Name), ".png") + ".tar.xz"
	}

	err = fileutil.WriteAtomic(out, 0o644, func(w io.Writer) error {
		return a.service.Export(ctx, c.ID, w)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported %s to %s\n", rec.ID, out)
	return nil
}

type ProjectsImportCmd struct {
	Bundle string `arg:"" help:"Bundle file (.tar.xz)" type:"existingfile"`
}

func (c *ProjectsImportCmd) Run(g *config.Globals) error {
	a, err := openApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(c.Bundle)
	if err != nil {
		return errors.NewIO("open", c.Bundle, err)
	}
	defer f.Close()

	rec, err := a.service.Import(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %s (%s)\nimage: %s\n", rec.ID, rec.Name, rec.ImagePath)
	return nil
}

// BooksCmd prints the canon with chapter counts and aliases.
type BooksCmd struct {
	JSON bool `help:"Print JSON"`
}

func (c *BooksCmd) Run(g *config.Globals) error {
	idx, err := loadIndex(g)
	if err != nil {
		return err
	}
	if c.JSON {
		return json.NewEncoder(stdout).Encode(idx.Books())
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, b := range idx.Books() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", b.Ordinal, b.Name, b.ChapterCount(), strings.Join(idx.AliasesFor(b.Ordinal), ", "))
	}
	return tw.Flush()
}

// readTextFile reads a reference file, rejecting binary content.
func readTextFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	r, err := validation.TextUpload(f)
	if err != nil {
		return nil, errors.NewValidation("file", err.Error())
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "visual-bible version %s\n", version)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("visual-bible"),
		kong.Description("Visual Bible - highlight scripture references on a page of the whole canon"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(config.YAML, config.DefaultPaths...),
	)
	ctx.FatalIfErrorf(cli.InitLogging())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
