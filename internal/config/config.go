// Package config holds the settings shared by every command and loads them
// from flags, VISUAL_BIBLE_* environment variables and YAML config files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/logging"
)

// Store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// DefaultPaths are searched for a config file when --config is not given.
// Later files override earlier ones.
var DefaultPaths = []string{
	"~/.config/visual-bible/config.yaml",
	"./visual-bible.yaml",
}

// Globals are the settings every command receives.
type Globals struct {
	Config kong.ConfigFlag `help:"YAML config file" type:"path" env:"VISUAL_BIBLE_CONFIG"`

	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error" env:"VISUAL_BIBLE_LOG_LEVEL"`
	LogFormat string `help:"Log format (text, json)" default:"text" enum:"text,json" env:"VISUAL_BIBLE_LOG_FORMAT"`

	DataDir    string `help:"Directory for records, blobs and the base page" default:"./data" type:"path" env:"VISUAL_BIBLE_DATA_DIR"`
	Store      string `help:"Record store backend (json, sqlite)" default:"json" enum:"json,sqlite" env:"VISUAL_BIBLE_STORE"`
	StorePath  string `help:"Record store file (default: <data-dir>/records.json or projects.db)" type:"path" env:"VISUAL_BIBLE_STORE_PATH"`
	BaseImage  string `help:"Base page image, generated when missing (default: <data-dir>/base.png)" type:"path" env:"VISUAL_BIBLE_BASE_IMAGE"`
	OutputRoot string `help:"Confine output paths to this directory" type:"path" env:"VISUAL_BIBLE_OUTPUT_ROOT"`
	Corpus     string `help:"Verse text corpus (.csv or .xml/.osis)" type:"path" env:"VISUAL_BIBLE_CORPUS"`
	Aliases    string `help:"Book alias overlay YAML" type:"path" env:"VISUAL_BIBLE_ALIASES"`

	ParallelThreshold int  `help:"Candidate count at which lines are parsed concurrently (0 disables)" default:"256" env:"VISUAL_BIBLE_PARALLEL_THRESHOLD"`
	Snapshots         bool `help:"Keep a content-addressed copy of every image" default:"true" negatable:"" env:"VISUAL_BIBLE_SNAPSHOTS"`
}

// Validate checks that referenced files exist.
func (g *Globals) Validate() error {
	for _, f := range []struct{ name, path string }{
		{"corpus", g.Corpus},
		{"aliases", g.Aliases},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			return errors.NewConfig(f.name, "%s: %v", f.path, err)
		}
	}
	return nil
}

// InitLogging configures the global logger from LogLevel and LogFormat.
func (g *Globals) InitLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// ResolvedStorePath returns StorePath or the backend's default file in
// DataDir.
func (g *Globals) ResolvedStorePath() string {
	if g.StorePath != "" {
		return g.StorePath
	}
	if g.Store == StoreSQLite {
		return filepath.Join(g.DataDir, "projects.db")
	}
	return filepath.Join(g.DataDir, "records.json")
}

// ResolvedBaseImage returns BaseImage or <data-dir>/base.png.
func (g *Globals) ResolvedBaseImage() string {
	if g.BaseImage != "" {
		return g.BaseImage
	}
	return filepath.Join(g.DataDir, "base.png")
}

// BlobDir is the content-addressed image store.
func (g *Globals) BlobDir() string {
	return filepath.Join(g.DataDir, "blobs")
}

// YAML is a kong.ConfigurationLoader for YAML documents. Keys match flag
// names with either dashes or underscores ("log-level" or "log_level");
// command flags may also be nested under the command name:
//
//	log-level: debug
//	serve:
//	  port: 9090
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, errors.NewConfig("yaml", "%v", err)
	}

	var f kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if nested, ok := lookup(values, parent.Command.Name).(map[string]any); ok {
				if raw := lookup(nested, flag.Name); raw != nil {
					return flagValue(raw), nil
				}
			}
		}
		if raw := lookup(values, flag.Name); raw != nil {
			return flagValue(raw), nil
		}
		return nil, nil
	}
	return f, nil
}

func lookup(m map[string]any, name string) any {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

// flagValue flattens YAML values into the string form kong parses from the
// command line. Sequences become comma-separated lists.
func flagValue(raw any) any {
	switch v := raw.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return nil
	default:
		return fmt.Sprint(v)
	}
}
