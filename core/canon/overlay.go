package canon

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jnthodge/visual-bible/core/errors"
)

// Overlay is the on-disk shape of an alias overlay file:
//
//	aliases:
//	  John: [jo.]
//	  Song of Solomon: [cant]
type Overlay struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// ReadOverlay decodes an alias overlay document.
func ReadOverlay(r io.Reader) (*Overlay, error) {
	var ov Overlay
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil && err != io.EOF {
		return nil, &errors.ConfigError{Source: "alias overlay", Message: err.Error(), Err: err}
	}
	return &ov, nil
}

// WithOverlay builds a KJV index extended by the aliases in the overlay file
// at path. Aliases already claimed by another book fail construction.
func WithOverlay(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	ov, err := ReadOverlay(f)
	if err != nil {
		return nil, errors.Wrapf(err, "overlay %s", path)
	}
	return NewIndex(kjvBooks, mergeAliases(kjvAliases, ov.Aliases))
}

func mergeAliases(base, extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		out[k] = append(out[k], v...)
	}
	return out
}
