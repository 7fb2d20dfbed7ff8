package scripture

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// DefaultParallelThreshold is the candidate count at which Resolve starts
// parsing lines concurrently.
const DefaultParallelThreshold = 256

// Resolution is the outcome of resolving one submission.
type Resolution struct {
	Verses     VerseSet
	Errors     []*errors.ReferenceError
	Candidates int
}

// References returns the resolved verses as display strings.
func (r *Resolution) References(idx *canon.Index) []string {
	return r.Verses.Display(idx)
}

// Resolver runs the parse pipeline over whole submissions.
type Resolver struct {
	idx       *canon.Index
	threshold int
	workers   int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithParallelThreshold sets the candidate count at which lines are parsed
// concurrently. Zero or less disables concurrency.
func WithParallelThreshold(n int) Option {
	return func(r *Resolver) { r.threshold = n }
}

// WithWorkers bounds the number of concurrent line parsers.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewResolver returns a resolver over idx.
func NewResolver(idx *canon.Index, opts ...Option) *Resolver {
	r := &Resolver{
		idx:       idx,
		threshold: DefaultParallelThreshold,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the book index the resolver reads.
func (r *Resolver) Index() *canon.Index {
	return r.idx
}

type sourcedCandidate struct {
	source int
	Candidate
}

type lineResult struct {
	verses []VerseID
	err    *errors.ReferenceError
}

// Resolve parses each source (for example an uploaded file and pasted text)
// and merges all verses in source order, then line order. Lines that fail
// are reported in Resolution.Errors and do not affect other lines. When no
// verse resolves, the Resolution is still returned together with
// errors.ErrNoReferencesResolved.
func (r *Resolver) Resolve(ctx context.Context, sources ...string) (*Resolution, error) {
	var cands []sourcedCandidate
	for i, src := range sources {
		for _, c := range SplitCandidates(src) {
			cands = append(cands, sourcedCandidate{source: i, Candidate: c})
		}
	}

	results := make([]lineResult, len(cands))
	if r.threshold > 0 && len(cands) >= r.threshold && r.workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i := range cands {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = r.resolveLine(cands[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range cands {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = r.resolveLine(cands[i])
		}
	}

	// Merge sequentially in input order so the concurrent path yields the
	// same first-seen order as the serial one.
	res := &Resolution{Candidates: len(cands)}
	groups := make([][]VerseID, 0, len(results))
	for _, lr := range results {
		if lr.err != nil {
			res.Errors = append(res.Errors, lr.err)
			continue
		}
		groups = append(groups, lr.verses)
	}
	res.Verses = Merge(groups...)

	if len(res.Verses) == 0 {
		return res, errors.ErrNoReferencesResolved
	}
	return res, nil
}

// ResolveLine runs the pipeline on one candidate line.
func (r *Resolver) ResolveLine(line string) ([]VerseID, error) {
	lr := r.resolveLine(sourcedCandidate{Candidate: Candidate{Text: fold(line), Raw: line}})
	if lr.err != nil {
		return nil, lr.err
	}
	return lr.verses, nil
}

func (r *Resolver) resolveLine(c sourcedCandidate) lineResult {
	book, rest, err := ResolveBook(r.idx, c.Text)
	if err != nil {
		return lineResult{err: lineError(c, err)}
	}
	p, err := ParseRange(book, rest, c.Text)
	if err != nil {
		return lineResult{err: lineError(c, err)}
	}
	verses, err := Expand(r.idx, p)
	if err != nil {
		return lineResult{err: lineError(c, err)}
	}
	return lineResult{verses: verses}
}

func lineError(c sourcedCandidate, err error) *errors.ReferenceError {
	var re *errors.ReferenceError
	if errors.As(err, &re) {
		out := *re
		out.Source, out.Line, out.Text = c.source, c.Line, c.Raw
		return &out
	}
	return &errors.ReferenceError{
		Source:  c.source,
		Line:    c.Line,
		Text:    c.Raw,
		Message: err.Error(),
		Err:     err,
	}
}
