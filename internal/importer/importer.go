// Package importer parses many model files concurrently. Every file gets its
// own cursor and reader; failures are recorded per file and never abort the
// rest of the batch.
package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Faultbox/gfztool/pkg/formats"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// Options configures Import.
type Options struct {
	Workers int
	// Verify re-serializes every writable record after parsing.
	Verify       bool
	ParseOptions []formats.ParseOption
	Logger       *zap.Logger
}

// Result is the outcome for one input path.
type Result struct {
	Path     string
	Model    *formats.Model
	Err      error
	Duration time.Duration

	Checked    int
	Mismatches []graph.Mismatch
}

// OK reports whether the file parsed and verified cleanly.
func (r Result) OK() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// Import parses paths on up to opts.Workers goroutines and returns one result
// per path in input order. The returned error is non-nil only when ctx was
// cancelled; files not started by then carry ctx.Err() in their result.
func Import(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		results[i].Path = path
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i] = importFile(path, opts)
			res := &results[i]
			if res.Err != nil {
				log.Warn("import failed", zap.String("path", path), zap.Error(res.Err))
				return nil
			}
			log.Debug("imported",
				zap.String("path", path),
				zap.Int("records", res.Model.Arena.Len()),
				zap.Int("mismatches", len(res.Mismatches)),
				zap.Duration("took", res.Duration))
			return nil
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}

func importFile(path string, opts Options) Result {
	start := time.Now()
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = errors.Wrap(err, "reading model file")
		res.Duration = time.Since(start)
		return res
	}

	res.Model, res.Err = formats.ParseModel(data, opts.ParseOptions...)
	if res.Err == nil && opts.Verify {
		res.Mismatches, res.Checked, res.Err = res.Model.Verify(data, opts.ParseOptions...)
	}
	res.Duration = time.Since(start)
	return res
}

// Expand replaces every directory in paths with the files beneath it whose
// extension matches one of exts (case-insensitive). Plain file paths are kept
// as given. An empty exts matches every file.
func Expand(paths []string, exts []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", p)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && matchExt(path, exts) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", p)
		}
	}
	return out, nil
}

func matchExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Summary counts results.
type Summary struct {
	Files      int
	Failed     int
	Mismatched int
	Records    int
	Elapsed    time.Duration
}

// Summarize aggregates results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		s.Elapsed += r.Duration
		switch {
		case r.Err != nil:
			s.Failed++
		case len(r.Mismatches) > 0:
			s.Mismatched++
		}
		if r.Model != nil {
			s.Records += r.Model.Arena.Len()
		}
	}
	return s
}
