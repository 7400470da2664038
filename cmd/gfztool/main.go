// gfztool is a CLI utility for inspecting and round-tripping GameCube racing-game model files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/Faultbox/gfztool/internal/config"
	"github.com/Faultbox/gfztool/internal/importer"
	"github.com/Faultbox/gfztool/internal/logger"
	"github.com/Faultbox/gfztool/pkg/formats"
	"github.com/Faultbox/gfztool/pkg/graph"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, args, os.Stdout); err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "info":
		return cmdInfo(cfg, rest, w)
	case "tree":
		return cmdTree(cfg, rest, w)
	case "dump":
		return cmdDump(cfg, rest, w)
	case "verify":
		return cmdVerify(cfg, rest, w)
	case "export":
		return cmdExport(cfg, rest, w)
	case "batch":
		return cmdBatch(ctx, cfg, rest, w)
	case "help", "-h", "--help":
		printUsage(w)
		return nil
	default:
		printUsage(os.Stderr)
		return errors.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `gfztool - GameCube model file utility

Usage:
  gfztool [-config file] [-debug] [-little-endian] [-workers n] [-log-file f] <command> [options]

Commands:
  info <file>                 Show header fields and record counts
  tree <file>                 Print the resolved record hierarchy
  dump [-kind K] <file>       Dump records with all fields
  verify <file>               Re-serialize writable records and compare bytes
  export <file> <out>         Write the model back through every writable record
  batch [-verify] <path...>   Parse many files or directories concurrently

Examples:
  gfztool info st01.gma
  gfztool dump -kind CollisionTriangle st01.gma
  gfztool -workers 8 batch -verify ./stages`)
}

// parseOptions maps config onto parse options.
func parseOptions(cfg *config.Config) ([]formats.ParseOption, error) {
	order, err := cfg.Format.Order()
	if err != nil {
		return nil, err
	}
	return []formats.ParseOption{
		formats.WithByteOrder(order),
		formats.WithAlignment(cfg.Format.Alignment),
		formats.WithMaxDepth(cfg.Format.MaxDepth),
		formats.WithLogger(logger.Named("graph")),
	}, nil
}

func loadModel(cfg *config.Config, path string) (*formats.Model, []byte, []formats.ParseOption, error) {
	opts, err := parseOptions(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reading model file")
	}
	m, err := formats.ParseModel(data, opts...)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, path)
	}
	logger.Debug("parsed model", zap.String("path", path), zap.Int("records", m.Arena.Len()))
	return m, data, opts, nil
}

func needFile(args []string, usage string) (string, error) {
	if len(args) < 1 {
		return "", errors.Errorf("usage: gfztool %s", usage)
	}
	return args[0], nil
}

func cmdInfo(cfg *config.Config, args []string, w io.Writer) error {
	path, err := needFile(args, "info <file>")
	if err != nil {
		return err
	}
	m, data, _, err := loadModel(cfg, path)
	if err != nil {
		return err
	}
	h := m.Header

	fmt.Fprintf(w, "File:       %s (%d bytes)\n", path, len(data))
	fmt.Fprintf(w, "Magic:      %s\n", h.Magic)
	fmt.Fprintf(w, "Origin:     %.3f %.3f %.3f\n", h.Origin.X(), h.Origin.Y(), h.Origin.Z())
	fmt.Fprintf(w, "Radius:     %.3f\n", h.Radius)
	fmt.Fprintf(w, "Materials:  %d opaque, %d translucent\n", h.OpaqueMaterialCount, h.TranslucentMaterialCount)
	fmt.Fprintf(w, "Matrices:   %d\n", h.MatrixCount)
	fmt.Fprintf(w, "Collision:  %d triangles\n", len(h.Collision))
	fmt.Fprintf(w, "Records:    %d\n", m.Arena.Len())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Records by kind:")

	type kindStat struct {
		kind  string
		count int
	}
	var stats []kindStat
	for kind, count := range m.Arena.CountKinds() {
		stats = append(stats, kindStat{kind, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].kind < stats[j].kind
	})
	for _, s := range stats {
		fmt.Fprintf(w, "  %-22s %d\n", s.kind, s.count)
	}
	return nil
}

func cmdTree(cfg *config.Config, args []string, w io.Writer) error {
	path, err := needFile(args, "tree <file>")
	if err != nil {
		return err
	}
	m, _, _, err := loadModel(cfg, path)
	if err != nil {
		return err
	}

	return m.Arena.Walk(func(n *graph.Node, depth int) error {
		rw := "r-"
		if graph.CanSerialize(n.Record) {
			rw = "rw"
		}
		_, err := fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat("  ", depth), n.Kind, n.Record.Range(), rw)
		return err
	})
}

func cmdDump(cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	kind := fs.String("kind", "", "Only dump records of this kind")
	depth := fs.Int("depth", 2, "Maximum nesting spew follows into each record")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := needFile(fs.Args(), "dump [-kind K] <file>")
	if err != nil {
		return err
	}
	m, _, _, err := loadModel(cfg, path)
	if err != nil {
		return err
	}

	sc := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                *depth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	for _, n := range m.Arena.Nodes() {
		if *kind != "" && n.Kind != *kind {
			continue
		}
		fmt.Fprintf(w, "#%d %s @ %s\n", n.ID, n.Kind, n.Offset)
		sc.Fdump(w, n.Record)
	}
	return nil
}

func cmdVerify(cfg *config.Config, args []string, w io.Writer) error {
	path, err := needFile(args, "verify <file>")
	if err != nil {
		return err
	}
	m, data, opts, err := loadModel(cfg, path)
	if err != nil {
		return err
	}

	mismatches, checked, err := m.Verify(data, opts...)
	if err != nil {
		return err
	}
	for _, mm := range mismatches {
		fmt.Fprintf(w, "MISMATCH #%d %s @ %s\n  want % x\n  got  % x\n", mm.Node, mm.Kind, mm.Offset, mm.Want, mm.Got)
	}
	fmt.Fprintf(w, "%d writable records checked, %d mismatched\n", checked, len(mismatches))
	if len(mismatches) > 0 {
		return errors.Errorf("%s: %d records do not round-trip", path, len(mismatches))
	}
	return nil
}

func cmdExport(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) < 2 {
		return errors.New("usage: gfztool export <file> <out>")
	}
	m, data, opts, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}
	out, err := m.Export(data, opts...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[1], out, 0644); err != nil {
		return errors.Wrap(err, "writing export")
	}
	fmt.Fprintf(w, "Wrote %s (%d bytes)\n", args[1], len(out))
	return nil
}

func cmdBatch(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	verify := fs.Bool("verify", false, "Verify every writable record")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: gfztool batch [-verify] <path...>")
	}

	paths, err := importer.Expand(fs.Args(), cfg.Import.Extensions)
	if err != nil {
		return err
	}
	opts, err := parseOptions(cfg)
	if err != nil {
		return err
	}

	results, err := importer.Import(ctx, paths, importer.Options{
		Workers:      cfg.Import.Workers,
		Verify:       *verify,
		ParseOptions: opts,
		Logger:       logger.Named("importer"),
	})
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "FAIL  %s: %v\n", r.Path, r.Err)
		case len(r.Mismatches) > 0:
			fmt.Fprintf(w, "DIFF  %s: %d/%d records\n", r.Path, len(r.Mismatches), r.Checked)
		default:
			fmt.Fprintf(w, "OK    %s (%d records, %s)\n", r.Path, r.Model.Arena.Len(), r.Duration)
		}
	}
	if err != nil {
		return err
	}

	s := importer.Summarize(results)
	fmt.Fprintf(w, "\n%d files, %d failed, %d mismatched, %d records\n", s.Files, s.Failed, s.Mismatched, s.Records)
	if s.Failed > 0 || s.Mismatched > 0 {
		return errors.Errorf("%d of %d files did not import cleanly", s.Failed+s.Mismatched, s.Files)
	}
	return nil
}
