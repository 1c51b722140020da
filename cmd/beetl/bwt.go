package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/grailbio/beetl/alphabet"
	"github.com/grailbio/beetl/beetlcfg"
	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/cyclesource"
	"github.com/grailbio/beetl/engine"
	"github.com/grailbio/beetl/pile"
)

func parseAlphabet(name string) (alphabet.Table, error) {
	switch name {
	case "", "standard":
		return alphabet.Standard(), nil
	case "withz":
		return alphabet.WithZ(), nil
	default:
		return alphabet.Table{}, errorf("unknown alphabet %q, want \"standard\" or \"withz\"", name)
	}
}

func parseCodec(name string) (codec.Kind, error) {
	switch name {
	case "", "ascii":
		return codec.ASCIIKind, nil
	case "rle44":
		return codec.RLE44Kind, nil
	case "rle53":
		return codec.RLE53Kind, nil
	default:
		return 0, errorf("unknown codec %q, want \"ascii\", \"rle44\", or \"rle53\"", name)
	}
}

func errorf(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func runBWT(argv []string) error {
	fs := flag.NewFlagSet("bwt", flag.ContinueOnError)
	in := fs.String("in", "", "Input FASTA path")
	readLen := fs.Int("read-len", 0, "Fixed read length; shorter reads are rejected, longer reads truncated")
	dir := fs.String("dir", ".", "Output directory for the final pile segments")
	prefix := fs.String("prefix", "beetl", "Pile file prefix")
	tempDir := fs.String("temp-dir", "", "Scratch directory, created if missing; per-cycle segments go under -dir (default: OS temp dir, overridden by "+beetlcfg.TempDirEnvVar+")")
	codecName := fs.String("codec", "ascii", "Pile segment codec: ascii, rle44, rle53")
	alphabetName := fs.String("alphabet", "standard", "Alphabet: standard ($,A,C,G,N,T) or withz (adds Z)")
	revComp := fs.Bool("rev-comp", false, "Append each read's reverse complement to the collection before construction")
	parallelism := fs.Int("parallelism", 0, "Concurrent per-pile cycle workers (0 = GOMAXPROCS)")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *in == "" {
		return errorf("bwt: -in is required")
	}
	if *readLen <= 0 {
		return errorf("bwt: -read-len must be > 0")
	}

	tbl, err := parseAlphabet(*alphabetName)
	if err != nil {
		return err
	}
	kind, err := parseCodec(*codecName)
	if err != nil {
		return err
	}
	cfg, err := beetlcfg.Load(beetlcfg.Config{Alphabet: tbl, Codec: kind, TempDir: *tempDir, Parallelism: *parallelism})
	if err != nil {
		return err
	}

	ctx := context.Background()
	// file.Open gives a pluggable local/S3-backed source (per the teacher's
	// pileup/common.go and markduplicates/mark_duplicates.go input readers);
	// FromFASTA only ever reads it forward, so the sequential Reader(ctx) is
	// all it needs.
	inFile, err := file.Open(ctx, *in)
	if err != nil {
		return err
	}
	defer inFile.Close(ctx)

	src, err := cyclesource.FromFASTA(inFile.Reader(ctx), *readLen)
	if err != nil {
		return err
	}
	if *revComp {
		src, err = cyclesource.WithReverseComplement(src)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return err
	}

	set := pile.NewSet(tbl, kind, pile.Paths{Dir: *dir, Prefix: *prefix})
	e := engine.New(cfg, set, src)
	log.Printf("bwt: constructing %d-cycle BWT over %d reads into %s", *readLen, src.Len(), *dir)
	if err := e.Run(ctx); err != nil {
		return err
	}
	log.Printf("bwt: done")
	return nil
}
