package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"

	"github.com/grailbio/beetl/codec"
	"github.com/grailbio/beetl/invert"
	"github.com/grailbio/beetl/pile"
)

func runUnbwt(argv []string) error {
	fs := flag.NewFlagSet("unbwt", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Directory holding the finalized pile segments")
	prefix := fs.String("prefix", "beetl", "Pile file prefix")
	readLen := fs.Int("read-len", 0, "Fixed read length the construction covered")
	codecName := fs.String("codec", "ascii", "Pile segment codec: ascii, rle44, rle53")
	alphabetName := fs.String("alphabet", "standard", "Alphabet: standard ($,A,C,G,N,T) or withz (adds Z)")
	mode := fs.String("mode", "backward", "Reconstruction order: backward (pile-0/rotation order) or forward (original sequence order)")
	out := fs.String("out", "", "Output FASTA path (default: stdout)")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *readLen <= 0 {
		return errorf("unbwt: -read-len must be > 0")
	}

	tbl, err := parseAlphabet(*alphabetName)
	if err != nil {
		return err
	}
	kind, err := parseCodec(*codecName)
	if err != nil {
		return err
	}
	if kind != codec.ASCIIKind {
		log.Printf("unbwt: warning: reconstructing through a %s-encoded pile set", *codecName)
	}

	set := pile.NewSet(tbl, kind, pile.Paths{Dir: *dir, Prefix: *prefix})
	table, err := invert.LoadTable(set)
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		f, ferr := os.Create(*out)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	switch *mode {
	case "backward":
		inv := invert.NewBackwardInverter(set, table, invert.DefaultBlockSize)
		n, err := inv.NumReads()
		if err != nil {
			return err
		}
		log.Printf("unbwt: reconstructing %d reads of length %d (backward order)", n, *readLen)
		reads, err := inv.InvertAll(*readLen)
		if err != nil {
			return err
		}
		for i, s := range reads {
			fmt.Fprintf(bw, ">read%d\n%s\n", i, s)
		}
	case "forward":
		inv, err := invert.NewForwardInverter(set, table, invert.DefaultBlockSize, *readLen)
		if err != nil {
			return err
		}
		log.Printf("unbwt: reconstructing reads of length %d (original sequence order)", *readLen)
		reads, err := inv.InvertAll()
		if err != nil {
			return err
		}
		for seqN, s := range reads {
			fmt.Fprintf(bw, ">read%d\n%s\n", seqN, s)
		}
	default:
		return errorf("unbwt: unknown -mode %q, want \"backward\" or \"forward\"", *mode)
	}
	log.Printf("unbwt: done")
	return nil
}
