package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/grailbio/beetl/compare"
	"github.com/grailbio/beetl/handler"
	"github.com/grailbio/beetl/invert"
	"github.com/grailbio/beetl/pile"
)

// fileTaxonomy is a handler.TaxonomyTable backed by a flat "word\ttaxon"
// text file, loaded once at startup. A word missing from the file simply
// does not classify.
type fileTaxonomy map[string]string

func loadTaxonomy(path string) (fileTaxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out := fileTaxonomy{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		out[fields[0]] = fields[1]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t fileTaxonomy) Classify(word []byte) (string, bool) {
	taxon, ok := t[string(word)]
	return taxon, ok
}

func buildHandler(kind string, minOcc int, minSomaticRatio, setSizeRatio float64, taxonomyPath string) (interface {
	compare.Handler
	Discoveries() []handler.Discovery
}, error) {
	switch kind {
	case "splice":
		return handler.NewSplice(minOcc), nil
	case "reference":
		return handler.NewReference(minOcc), nil
	case "metagenomics":
		taxonomy := fileTaxonomy{}
		if taxonomyPath != "" {
			var err error
			taxonomy, err = loadTaxonomy(taxonomyPath)
			if err != nil {
				return nil, err
			}
		}
		return handler.NewMetagenomics(taxonomy, setSizeRatio), nil
	case "tumour-normal":
		return handler.NewTumourNormal(minOcc, minSomaticRatio), nil
	default:
		return nil, errorf("compare: unknown -handler %q, want \"splice\", \"reference\", \"metagenomics\", or \"tumour-normal\"", kind)
	}
}

func runCompare(argv []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	dirA := fs.String("dir-a", "", "Directory holding side A's finalized pile segments")
	prefixA := fs.String("prefix-a", "beetl", "Side A's pile file prefix")
	dirB := fs.String("dir-b", "", "Directory holding side B's finalized pile segments")
	prefixB := fs.String("prefix-b", "beetl", "Side B's pile file prefix")
	codecName := fs.String("codec", "ascii", "Pile segment codec shared by both sides: ascii, rle44, rle53")
	alphabetName := fs.String("alphabet", "standard", "Alphabet shared by both sides: standard ($,A,C,G,N,T) or withz (adds Z)")
	cycles := fs.Int("cycles", 0, "Number of co-traversal cycles to run (0 = until both sides drain)")
	handlerName := fs.String("handler", "splice", "Interval handler: splice, reference, metagenomics, tumour-normal")
	minOcc := fs.Int("min-occ", 4, "Minimum occurrence count a branch needs to be reported (splice, reference, tumour-normal)")
	minSomaticRatio := fs.Float64("min-somatic-ratio", 0.1, "Max tumour-normalized normal support ratio still called somatic (tumour-normal)")
	setSizeRatio := fs.Float64("set-size-ratio", 0.9, "Minimum dominant-branch share of a node's total count to propagate (metagenomics)")
	taxonomyPath := fs.String("taxonomy-file", "", "Optional \"word\\ttaxon\" file backing the metagenomics handler's classification")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if *dirA == "" || *dirB == "" {
		return errorf("compare: -dir-a and -dir-b are required")
	}

	tbl, err := parseAlphabet(*alphabetName)
	if err != nil {
		return err
	}
	kind, err := parseCodec(*codecName)
	if err != nil {
		return err
	}

	h, err := buildHandler(*handlerName, *minOcc, *minSomaticRatio, *setSizeRatio, *taxonomyPath)
	if err != nil {
		return err
	}

	setA := pile.NewSet(tbl, kind, pile.Paths{Dir: *dirA, Prefix: *prefixA})
	setB := pile.NewSet(tbl, kind, pile.Paths{Dir: *dirB, Prefix: *prefixB})
	tableA, err := invert.LoadTable(setA)
	if err != nil {
		return err
	}
	tableB, err := invert.LoadTable(setB)
	if err != nil {
		return err
	}

	bt := compare.NewBackTracker(tbl, setA, tableA, setB, tableB, h)
	if *cycles > 0 {
		if err := bt.Run(*cycles); err != nil {
			return err
		}
	} else {
		for !bt.Done() {
			if err := bt.Step(); err != nil {
				return err
			}
		}
	}

	discoveries := h.Discoveries()
	log.Printf("compare: %s handler surfaced %d discoveries", *handlerName, len(discoveries))
	tsvOut := tsv.NewWriter(os.Stdout)
	for _, d := range discoveries {
		tsvOut.WriteString(d.Kind)
		tsvOut.WriteString(string(d.Word))
		tsvOut.WriteInt64(int64(d.CountA))
		tsvOut.WriteInt64(int64(d.CountB))
		if err := tsvOut.EndLine(); err != nil {
			return err
		}
	}
	return tsvOut.Flush()
}
