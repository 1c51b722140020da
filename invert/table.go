package invert

import (
	"github.com/grailbio/beetl/count"
	"github.com/grailbio/beetl/pile"
)

// LoadTable reconstructs the LetterCountEachPile table for a finished
// construction that has no engine.Engine left in memory to ask (the normal
// case for unbwt/compare run as separate CLI invocations from bwt): it
// decodes every finalized pile segment once and tallies its symbol counts.
// §6 freezes the pile segment layout but never a serialized count-table
// format, so reconstructing it from the segments themselves is the only
// representation a later process can rely on.
func LoadTable(set *pile.Set) (*count.Table, error) {
	tbl := set.Alphabet()
	table := count.NewTable(tbl.Size())
	for p := 0; p < tbl.Size(); p++ {
		r, err := set.OpenFinalReader(p)
		if err != nil {
			return nil, err
		}
		idx, err := NewRankIndex(tbl, r, DefaultBlockSize)
		r.Close()
		if err != nil {
			return nil, err
		}
		row := table.Row(p)
		for s := 0; s < tbl.Size(); s++ {
			row[s] = idx.Rank(s, idx.Len())
		}
	}
	return table, nil
}
