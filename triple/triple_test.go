package triple

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortOrdersByPileThenPosThenSeq(t *testing.T) {
	s := New(4)
	s.Set(0, Triple{PileN: 1, PosN: 5, SeqN: 0})
	s.Set(1, Triple{PileN: 0, PosN: 2, SeqN: 1})
	s.Set(2, Triple{PileN: 1, PosN: 5, SeqN: 2})
	s.Set(3, Triple{PileN: 0, PosN: 1, SeqN: 3})
	s.Sort()
	want := []Triple{
		{PileN: 0, PosN: 1, SeqN: 3},
		{PileN: 0, PosN: 2, SeqN: 1},
		{PileN: 1, PosN: 5, SeqN: 0},
		{PileN: 1, PosN: 5, SeqN: 2},
	}
	for i, w := range want {
		require.Equal(t, w, s.At(i))
	}
}

// TestIdempotentResort checks invariant 6: sorting twice is a no-op.
func TestIdempotentResort(t *testing.T) {
	s := New(5)
	for i := uint32(0); i < 5; i++ {
		s.Set(i, Triple{PileN: 4 - i%3, PosN: i * 7 % 11, SeqN: i})
	}
	s.Sort()
	once := s.Clone()
	s.Sort()
	require.True(t, OrderEqual(once, s))
}

func TestPileBounds(t *testing.T) {
	s := New(6)
	s.Set(0, Triple{PileN: 0, PosN: 0, SeqN: 0})
	s.Set(1, Triple{PileN: 2, PosN: 0, SeqN: 1})
	s.Set(2, Triple{PileN: 1, PosN: 0, SeqN: 2})
	s.Set(3, Triple{PileN: 1, PosN: 1, SeqN: 3})
	s.Set(4, Triple{PileN: 2, PosN: 1, SeqN: 4})
	s.Set(5, Triple{PileN: 0, PosN: 1, SeqN: 5})
	s.Sort()
	start, end := s.PileBounds(1)
	require.Equal(t, 2, start)
	require.Equal(t, 4, end)
	for i := start; i < end; i++ {
		require.EqualValues(t, 1, s.At(i).PileN)
	}
}
