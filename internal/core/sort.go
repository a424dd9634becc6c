package core

import (
	"slices"
	"strings"

	"itemweaver/internal/trace"
)

// Sort returns the items of a ordered by ascending ordinal comparison of
// Identity.
//
// The sort is stable: items with equal identities keep their relative order
// from a. This is the same as sorting the identity values independently and
// then taking, for each sorted value, the first not-yet-consumed item of a
// with that identity.
//
// Returns a MissingInputError if a is nil.
func (o Operations) Sort(a *Collection) (*Collection, error) {
	if a == nil {
		return nil, missing(InputItems1)
	}

	order := make([]int, a.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return strings.Compare(a.items[x].Identity, a.items[y].Identity)
	})

	out := newCollectionCap(len(order))
	for pos, src := range order {
		it := a.items[src]
		out.append(it)
		o.selected(trace.SourceItems1, src, it.Identity, trace.ReasonSorted, pos)
	}
	return out, nil
}
