package core

import "itemweaver/internal/trace"

// GetCommonItems returns the items of a whose identity equals the identity of
// at least one item in b.
//
// Items keep a's order and duplicates in a are all kept when they match.
// The returned count is the output length. a is checked before b.
func (o Operations) GetCommonItems(a, b *Collection) (*Collection, int, error) {
	if a == nil {
		return nil, 0, missing(InputItems1)
	}
	if b == nil {
		return nil, 0, missing(InputItems2)
	}

	inB := indexIdentities(b)
	out := newCollectionCap(a.Len())
	for i, it := range a.items {
		if !inB.has(it.Identity) {
			o.dropped(trace.SourceItems1, i, it.Identity, trace.ReasonNoMatchInOther, "")
			continue
		}
		out.append(it)
		o.selected(trace.SourceItems1, i, it.Identity, trace.ReasonMatchedInOther, out.Len()-1)
	}
	return out, out.Len(), nil
}

// GetDistinctItems returns the symmetric difference of a and b by identity.
//
// The output is the items of a with no match in b, followed by the items of b
// with no match in a, each side in its own input order. The returned count is
// the output length. a is checked before b.
func (o Operations) GetDistinctItems(a, b *Collection) (*Collection, int, error) {
	if a == nil {
		return nil, 0, missing(InputItems1)
	}
	if b == nil {
		return nil, 0, missing(InputItems2)
	}

	inA := indexIdentities(a)
	inB := indexIdentities(b)
	out := newCollectionCap(a.Len() + b.Len())
	o.keepUnmatched(out, a, inB, trace.SourceItems1)
	o.keepUnmatched(out, b, inA, trace.SourceItems2)
	return out, out.Len(), nil
}

func (o Operations) keepUnmatched(out, side *Collection, other identityIndex, source string) {
	for i, it := range side.items {
		if other.has(it.Identity) {
			o.dropped(source, i, it.Identity, trace.ReasonMatchedInOther, "")
			continue
		}
		out.append(it)
		o.selected(source, i, it.Identity, trace.ReasonNoMatchInOther, out.Len()-1)
	}
}
