package core

import "itemweaver/internal/trace"

// GetItem returns a singleton collection holding the item at the zero-based
// position in a.
//
// Bounds are validated before any access: a position outside [0, len(a))
// aborts with an IndexOutOfRangeError. The position is never clamped.
func (o Operations) GetItem(a *Collection, position int) (*Collection, error) {
	if a == nil {
		return nil, missing(InputItems1)
	}
	if position < 0 || position > a.Len()-1 {
		return nil, &IndexOutOfRangeError{Position: position, Size: a.Len()}
	}

	it := a.items[position]
	out := newCollectionCap(1)
	out.append(it)
	o.selected(trace.SourceItems1, position, it.Identity, trace.ReasonPosition, 0)
	return out, nil
}

// GetLastItem returns a singleton collection holding the final item of a.
// An empty a has no last item and reports an IndexOutOfRangeError.
func (o Operations) GetLastItem(a *Collection) (*Collection, error) {
	if a == nil {
		return nil, missing(InputItems1)
	}
	last := a.Len() - 1
	if last < 0 {
		return nil, &IndexOutOfRangeError{Position: last, Size: 0}
	}

	it := a.items[last]
	out := newCollectionCap(1)
	out.append(it)
	o.selected(trace.SourceItems1, last, it.Identity, trace.ReasonLast, 0)
	return out, nil
}

// GetItemCount returns the number of items in a.
func GetItemCount(a *Collection) (int, error) {
	if a == nil {
		return 0, missing(InputItems1)
	}
	return a.Len(), nil
}
