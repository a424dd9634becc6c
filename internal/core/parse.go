package core

import (
	"strings"

	"itemweaver/internal/trace"
)

// StringToItemCollection splits itemString on literal occurrences of
// separator and turns every non-empty segment into a metadata-free item.
//
// Empty segments (from consecutive, leading or trailing separators) are
// discarded. Duplicate segments yield duplicate items. An empty itemString or
// separator counts as missing; itemString is checked first.
func (o Operations) StringToItemCollection(itemString, separator string) (*Collection, int, error) {
	if itemString == "" {
		return nil, 0, missing(InputItemString)
	}
	if separator == "" {
		return nil, 0, missing(InputSeparator)
	}

	segments := strings.Split(itemString, separator)
	out := newCollectionCap(len(segments))
	for i, seg := range segments {
		if seg == "" {
			trace.SafeRecord(o.sink(), trace.TraceEvent{
				Kind:        trace.EventSegmentSkipped,
				Source:      trace.SourceItemString,
				Index:       i,
				Reason:      trace.ReasonEmptySegment,
				OutputIndex: -1,
			})
			continue
		}
		out.append(NewItem(seg))
		trace.SafeRecord(o.sink(), trace.TraceEvent{
			Kind:        trace.EventItemCreated,
			Source:      trace.SourceItemString,
			Index:       i,
			ItemID:      seg,
			Reason:      trace.ReasonSegment,
			OutputIndex: out.Len() - 1,
		})
	}
	return out, out.Len(), nil
}
