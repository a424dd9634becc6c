package core

import (
	"strings"

	"itemweaver/internal/trace"
)

// RemoveDuplicateFiles keeps the first item for each distinct file name.
//
// The derived key is FileName(identity): two items with different directories
// but the same trailing file name are duplicates. Keys compare ordinally
// (case-sensitive). The output preserves first-occurrence order and the
// returned count is its length. The filesystem is never consulted.
func (o Operations) RemoveDuplicateFiles(a *Collection) (*Collection, int, error) {
	if a == nil {
		return nil, 0, missing(InputItems1)
	}

	owner := make(map[string]string, a.Len())
	out := newCollectionCap(a.Len())
	for i, it := range a.items {
		key := FileName(it.Identity)
		if first, seen := owner[key]; seen {
			o.dropped(trace.SourceItems1, i, it.Identity, trace.ReasonDuplicateFileName, first)
			continue
		}
		owner[key] = it.Identity
		out.append(it)
		o.selected(trace.SourceItems1, i, it.Identity, trace.ReasonFirstFileName, out.Len()-1)
	}
	return out, out.Len(), nil
}

// FileName returns the final path segment of identity.
//
// Both '/' and '\' are separators regardless of the host OS, since item
// identities may come from build scripts written on any platform. A leading
// drive designator ("C:name") is stripped.
//
// Trailing separators are ignored, so "dir/sub/" yields "sub". The build
// engine's own file-info lookup yields "" for such an identity, which would
// make every directory-style identity a duplicate of the first one.
func FileName(identity string) string {
	trimmed := strings.TrimRight(identity, `/\`)
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		return trimmed[i+1:]
	}
	if len(trimmed) >= 2 && trimmed[1] == ':' && isDriveLetter(trimmed[0]) {
		return trimmed[2:]
	}
	return trimmed
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
