package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// OperationTrace is the canonical, deterministic record of one item operation.
//
// Invariants:
//   - Must capture the Action, the InputHash and an ordered list of events.
//   - Must contain logical per-item decisions, not runtime-dependent details.
//   - Must not include timestamps, pointers, or any runtime-dependent values.
//
// InputHash is a string to avoid coupling this package to the collection
// model. It should be populated with the deterministic identity of the inputs.
//
// Canonical representation:
//   - Events are sorted via Canonicalize() using a fully-specified ordering.
//   - JSON serialization uses a custom marshaler to fix field order and omit
//     absent optional fields.
//
// The trace is observational only and must never affect operation results.
type OperationTrace struct {
	Action    string
	InputHash string
	Events    []TraceEvent
}

// TraceEventKind is the stable, canonical discriminator for TraceEvent.
//
// The string values are part of the trace's canonical bytes; do not rename.
type TraceEventKind string

const (
	EventItemSelected   TraceEventKind = "ItemSelected"
	EventItemDropped    TraceEventKind = "ItemDropped"
	EventItemCreated    TraceEventKind = "ItemCreated"
	EventSegmentSkipped TraceEventKind = "SegmentSkipped"
)

// Event sources. A source names the input an event's Index refers to.
const (
	SourceItems1     = "items1"
	SourceItems2     = "items2"
	SourceItemString = "itemString"
)

// Stable reason codes.
const (
	ReasonSorted            = "Sorted"
	ReasonPosition          = "Position"
	ReasonLast              = "Last"
	ReasonMatchedInOther    = "MatchedInOther"
	ReasonNoMatchInOther    = "NoMatchInOther"
	ReasonFirstFileName     = "FirstFileName"
	ReasonDuplicateFileName = "DuplicateFileName"
	ReasonSegment           = "Segment"
	ReasonEmptySegment      = "EmptySegment"
)

// TraceEvent is a single per-item decision.
//
// Determinism constraints:
//   - No timestamps.
//   - No error strings / stack traces.
//   - No fields derived from pointer identity or map iteration.
type TraceEvent struct {
	Kind TraceEventKind

	// Source names the input the event refers to (items1, items2, itemString).
	Source string

	// Index is the zero-based position of the item or segment within Source.
	Index int

	// ItemID is the identity of the item concerned. Empty for skipped segments.
	ItemID string

	// Reason is a stable, logical reason code (e.g. "DuplicateFileName").
	Reason string

	// CauseItemID records a related item (e.g. the earlier item that already
	// claimed a file name).
	CauseItemID string

	// OutputIndex is the position the item took in the output, or -1 when the
	// item does not appear in the output.
	OutputIndex int
}

// Validate checks basic invariants and returns a descriptive error.
func (t *OperationTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.Action == "" {
		return errors.New("action is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.Source == "" {
			return fmt.Errorf("events[%d].source is required", i)
		}
		if e.Index < 0 {
			return fmt.Errorf("events[%d].index must not be negative", i)
		}
		if e.OutputIndex < -1 {
			return fmt.Errorf("events[%d].outputIndex must be >= -1", i)
		}
		selects := e.Kind == EventItemSelected || e.Kind == EventItemCreated
		if selects && e.OutputIndex < 0 {
			return fmt.Errorf("events[%d]: %s requires an output index", i, e.Kind)
		}
		if !selects && e.OutputIndex != -1 {
			return fmt.Errorf("events[%d]: %s must not carry an output index", i, e.Kind)
		}
	}
	return nil
}

// Canonicalize sorts the trace into its canonical form.
//
// Ordering is independent of recording order: events are stably sorted by
// (sourceOrder, index, kindOrder, reason, causeItemId).
func (t *OperationTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]

		if sourceOrder(a.Source) != sourceOrder(b.Source) {
			return sourceOrder(a.Source) < sourceOrder(b.Source)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return a.CauseItemID < b.CauseItemID
	})
}

func sourceOrder(s string) int {
	switch s {
	case SourceItems1:
		return 10
	case SourceItems2:
		return 20
	case SourceItemString:
		return 30
	default:
		return 1000
	}
}

func kindOrder(k TraceEventKind) int {
	switch k {
	case EventItemCreated:
		return 10
	case EventItemSelected:
		return 20
	case EventItemDropped:
		return 30
	case EventSegmentSkipped:
		return 40
	default:
		return 1000
	}
}

// Selected counts events that placed an item in the output.
func (t OperationTrace) Selected() int {
	n := 0
	for _, e := range t.Events {
		if e.Kind == EventItemSelected || e.Kind == EventItemCreated {
			n++
		}
	}
	return n
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy of the trace to avoid mutating the caller's slice.
func (t OperationTrace) CanonicalJSON() ([]byte, error) {
	copyTrace := OperationTrace{Action: t.Action, InputHash: t.InputHash}
	copyTrace.Events = make([]TraceEvent, len(t.Events))
	copy(copyTrace.Events, t.Events)
	copyTrace.Canonicalize()
	if err := copyTrace.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&copyTrace)
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical JSON bytes.
func (t OperationTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON ensures canonical field ordering and omission rules.
func (t OperationTrace) MarshalJSON() ([]byte, error) {
	if t.Action == "" {
		return nil, errors.New("action is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"action\":")
	ab, _ := json.Marshal(t.Action)
	buf.Write(ab)

	if t.InputHash != "" {
		buf.WriteString(",\"inputHash\":")
		hb, _ := json.Marshal(t.InputHash)
		buf.Write(hb)
	}

	buf.WriteString(",\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON ensures canonical field ordering and omission of empty optional fields.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	// kind (always first)
	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	buf.WriteString(",\"source\":")
	sb, _ := json.Marshal(e.Source)
	buf.Write(sb)

	buf.WriteString(",\"index\":")
	buf.WriteString(strconv.Itoa(e.Index))

	if e.ItemID != "" {
		buf.WriteString(",\"itemId\":")
		ib, _ := json.Marshal(e.ItemID)
		buf.Write(ib)
	}

	if e.Reason != "" {
		buf.WriteString(",\"reason\":")
		rb, _ := json.Marshal(e.Reason)
		buf.Write(rb)
	}

	if e.CauseItemID != "" {
		buf.WriteString(",\"causeItemId\":")
		cb, _ := json.Marshal(e.CauseItemID)
		buf.Write(cb)
	}

	if e.OutputIndex >= 0 {
		buf.WriteString(",\"outputIndex\":")
		buf.WriteString(strconv.Itoa(e.OutputIndex))
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
