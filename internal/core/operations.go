package core

import "itemweaver/internal/trace"

// Operations runs the item operations and reports every per-item decision to
// Sink. The zero value is ready to use and records nothing.
//
// Operations holds no state besides the sink, so a single value may be shared
// by concurrent callers as long as the sink is concurrency-safe
// (trace.Recorder is).
type Operations struct {
	Sink trace.Sink
}

// sink returns the configured sink, or trace.NopSink when none is set.
func (o Operations) sink() trace.Sink {
	if o.Sink == nil {
		return trace.NopSink{}
	}
	return o.Sink
}

func (o Operations) selected(source string, index int, id, reason string, outputIndex int) {
	trace.SafeRecord(o.sink(), trace.TraceEvent{
		Kind:        trace.EventItemSelected,
		Source:      source,
		Index:       index,
		ItemID:      id,
		Reason:      reason,
		OutputIndex: outputIndex,
	})
}

func (o Operations) dropped(source string, index int, id, reason, cause string) {
	trace.SafeRecord(o.sink(), trace.TraceEvent{
		Kind:        trace.EventItemDropped,
		Source:      source,
		Index:       index,
		ItemID:      id,
		Reason:      reason,
		CauseItemID: cause,
		OutputIndex: -1,
	})
}

// Sort orders a by identity. See Operations.Sort.
func Sort(a *Collection) (*Collection, error) { return Operations{}.Sort(a) }

// GetItem returns the item at position. See Operations.GetItem.
func GetItem(a *Collection, position int) (*Collection, error) {
	return Operations{}.GetItem(a, position)
}

// GetLastItem returns the final item. See Operations.GetLastItem.
func GetLastItem(a *Collection) (*Collection, error) { return Operations{}.GetLastItem(a) }

// GetCommonItems returns items of a matched in b. See Operations.GetCommonItems.
func GetCommonItems(a, b *Collection) (*Collection, int, error) {
	return Operations{}.GetCommonItems(a, b)
}

// GetDistinctItems returns the symmetric difference. See Operations.GetDistinctItems.
func GetDistinctItems(a, b *Collection) (*Collection, int, error) {
	return Operations{}.GetDistinctItems(a, b)
}

// RemoveDuplicateFiles dedups by file name. See Operations.RemoveDuplicateFiles.
func RemoveDuplicateFiles(a *Collection) (*Collection, int, error) {
	return Operations{}.RemoveDuplicateFiles(a)
}

// StringToItemCollection parses a delimited string. See Operations.StringToItemCollection.
func StringToItemCollection(itemString, separator string) (*Collection, int, error) {
	return Operations{}.StringToItemCollection(itemString, separator)
}

// GetItemCount counts a. It makes no per-item decisions, so nothing is
// recorded.
func (o Operations) GetItemCount(a *Collection) (int, error) { return GetItemCount(a) }

// Escape quotes the build engine's special characters in in. Nothing is
// recorded.
func (o Operations) Escape(in string) (string, error) { return Escape(in) }

// GetCurrentDirectory returns the directory of projectFile. Nothing is
// recorded.
func (o Operations) GetCurrentDirectory(workDir, projectFile string) (string, error) {
	return GetCurrentDirectory(workDir, projectFile)
}
