// Package action dispatches item operations by name.
//
// The set of operations is closed: Kind enumerates every variant, each with a
// fixed input/output contract, and Executor.Run dispatches through a single
// switch. Unknown names are rejected with an UnsupportedOperationError.
package action

import (
	"errors"
	"fmt"

	"itemweaver/internal/core"
)

// Kind identifies one item operation.
type Kind string

const (
	KindSort                   Kind = "Sort"
	KindGetItem                Kind = "GetItem"
	KindGetLastItem            Kind = "GetLastItem"
	KindGetCommonItems         Kind = "GetCommonItems"
	KindGetDistinctItems       Kind = "GetDistinctItems"
	KindRemoveDuplicateFiles   Kind = "RemoveDuplicateFiles"
	KindStringToItemCollection Kind = "StringToItemCollection"
	KindGetItemCount           Kind = "GetItemCount"
	KindEscape                 Kind = "Escape"
	KindGetCurrentDirectory    Kind = "GetCurrentDirectory"
)

// aliasStringToItemCol is the short name build scripts historically used.
const aliasStringToItemCol = "StringToItemCol"

var allKinds = []Kind{
	KindEscape,
	KindGetCommonItems,
	KindGetCurrentDirectory,
	KindGetDistinctItems,
	KindGetItem,
	KindGetItemCount,
	KindGetLastItem,
	KindRemoveDuplicateFiles,
	KindSort,
	KindStringToItemCollection,
}

// All returns every supported kind in a stable order.
func All() []Kind {
	return append([]Kind(nil), allKinds...)
}

var ErrUnsupportedOperation = errors.New("unsupported operation")

// UnsupportedOperationError reports an operation name outside the closed set.
type UnsupportedOperationError struct {
	Name string
}

func (e *UnsupportedOperationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q", ErrUnsupportedOperation.Error(), e.Name)
}

func (e *UnsupportedOperationError) Unwrap() error { return ErrUnsupportedOperation }

// ParseKind resolves an operation name. Matching is case-sensitive.
func ParseKind(name string) (Kind, error) {
	if name == aliasStringToItemCol {
		return KindStringToItemCollection, nil
	}
	for _, k := range allKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", &UnsupportedOperationError{Name: name}
}

// Output is a set of outputs an operation produces.
type Output uint8

const (
	OutputItems Output = 1 << iota
	OutputCount
	OutputString
	OutputDirectory
)

// Outputs returns the outputs k produces.
func (k Kind) Outputs() Output {
	switch k {
	case KindSort, KindGetItem, KindGetLastItem:
		return OutputItems
	case KindGetCommonItems, KindGetDistinctItems, KindRemoveDuplicateFiles, KindStringToItemCollection:
		return OutputItems | OutputCount
	case KindGetItemCount:
		return OutputCount
	case KindEscape:
		return OutputString
	case KindGetCurrentDirectory:
		return OutputDirectory
	default:
		return 0
	}
}

// Inputs returns the names of the inputs k requires, in check order.
func (k Kind) Inputs() []string {
	switch k {
	case KindSort, KindGetLastItem, KindRemoveDuplicateFiles, KindGetItemCount:
		return []string{core.InputItems1}
	case KindGetItem:
		return []string{core.InputItems1, "position"}
	case KindGetCommonItems, KindGetDistinctItems:
		return []string{core.InputItems1, core.InputItems2}
	case KindStringToItemCollection:
		return []string{core.InputItemString, core.InputSeparator}
	case KindEscape:
		return []string{core.InputInString}
	case KindGetCurrentDirectory:
		return []string{core.InputProjectFile}
	default:
		return nil
	}
}

// message is the progress line logged when k starts.
func (k Kind) message() string {
	switch k {
	case KindSort:
		return "Sorting Items"
	case KindGetItem:
		return "Getting Item"
	case KindGetLastItem:
		return "Getting Last Item"
	case KindGetCommonItems:
		return "Getting Common Items"
	case KindGetDistinctItems:
		return "Getting Distinct Items"
	case KindRemoveDuplicateFiles:
		return "Removing Duplicates"
	case KindStringToItemCollection:
		return "Converting String To Item Collection"
	case KindGetItemCount:
		return "Getting Item Count"
	case KindEscape:
		return "Escaping String"
	case KindGetCurrentDirectory:
		return "Getting Current Directory"
	default:
		return "Running " + string(k)
	}
}
