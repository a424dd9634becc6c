package action

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"itemweaver/internal/core"
	"itemweaver/internal/trace"
)

func newObservedExecutor() (*Executor, *observer.ObservedLogs) {
	observed, logs := observer.New(zapcore.DebugLevel)
	return NewExecutor(zap.New(observed)), logs
}

func TestRun_ReferenceScenarios(t *testing.T) {
	exec := NewExecutor(nil)
	ctx := context.Background()
	col1 := core.CollectionOf("hello", "how", "are")
	col3 := core.CollectionOf("hello", "bye")

	tests := []struct {
		name      string
		req       Request
		wantItems []string
		wantCount int
	}{
		{name: "sort", req: Request{Kind: KindSort, Items1: core.CollectionOf("how", "hello", "are")}, wantItems: []string{"are", "hello", "how"}},
		{name: "common", req: Request{Kind: KindGetCommonItems, Items1: col1, Items2: col3}, wantItems: []string{"hello"}, wantCount: 1},
		{name: "distinct", req: Request{Kind: KindGetDistinctItems, Items1: col1, Items2: col3}, wantItems: []string{"how", "are", "bye"}, wantCount: 3},
		{name: "dedup", req: Request{Kind: KindRemoveDuplicateFiles, Items1: core.CollectionOf(`C:\a\x.txt`, `C:\b\x.txt`, `C:\a\y.txt`)}, wantItems: []string{`C:\a\x.txt`, `C:\a\y.txt`}, wantCount: 2},
		{name: "parse", req: Request{Kind: KindStringToItemCollection, ItemString: "how,how,are,you", Separator: ","}, wantItems: []string{"how", "how", "are", "you"}, wantCount: 4},
		{name: "get item", req: Request{Kind: KindGetItem, Items1: col1, Position: 2}, wantItems: []string{"are"}},
		{name: "last item", req: Request{Kind: KindGetLastItem, Items1: col1}, wantItems: []string{"are"}},
		{name: "count", req: Request{Kind: KindGetItemCount, Items1: col1}, wantCount: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := exec.Run(ctx, tt.req)
			require.NoError(t, err)
			if res.Has(OutputItems) {
				assert.Equal(t, tt.wantItems, res.Items.Identities())
			} else {
				assert.Nil(t, res.Items)
			}
			if res.Has(OutputCount) {
				assert.Equal(t, tt.wantCount, res.Count)
			}
			assert.Equal(t, string(tt.req.Kind), res.Trace.Action)
			assert.NotEmpty(t, res.Trace.InputHash)
			require.NoError(t, res.Trace.Validate())
		})
	}
}

func TestRun_GetItemOutOfRangeProducesNoOutput(t *testing.T) {
	exec, logs := newObservedExecutor()
	res, err := exec.Run(context.Background(), Request{Kind: KindGetItem, Items1: core.CollectionOf("hello", "how", "are"), Position: 5})
	require.ErrorIs(t, err, core.ErrIndexOutOfRange)
	assert.Nil(t, res)
	assert.Equal(t, "IndexOutOfRangeError", ErrorKind(err))

	warn := logs.FilterMessage("Operation failed").All()
	require.Len(t, warn, 1)
	assert.Equal(t, "IndexOutOfRangeError", warn[0].ContextMap()["kind"])
}

func TestRun_EscapeAndCurrentDirectory(t *testing.T) {
	exec := NewExecutor(nil)
	res, err := exec.Run(context.Background(), Request{Kind: KindEscape, InString: "hello how;are *you"})
	require.NoError(t, err)
	assert.Equal(t, "hello how%3bare %2ayou", res.OutString)
	assert.True(t, res.Has(OutputString))
	assert.False(t, res.Has(OutputItems))

	workDir := t.TempDir()
	res, err = exec.Run(context.Background(), Request{Kind: KindGetCurrentDirectory, WorkDir: workDir, ProjectFile: "build/app.proj"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "build"), res.CurrentDirectory)
}

func TestRun_UnsupportedKind(t *testing.T) {
	_, err := NewExecutor(nil).Run(context.Background(), Request{Kind: "Reverse"})
	var uoe *UnsupportedOperationError
	require.True(t, errors.As(err, &uoe))
	assert.Equal(t, "Reverse", uoe.Name)
}

func TestRun_MissingInputs(t *testing.T) {
	exec := NewExecutor(nil)
	for _, k := range All() {
		t.Run(string(k), func(t *testing.T) {
			_, err := exec.Run(context.Background(), Request{Kind: k})
			require.ErrorIs(t, err, core.ErrMissingInput)
			var mie *core.MissingInputError
			require.True(t, errors.As(err, &mie))
			assert.Equal(t, k.Inputs()[0], mie.Input, "first declared input is checked first")
		})
	}
}

func TestRun_CancelledContextDoesNotStart(t *testing.T) {
	exec, logs := newObservedExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Run(ctx, Request{Kind: KindSort, Items1: core.CollectionOf("a")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Cancelled", ErrorKind(err))
	assert.Equal(t, 0, logs.Len())
}

func TestRun_LogsStartMessageWithCorrelation(t *testing.T) {
	exec, logs := newObservedExecutor()
	_, err := exec.Run(context.Background(), Request{Kind: KindGetCommonItems, Items1: core.CollectionOf("a"), Items2: core.CollectionOf("a")})
	require.NoError(t, err)

	start := logs.FilterMessage("Getting Common Items").All()
	require.Len(t, start, 1)
	assert.Equal(t, exec.InvocationID, start[0].ContextMap()["invocation"])
	assert.Equal(t, "GetCommonItems", start[0].ContextMap()["action"])

	done := logs.FilterMessage("Operation completed").All()
	require.Len(t, done, 1)
	assert.EqualValues(t, 1, done[0].ContextMap()["count"])
}

func TestRun_DeterministicTraceAcrossRuns(t *testing.T) {
	req := Request{Kind: KindRemoveDuplicateFiles, Items1: core.CollectionOf("a/x", "b/x", "c/y", "d/y", "e/z")}

	r1, err := NewExecutor(nil).Run(context.Background(), req)
	require.NoError(t, err)
	r2, err := NewExecutor(nil).Run(context.Background(), req)
	require.NoError(t, err)

	h1, err := r1.Trace.Hash()
	require.NoError(t, err)
	h2, err := r2.Trace.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, r1.Trace.InputHash, r2.Trace.InputHash)
}

func TestRun_ConcurrentInvocationsAreIndependent(t *testing.T) {
	exec := NewExecutor(nil)
	a := core.CollectionOf("hello", "how", "are")
	b := core.CollectionOf("hello", "bye")

	var g errgroup.Group
	results := make([]*Result, 64)
	for i := range results {
		i := i
		g.Go(func() error {
			kind := KindGetCommonItems
			if i%2 == 1 {
				kind = KindGetDistinctItems
			}
			res, err := exec.Run(context.Background(), Request{Kind: kind, Items1: a, Items2: b})
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, res := range results {
		if i%2 == 0 {
			assert.Equal(t, []string{"hello"}, res.Items.Identities())
		} else {
			assert.Equal(t, []string{"how", "are", "bye"}, res.Items.Identities())
		}
		for _, e := range res.Trace.Events {
			assert.NotEqual(t, trace.TraceEventKind(""), e.Kind)
		}
	}
	assert.Equal(t, []string{"hello", "how", "are"}, a.Identities(), "shared input untouched")
}

func TestRun_FailureCarriesInputHash(t *testing.T) {
	req := Request{Kind: KindGetItem, Items1: core.CollectionOf("hello", "how", "are"), Position: 5}
	_, err := NewExecutor(nil).Run(context.Background(), req)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, KindGetItem, opErr.Kind)
	assert.Equal(t, req.InputHash(), opErr.InputHash)
	assert.Len(t, opErr.InputHash, 64)

	var oor *core.IndexOutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, oor.Error(), err.Error())
}

func TestRun_SuccessTraceUsesRequestInputHash(t *testing.T) {
	req := Request{Kind: KindSort, Items1: core.CollectionOf("b", "a")}
	res, err := NewExecutor(nil).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.InputHash(), res.Trace.InputHash)
}

func TestRun_ZeroValueExecutor(t *testing.T) {
	var exec Executor
	res, err := exec.Run(context.Background(), Request{Kind: KindGetLastItem, Items1: core.CollectionOf("a", "b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, res.Items.Identities())
	assert.NotEmpty(t, res.Trace.InputHash)
}
