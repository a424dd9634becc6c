package action

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"itemweaver/internal/core"
	"itemweaver/internal/trace"
)

// Request carries the inputs of one operation. Which fields are read depends
// on Kind; see Kind.Inputs. A nil collection is an absent input.
type Request struct {
	Kind Kind

	Items1 *core.Collection
	Items2 *core.Collection

	Position int

	ItemString string
	Separator  string

	InString string

	// ProjectFile is resolved against WorkDir when relative.
	ProjectFile string
	WorkDir     string
}

// HashInput returns the deterministic hash input of the request.
func (r Request) HashInput() core.HashInput {
	in := core.HashInput{Action: string(r.Kind), Items1: r.Items1, Items2: r.Items2}
	scalars := map[string]string{}
	switch r.Kind {
	case KindGetItem:
		scalars["position"] = strconv.Itoa(r.Position)
	case KindStringToItemCollection:
		scalars[core.InputItemString] = r.ItemString
		scalars[core.InputSeparator] = r.Separator
	case KindEscape:
		scalars[core.InputInString] = r.InString
	case KindGetCurrentDirectory:
		scalars[core.InputProjectFile] = r.ProjectFile
		scalars["workDir"] = r.WorkDir
	}
	in.Scalars = scalars
	return in
}

// Result carries the outputs of one operation. Only the outputs named by
// Kind.Outputs are meaningful.
type Result struct {
	Kind Kind

	Items            *core.Collection
	Count            int
	OutString        string
	CurrentDirectory string

	// Trace records the per-item decisions behind Items.
	Trace trace.OperationTrace
}

// Has reports whether the result carries output o.
func (r *Result) Has(o Output) bool {
	return r != nil && r.Kind.Outputs()&o != 0
}

// Executor runs requests. It is safe for concurrent use.
type Executor struct {
	Logger *zap.Logger

	// InvocationID correlates log lines of one host invocation.
	InvocationID string

	hasher *core.CollectionHasher
}

// NewExecutor creates an executor with a fresh invocation ID. A nil logger
// disables logging.
func NewExecutor(logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		Logger:       logger,
		InvocationID: uuid.NewString(),
		hasher:       core.NewCollectionHasher(),
	}
}

// InputHash returns the hex digest identifying the inputs of req.
func (r Request) InputHash() string {
	return core.NewCollectionHasher().ComputeInputHash(r.HashInput()).String()
}

// OperationError is returned by Run when a started operation fails. It
// carries the input hash so callers can still emit a trace for the failed
// run. It unwraps to the operation's own error.
type OperationError struct {
	Kind      Kind
	InputHash string
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

// Run executes req.
//
// A cancelled context prevents the operation from starting; a started
// operation always runs to completion. On error no Result is returned; a
// failed operation reports an *OperationError, a cancelled context the
// context's error.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := e.logger().With(
		zap.String("invocation", e.InvocationID),
		zap.String("action", string(req.Kind)),
	)
	log.Info(req.Kind.message())

	hasher := e.hasher
	if hasher == nil {
		hasher = core.NewCollectionHasher()
	}
	inputHash := hasher.ComputeInputHash(req.HashInput()).String()

	rec := trace.NewRecorder()
	res, err := dispatch(core.Operations{Sink: rec}, req)
	if err != nil {
		log.Warn("Operation failed", zap.String("kind", ErrorKind(err)), zap.Error(err))
		return nil, &OperationError{Kind: req.Kind, InputHash: inputHash, Err: err}
	}
	res.Trace = rec.Trace(string(req.Kind), inputHash)

	fields := []zap.Field{zap.Int("selected", res.Trace.Selected()), zap.Int("events", len(res.Trace.Events))}
	if res.Has(OutputCount) {
		fields = append(fields, zap.Int("count", res.Count))
	}
	log.Debug("Operation completed", fields...)
	return res, nil
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func dispatch(ops core.Operations, req Request) (*Result, error) {
	res := &Result{Kind: req.Kind}
	var err error

	switch req.Kind {
	case KindSort:
		res.Items, err = ops.Sort(req.Items1)
	case KindGetItem:
		res.Items, err = ops.GetItem(req.Items1, req.Position)
	case KindGetLastItem:
		res.Items, err = ops.GetLastItem(req.Items1)
	case KindGetCommonItems:
		res.Items, res.Count, err = ops.GetCommonItems(req.Items1, req.Items2)
	case KindGetDistinctItems:
		res.Items, res.Count, err = ops.GetDistinctItems(req.Items1, req.Items2)
	case KindRemoveDuplicateFiles:
		res.Items, res.Count, err = ops.RemoveDuplicateFiles(req.Items1)
	case KindStringToItemCollection:
		res.Items, res.Count, err = ops.StringToItemCollection(req.ItemString, req.Separator)
	case KindGetItemCount:
		res.Count, err = ops.GetItemCount(req.Items1)
	case KindEscape:
		res.OutString, err = ops.Escape(req.InString)
	case KindGetCurrentDirectory:
		res.CurrentDirectory, err = ops.GetCurrentDirectory(req.WorkDir, req.ProjectFile)
	default:
		return nil, &UnsupportedOperationError{Name: string(req.Kind)}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ErrorKind returns a stable label for err, used in logs and exit-code
// mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrMissingInput):
		return "MissingInputError"
	case errors.Is(err, core.ErrIndexOutOfRange):
		return "IndexOutOfRangeError"
	case errors.Is(err, ErrUnsupportedOperation):
		return "UnsupportedOperationError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Cancelled"
	default:
		return "InternalError"
	}
}
