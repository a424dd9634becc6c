package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"itemweaver/internal/action"
	"itemweaver/internal/config"
	"itemweaver/internal/trace"
)

// Streams are the process streams the CLI writes to. A nil writer discards.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

func (s Streams) out() io.Writer {
	if s.Out == nil {
		return io.Discard
	}
	return s.Out
}

func (s Streams) err() io.Writer {
	if s.Err == nil {
		return io.Discard
	}
	return s.Err
}

type CLIResult struct {
	ExitCode int
	// Result is set only when the operation succeeded.
	Result *action.Result
}

// Execute maps a canonical Invocation to an operation run.
//
// Responsibilities:
//   - Load configuration and apply flag overrides.
//   - Materialize item collections from item files or include lists.
//   - Initialize the trace file before the operation and finalize it after,
//     even on failure.
//   - Render the result to stdout or the output file; nothing is written on
//     failure.
//   - Translate outcomes to semantic exit codes.
func Execute(ctx context.Context, inv Invocation, streams Streams) (res CLIResult, execErr error) {
	res.ExitCode = ExitInternalError
	defer func() {
		if r := recover(); r != nil {
			res = CLIResult{ExitCode: ExitInternalError}
			execErr = fmt.Errorf("internal error: %v", r)
		}
	}()

	cfg, err := config.Load(inv.ConfigPath)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	if inv.Format != "" {
		cfg.Output.Format = inv.Format
	}
	if inv.Template != "" {
		cfg.Output.Template = inv.Template
	}

	logger, err := newLogger(cfg.Logging, inv.Verbose, streams.err())
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	defer func() { _ = logger.Sync() }()

	printer, err := NewPrinter(cfg.Output.Format, cfg.Output.Template)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}

	tw, err := newTraceWriter(inv.Trace, string(inv.Action))
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	var result *action.Result
	defer func() {
		if ferr := tw.Finalize(result); ferr != nil && execErr == nil {
			res = CLIResult{ExitCode: ExitConfigError}
			execErr = errors.Wrap(ferr, "write trace")
		}
	}()

	req, err := buildRequest(inv)
	if err != nil {
		res.ExitCode = ExitConfigError
		return res, err
	}
	exec := action.NewExecutor(logger)
	result, err = exec.Run(ctx, req)
	if err != nil {
		var opErr *action.OperationError
		if errors.As(err, &opErr) {
			tw.inputHash = opErr.InputHash
		}
		res.ExitCode = ExitCode(err)
		return res, err
	}

	out, err := printer.Print(result)
	if err != nil {
		result = nil
		res.ExitCode = ExitInternalError
		return res, err
	}
	if err := writeOutput(inv.OutputPath, out, streams.out()); err != nil {
		result = nil
		res.ExitCode = ExitConfigError
		return res, err
	}
	logger.Debug("Result written",
		zap.String("invocation", exec.InvocationID),
		zap.String("format", cfg.Output.Format),
		zap.Int("bytes", len(out)),
	)

	return CLIResult{ExitCode: ExitSuccess, Result: result}, nil
}

func buildRequest(inv Invocation) (action.Request, error) {
	items1, err := loadSource(inv.WorkDir, inv.Items1)
	if err != nil {
		return action.Request{}, errors.Wrap(err, "load items1")
	}
	items2, err := loadSource(inv.WorkDir, inv.Items2)
	if err != nil {
		return action.Request{}, errors.Wrap(err, "load items2")
	}
	return action.Request{
		Kind:        inv.Action,
		Items1:      items1,
		Items2:      items2,
		Position:    inv.Position,
		ItemString:  inv.ItemString,
		Separator:   inv.Separator,
		InString:    inv.InString,
		ProjectFile: inv.ProjectFile,
		WorkDir:     inv.WorkDir,
	}, nil
}

func writeOutput(path string, data []byte, w io.Writer) error {
	if path == "" {
		_, err := w.Write(data)
		return errors.Wrap(err, "write result")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}
	return errors.Wrap(writeFileAtomic(path, data, 0o644), "write output file")
}

type traceFileWriter struct {
	enabled   bool
	path      string
	action    string
	inputHash string
}

func newTraceWriter(cfg TraceConfig, actionName string) (*traceFileWriter, error) {
	if !cfg.Enabled {
		return &traceFileWriter{enabled: false}, nil
	}
	if cfg.Path == "" {
		return nil, errors.New("trace enabled but path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create trace dir")
	}
	// Write an empty trace eagerly so that even a failed run leaves a
	// deterministic artifact.
	w := &traceFileWriter{enabled: true, path: cfg.Path, action: actionName}
	return w, w.writeTrace(trace.OperationTrace{Action: actionName})
}

// Finalize writes the trace of res, or an empty trace when the operation did
// not produce a result.
func (w *traceFileWriter) Finalize(res *action.Result) error {
	if w == nil || !w.enabled {
		return nil
	}
	if res != nil {
		return w.writeTrace(res.Trace)
	}
	return w.writeTrace(trace.OperationTrace{Action: w.action, InputHash: w.inputHash})
}

func (w *traceFileWriter) writeTrace(t trace.OperationTrace) error {
	b, err := t.CanonicalJSON()
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, b, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
