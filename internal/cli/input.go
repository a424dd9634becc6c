package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"itemweaver/internal/action"
	"itemweaver/internal/config"
)

const (
	ExitSuccess           = 0
	ExitOperationFailure  = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// SourceKind says where an item collection comes from.
type SourceKind int

const (
	// SourceAbsent means the input was not given at all.
	SourceAbsent SourceKind = iota
	// SourceFile is a YAML or JSON item file.
	SourceFile
	// SourceInclude is a ';'-separated include list.
	SourceInclude
)

// ItemSource is a canonical reference to one collection input.
type ItemSource struct {
	Kind SourceKind
	// Path is the resolved item file (SourceFile).
	Path string
	// Include is the raw include list (SourceInclude).
	Include string
	// Original is the flag value as given.
	Original string
}

type TraceConfig struct {
	Enabled bool
	Path    string
}

// Invocation is the fully canonicalized, deterministic description of a run.
//
// All paths are normalized (Clean) and relative paths are resolved against
// WorkDir.
//
// NOTE: WorkDir is required and must be absolute; this prevents any dependency
// on the process current working directory.
type Invocation struct {
	Action  action.Kind
	WorkDir string

	Items1 ItemSource
	Items2 ItemSource

	Position    int
	PositionSet bool
	ItemString  string
	Separator   string
	InString    string
	ProjectFile string

	ConfigPath string
	// Format and Template override the config file when non-empty.
	Format     string
	Template   string
	OutputPath string
	Trace      TraceConfig
	Verbose    bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// rawFlags holds flag values before canonicalization.
type rawFlags struct {
	action      string
	workDir     string
	items1      string
	items2      string
	position    int
	itemString  string
	separator   string
	inString    string
	projectFile string
	configPath  string
	format      string
	template    string
	output      string
	trace       string
	verbose     bool
}

func (f *rawFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.action, "action", "", "Operation to run (see 'itemweaver actions'). Required.")
	fs.StringVar(&f.workDir, "workdir", "", "Absolute working directory. Required.")
	fs.StringVar(&f.items1, "items1", "", "First item collection: item file (.yaml/.yml/.json) or ';'-separated include list.")
	fs.StringVar(&f.items2, "items2", "", "Second item collection, same forms as --items1.")
	fs.IntVar(&f.position, "position", 0, "Zero-based position for GetItem.")
	fs.StringVar(&f.itemString, "item-string", "", "Delimited string for StringToItemCollection.")
	fs.StringVar(&f.separator, "separator", "", "Literal separator for StringToItemCollection.")
	fs.StringVar(&f.inString, "in-string", "", "Input string for Escape.")
	fs.StringVar(&f.projectFile, "project-file", "", "Build script path for GetCurrentDirectory.")
	fs.StringVar(&f.configPath, "config", "", "Configuration file (optional).")
	fs.StringVar(&f.format, "format", "", "Output format: yaml|json|text (overrides config).")
	fs.StringVar(&f.template, "template", "", "Template for --format text (overrides config).")
	fs.StringVar(&f.output, "output", "", "Write the result to this file instead of stdout.")
	fs.StringVar(&f.trace, "trace", "", "Trace output path (optional).")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging.")
}

// newParseCommand returns a command that only parses flags. It carries the
// same flag set as the root command.
func newParseCommand() (*cobra.Command, *rawFlags) {
	var f rawFlags
	cmd := &cobra.Command{Use: "itemweaver", SilenceErrors: true, SilenceUsage: true}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	f.bind(cmd)
	return cmd, &f
}

// ParseInvocation parses CLI flags into a canonical Invocation.
//
// Determinism goals:
//   - Does not read env vars.
//   - Does not read/assume the process CWD.
//   - Requires WorkDir to be explicit and absolute.
func ParseInvocation(args []string) (Invocation, error) {
	cmd, f := newParseCommand()
	if err := cmd.ParseFlags(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if rest := cmd.Flags().Args(); len(rest) != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(rest, " "))
	}
	return f.invocation(cmd)
}

func (f *rawFlags) invocation(cmd *cobra.Command) (Invocation, error) {
	changed := cmd.Flags().Changed

	if f.action == "" {
		return Invocation{}, invalidInvocationf("--action is required")
	}
	kind, err := action.ParseKind(f.action)
	if err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}

	if f.workDir == "" {
		return Invocation{}, invalidInvocationf("--workdir is required")
	}
	workDir := filepath.Clean(f.workDir)
	if !filepath.IsAbs(workDir) {
		return Invocation{}, invalidInvocationf("--workdir must be an absolute path (got %q)", f.workDir)
	}

	if kind == action.KindGetItem && !changed("position") {
		return Invocation{}, invalidInvocationf("--position is required for %s", kind)
	}

	format := strings.ToLower(strings.TrimSpace(f.format))
	switch format {
	case "", config.FormatYAML, config.FormatJSON, config.FormatText:
	default:
		return Invocation{}, invalidInvocationf("invalid --format %q (expected yaml|json|text)", f.format)
	}

	inv := Invocation{
		Action:      kind,
		WorkDir:     workDir,
		Position:    f.position,
		PositionSet: changed("position"),
		ItemString:  f.itemString,
		Separator:   f.separator,
		InString:    f.inString,
		ProjectFile: f.projectFile,
		Format:      format,
		Template:    f.template,
		Verbose:     f.verbose,
	}

	if changed("items1") {
		if inv.Items1, err = resolveSource(workDir, f.items1); err != nil {
			return Invocation{}, err
		}
	}
	if changed("items2") {
		if inv.Items2, err = resolveSource(workDir, f.items2); err != nil {
			return Invocation{}, err
		}
	}
	if f.configPath != "" {
		if inv.ConfigPath, err = resolveUnderWorkDir(workDir, f.configPath); err != nil {
			return Invocation{}, err
		}
	}
	if f.output != "" {
		if inv.OutputPath, err = resolveUnderWorkDir(workDir, f.output); err != nil {
			return Invocation{}, err
		}
	}
	if strings.TrimSpace(f.trace) != "" {
		resolvedTrace, err := resolveUnderWorkDir(workDir, f.trace)
		if err != nil {
			return Invocation{}, err
		}
		inv.Trace = TraceConfig{Enabled: true, Path: resolvedTrace}
	}
	return inv, nil
}

// resolveSource classifies a collection flag value. Values naming a .yaml,
// .yml or .json file are item files; everything else, including the empty
// string, is an include list.
func resolveSource(workDir, raw string) (ItemSource, error) {
	if isItemFile(raw) {
		p, err := resolveUnderWorkDir(workDir, raw)
		if err != nil {
			return ItemSource{}, err
		}
		return ItemSource{Kind: SourceFile, Path: p, Original: raw}, nil
	}
	return ItemSource{Kind: SourceInclude, Include: raw, Original: raw}, nil
}

func isItemFile(raw string) bool {
	if strings.Contains(raw, ";") || strings.ContainsAny(raw, "*?[") {
		return false
	}
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(raw))) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if clean == "." {
		return "", invalidInvocationf("path must not be '.'")
	}

	// If absolute, accept as-is; it is still deterministic.
	// If relative, resolve under WorkDir.
	if filepath.IsAbs(clean) {
		return clean, nil
	}

	// WorkDir is required to be absolute, so Join does not consult process CWD.
	return filepath.Clean(filepath.Join(workDir, clean)), nil
}

// ExitCode extracts a semantic exit code from an error.
// If the error is not a known error, it returns ExitInternalError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	switch action.ErrorKind(err) {
	case "MissingInputError", "IndexOutOfRangeError":
		return ExitOperationFailure
	case "UnsupportedOperationError":
		return ExitInvalidInvocation
	}
	return ExitInternalError
}
