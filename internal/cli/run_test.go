package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	icl "itemweaver/internal/cli"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func run(t *testing.T, args ...string) (icl.CLIResult, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	res, err := icl.Run(context.Background(), args, icl.Streams{Out: &out, Err: &errOut})
	return res, out.String(), err
}

func TestDeterministicInvocation_IdenticalRunsIdenticalOutput(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "a.yaml"), "items:\n  - identity: how\n  - identity: hello\n  - identity: are\n")
	args := []string{
		"--workdir", workDir,
		"--action", "Sort",
		"--items1", "a.yaml",
		"--format", "json",
		"--trace", "trace.json",
	}

	res1, out1, err := run(t, args...)
	if err != nil || res1.ExitCode != icl.ExitSuccess {
		t.Fatalf("run1 failed: exit=%d err=%v", res1.ExitCode, err)
	}
	tr1 := readFile(t, filepath.Join(workDir, "trace.json"))

	res2, out2, err := run(t, args...)
	if err != nil || res2.ExitCode != icl.ExitSuccess {
		t.Fatalf("run2 failed: exit=%d err=%v", res2.ExitCode, err)
	}
	tr2 := readFile(t, filepath.Join(workDir, "trace.json"))

	if out1 != out2 {
		t.Fatalf("output differs across identical runs")
	}
	if string(tr1) != string(tr2) {
		t.Fatalf("trace differs across identical runs")
	}

	var doc struct {
		Items []struct {
			Identity string `json:"identity"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out1), &doc); err != nil {
		t.Fatalf("output not valid json: %v", err)
	}
	var got []string
	for _, it := range doc.Items {
		got = append(got, it.Identity)
	}
	if strings.Join(got, ",") != "are,hello,how" {
		t.Fatalf("unexpected sort result %v", got)
	}
}

func TestScenarios_TextOutput(t *testing.T) {
	workDir := t.TempDir()
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"sort", []string{"--action", "Sort", "--items1", "how;hello;are"}, "are\nhello\nhow\n"},
		{"get item", []string{"--action", "GetItem", "--items1", "hello;how;are", "--position", "1"}, "how\n"},
		{"get last item", []string{"--action", "GetLastItem", "--items1", "hello;how;are"}, "are\n"},
		{"common", []string{"--action", "GetCommonItems", "--items1", "hello;how", "--items2", "how;bye"}, "how\n1\n"},
		{"distinct", []string{"--action", "GetDistinctItems", "--items1", "hello;how;are", "--items2", "hello;bye"}, "how\nare\nbye\n3\n"},
		{"dedup", []string{"--action", "RemoveDuplicateFiles", "--items1", `a/x.cs;b/x.cs;c\y.cs`}, "a/x.cs\nc\\y.cs\n2\n"},
		{"split", []string{"--action", "StringToItemCollection", "--item-string", "a||b||||c", "--separator", "||"}, "a\nb\nc\n3\n"},
		{"count", []string{"--action", "GetItemCount", "--items1", "a;b;a"}, "3\n"},
		{"escape", []string{"--action", "Escape", "--in-string", "$(Foo);bar"}, "%24%28Foo%29%3bbar\n"},
		{"directory", []string{"--action", "GetCurrentDirectory", "--project-file", "src/app/app.proj"}, filepath.Join(workDir, "src", "app") + "\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"--workdir", workDir, "--format", "text"}, tc.args...)
			res, out, err := run(t, args...)
			if err != nil || res.ExitCode != icl.ExitSuccess {
				t.Fatalf("exit=%d err=%v", res.ExitCode, err)
			}
			if out != tc.want {
				t.Fatalf("unexpected output\nwant=%q\ngot =%q", tc.want, out)
			}
		})
	}
}

func TestGlobInclude_ExpandsSortedUnderWorkDir(t *testing.T) {
	workDir := t.TempDir()
	for _, f := range []string{"src/z.cs", "src/a.cs", "src/sub/a.cs", "src/readme.md"} {
		writeFile(t, filepath.Join(workDir, filepath.FromSlash(f)), f)
	}

	res, out, err := run(t, "--workdir", workDir, "--format", "text",
		"--action", "RemoveDuplicateFiles", "--items1", "src/**/*.cs")
	if err != nil || res.ExitCode != icl.ExitSuccess {
		t.Fatalf("exit=%d err=%v", res.ExitCode, err)
	}
	if out != "src/a.cs\nsrc/z.cs\n2\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOperationFailure_NoOutputAndStableExitCode(t *testing.T) {
	workDir := t.TempDir()
	args := []string{
		"--workdir", workDir,
		"--action", "GetItem",
		"--items1", "hello;how;are",
		"--position", "5",
		"--output", "out/result.yaml",
		"--trace", "trace.json",
	}

	res1, out1, err1 := run(t, args...)
	res2, _, err2 := run(t, args...)
	if res1.ExitCode != icl.ExitOperationFailure || res2.ExitCode != icl.ExitOperationFailure {
		t.Fatalf("expected exit %d, got %d and %d", icl.ExitOperationFailure, res1.ExitCode, res2.ExitCode)
	}
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Fatalf("expected deterministic errors: %v / %v", err1, err2)
	}
	if !strings.Contains(err1.Error(), "position 5") || !strings.Contains(err1.Error(), "size of the item collection: 3") {
		t.Fatalf("unexpected message: %v", err1)
	}
	if out1 != "" || res1.Result != nil {
		t.Fatalf("expected no output on failure")
	}
	if _, err := os.Stat(filepath.Join(workDir, "out", "result.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected no output file on failure")
	}

	var tr struct {
		Action    string            `json:"action"`
		InputHash string            `json:"inputHash"`
		Events    []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(readFile(t, filepath.Join(workDir, "trace.json")), &tr); err != nil {
		t.Fatalf("trace json invalid: %v", err)
	}
	if tr.Action != "GetItem" || tr.InputHash == "" || len(tr.Events) != 0 {
		t.Fatalf("unexpected failure trace: %+v", tr)
	}
}

func TestMissingInput_ExitsWithOperationFailure(t *testing.T) {
	workDir := t.TempDir()
	res, _, err := run(t, "--workdir", workDir, "--action", "GetCommonItems", "--items1", "a")
	if res.ExitCode != icl.ExitOperationFailure {
		t.Fatalf("expected exit %d, got %d (err=%v)", icl.ExitOperationFailure, res.ExitCode, err)
	}
	if err == nil || !strings.Contains(err.Error(), "items2") {
		t.Fatalf("expected error naming items2, got %v", err)
	}
}

func TestInvalidInvocation_DeterministicAndExplainable(t *testing.T) {
	workDir := t.TempDir()
	args := []string{"--workdir", workDir, "--action", "Shuffle"}

	res1, _, err1 := run(t, args...)
	res2, _, err2 := run(t, args...)
	if res1.ExitCode != icl.ExitInvalidInvocation || res2.ExitCode != icl.ExitInvalidInvocation {
		t.Fatalf("expected exit 2, got %d and %d", res1.ExitCode, res2.ExitCode)
	}
	if err1 == nil || err2 == nil {
		t.Fatalf("expected errors")
	}
	if err1.Error() != err2.Error() {
		t.Fatalf("expected deterministic error message")
	}

	res, _, err := run(t, "--workdir", workDir, "--bogus")
	if res.ExitCode != icl.ExitInvalidInvocation || err == nil {
		t.Fatalf("expected exit 2 for unknown flag, got %d (err=%v)", res.ExitCode, err)
	}
}

func TestConfigError_BadItemFileAndConfig(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "bad.json"), `{"items":[{"name":"x"}]}`)
	writeFile(t, filepath.Join(workDir, "conf.yaml"), "output:\n  format: xml\n")

	res, _, err := run(t, "--workdir", workDir, "--action", "Sort", "--items1", "bad.json")
	if res.ExitCode != icl.ExitConfigError || err == nil {
		t.Fatalf("expected exit %d for bad item file, got %d (err=%v)", icl.ExitConfigError, res.ExitCode, err)
	}

	res, _, err = run(t, "--workdir", workDir, "--action", "Sort", "--items1", "a", "--config", "conf.yaml")
	if res.ExitCode != icl.ExitConfigError || err == nil {
		t.Fatalf("expected exit %d for bad config, got %d (err=%v)", icl.ExitConfigError, res.ExitCode, err)
	}

	res, _, err = run(t, "--workdir", workDir, "--action", "Sort", "--items1", "missing.yaml")
	if res.ExitCode != icl.ExitConfigError || err == nil {
		t.Fatalf("expected exit %d for missing item file, got %d (err=%v)", icl.ExitConfigError, res.ExitCode, err)
	}
}

func TestConfigFile_SelectsFormatAndFlagOverrides(t *testing.T) {
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "conf.yaml"), "output:\n  format: text\n  template: \"{{ len .Items }}\"\nlogging:\n  level: error\n")

	_, out, err := run(t, "--workdir", workDir, "--action", "Sort", "--items1", "b;a", "--config", "conf.yaml")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out != "2" {
		t.Fatalf("expected config template output, got %q", out)
	}

	_, out, err = run(t, "--workdir", workDir, "--action", "Sort", "--items1", "b;a", "--config", "conf.yaml", "--template", "{{ range .Items }}{{ .Identity }}{{ end }}")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out != "ab" {
		t.Fatalf("expected flag template to win, got %q", out)
	}
}

func TestOutputFile_WrittenUnderWorkDir(t *testing.T) {
	workDir := t.TempDir()
	otherCwd := t.TempDir()
	oldCwd, _ := os.Getwd()
	_ = os.Chdir(otherCwd)
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })

	res, out, err := run(t, "--workdir", workDir, "--action", "GetLastItem", "--items1", "a;b",
		"--format", "text", "--output", "results/last.txt", "--trace", "traces/t.json")
	if err != nil || res.ExitCode != icl.ExitSuccess {
		t.Fatalf("exit=%d err=%v", res.ExitCode, err)
	}
	if out != "" {
		t.Fatalf("expected nothing on stdout, got %q", out)
	}
	if got := string(readFile(t, filepath.Join(workDir, "results", "last.txt"))); got != "b\n" {
		t.Fatalf("unexpected output file %q", got)
	}
	if _, err := os.Stat(filepath.Join(workDir, "traces", "t.json")); err != nil {
		t.Fatalf("expected trace under workdir: %v", err)
	}
}

func TestActionsCommand_ListsEveryAction(t *testing.T) {
	res, out, err := run(t, "actions")
	if err != nil || res.ExitCode != icl.ExitSuccess {
		t.Fatalf("exit=%d err=%v", res.ExitCode, err)
	}
	for _, name := range []string{"Sort", "GetItem", "GetLastItem", "GetCommonItems", "GetDistinctItems",
		"RemoveDuplicateFiles", "StringToItemCollection", "GetItemCount", "Escape", "GetCurrentDirectory"} {
		if !strings.Contains(out, name) {
			t.Fatalf("actions output missing %s:\n%s", name, out)
		}
	}
}

func TestCancelledContext_IsInternalError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := icl.Run(ctx, []string{"--workdir", t.TempDir(), "--action", "Sort", "--items1", "a"}, icl.Streams{})
	if res.ExitCode != icl.ExitInternalError || err == nil {
		t.Fatalf("expected exit %d, got %d (err=%v)", icl.ExitInternalError, res.ExitCode, err)
	}
}
