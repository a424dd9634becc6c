package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"itemweaver/internal/action"
)

// NewRootCommand builds the itemweaver command tree. The outcome of the
// operation, if one ran, is stored in res.
func NewRootCommand(streams Streams, res *CLIResult) *cobra.Command {
	var f rawFlags
	root := &cobra.Command{
		Use:   "itemweaver",
		Short: "Deterministic item collection operations",
		Long: `itemweaver runs one item collection operation per invocation.

Collections are read from item files (.yaml, .yml, .json) or from
';'-separated include lists resolved under --workdir. The result is
written to stdout, or to --output, in the configured format.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := f.invocation(cmd)
			if err != nil {
				res.ExitCode = ExitCode(err)
				return err
			}
			out, err := Execute(cmd.Context(), inv, streams)
			*res = out
			return err
		},
	}
	root.SetOut(streams.out())
	root.SetErr(streams.err())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})
	f.bind(root)

	root.AddCommand(newActionsCommand(streams))
	return root
}

func newActionsCommand(streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the supported actions and their inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(streams.out(), 0, 4, 2, ' ', 0)
			for _, k := range action.All() {
				fmt.Fprintf(tw, "%s\t%s\n", k, strings.Join(k.Inputs(), ", "))
			}
			return tw.Flush()
		},
	}
}

// Run parses args and executes the resulting invocation.
func Run(ctx context.Context, args []string, streams Streams) (CLIResult, error) {
	res := CLIResult{ExitCode: ExitSuccess}
	root := NewRootCommand(streams, &res)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if res.ExitCode == ExitSuccess {
			// Errors raised by cobra itself (unknown command, stray
			// arguments) are invocation errors.
			res.ExitCode = ExitInvalidInvocation
			if code := ExitCode(err); code != ExitInternalError {
				res.ExitCode = code
			}
		}
		return res, err
	}
	return res, nil
}
