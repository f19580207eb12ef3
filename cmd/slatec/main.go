package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slate/compile"
	"slate/compiler/exec"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := compile.DefaultPipelineOptions()

	cmd := &cobra.Command{
		Use:   "slatec <input> [<ir-output>]",
		Short: "compile a source file, run its entry function and print the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceFile = args[0]

			result, err := compile.Pipeline(opts)
			if err != nil {
				if result != nil && result.Diagnostic != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), result.Diagnostic.Annotate(result.SourceCode))
				}
				return err
			}

			out := cmd.OutOrStdout()
			irText := result.Module.String()
			fmt.Fprintln(out, "===============    IR    =================")
			fmt.Fprint(out, irText)
			fmt.Fprintln(out, "==========================================")

			if len(args) > 1 {
				if err := os.WriteFile(args[1], []byte(irText), 0o644); err != nil {
					return err
				}
			}

			value, err := exec.New(result.Module).Run("entry")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "return:%v\n", value)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&opts.DumpTokens, "dump-tokens", false, "dump the token stream")
	cmd.Flags().BoolVar(&opts.DumpAST, "emit-ast", false, "dump the parsed node tree")
	cmd.Flags().BoolVar(&opts.Verbose, "verbose", false, "trace the pipeline stages")
	return cmd
}
