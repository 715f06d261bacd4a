package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// exitStatus carries the supervisor's exit code out of cobra.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "hale [flags] command [args...]",
		Short: "hale -- minimal init system for containers",
		Long: `hale runs a single program as PID 1. It forwards signals to the
program (by default to its whole process group), reaps every orphaned
descendant, and exits with the program's exit status.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o, args)
		},
	}
	o.register(cmd)
	// Everything after the command belongs to the command.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// exitCode reports err on w and maps it to a process exit code.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var st exitStatus
	if errors.As(err, &st) {
		return int(st)
	}
	fmt.Fprintf(w, "hale: %v\nTry 'hale --help' for full usage.\n", err)
	return 1
}

func main() {
	cmd := newRootCmd()
	os.Exit(exitCode(os.Stderr, cmd.Execute()))
}
