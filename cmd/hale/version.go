package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/kahiteam/hale/internal/version"
)

func printVersion(w io.Writer) error {
	for _, line := range []string{
		fmt.Sprintf("hale %s", version.Version),
		fmt.Sprintf("  commit:  %s", version.Commit),
		fmt.Sprintf("  built:   %s", version.Date),
		fmt.Sprintf("  go:      %s", version.Go()),
		fmt.Sprintf("  os/arch: %s/%s", runtime.GOOS, runtime.GOARCH),
	} {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
