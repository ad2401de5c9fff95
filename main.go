package main

import (
	"erdv/cmd"
	"erdv/internal/errs"
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(errs.ExitPanic)
		}
	}()

	if err := cmd.Execute(); err != nil {
		os.Exit(errs.ExitCode(err))
	}
}
