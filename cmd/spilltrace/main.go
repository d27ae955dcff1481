// spilltrace - register spill trace analysis
//
// spilltrace streams SPILL trace logs and reports duration statistics,
// program counter hot spots, and samples, without loading the log into memory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccollicutt/spilltrace/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
