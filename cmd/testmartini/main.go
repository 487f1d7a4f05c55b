// Command testmartini fuzzes Ratafia and Martini with random parameters
// until interrupted.
//
//	testmartini <Pattern> [OriCalib=..] [K0=0] [NbIter=0] [Seed=0] [Bin=..] [Ledger=..] [Config=..]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/martini/internal/harness"
	"github.com/banshee-data/martini/internal/monitoring"
)

func main() {
	monitoring.SetOutput(os.Stderr, "testmartini: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := harness.Main(ctx, os.Args[1:], harness.Options{})
	stop()
	os.Exit(code)
}
