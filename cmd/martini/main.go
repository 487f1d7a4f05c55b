// Command martini runs the quick relative-orientation pipeline.
//
//	martini <Pattern> [OriCalib=..] [Exe=0|1] [SH=..] [ExtName=..] [ModeNO=Std] [Bin=..] [Ledger=..] [Config=..]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/martini/internal/driver"
	"github.com/banshee-data/martini/internal/monitoring"
)

func main() {
	monitoring.SetOutput(os.Stderr, "martini: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := driver.Main(ctx, os.Args[1:], true, driver.Options{})
	stop()
	os.Exit(code)
}
