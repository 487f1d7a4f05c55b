// Command martinigin runs the full (non-quick) relative-orientation pipeline.
// It accepts the same arguments as martini.
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
	monitoring.SetOutput(os.Stderr, "martinigin: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := driver.Main(ctx, os.Args[1:], false, driver.Options{})
	stop()
	os.Exit(code)
}
