// Command martini-report prints and plots a run recorded in the ledger.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/martini/internal/config"
	"github.com/banshee-data/martini/internal/monitoring"
	"github.com/banshee-data/martini/internal/report"
	"github.com/banshee-data/martini/internal/runlog"
	"github.com/banshee-data/martini/internal/security"
	"github.com/banshee-data/martini/internal/version"
)

func main() {
	monitoring.SetOutput(os.Stderr, "martini-report: ")
	log.SetPrefix("martini-report: ")

	err := run(os.Args[1:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

// run parses args, resolves the ledger and output directory against the
// config file, and writes the report of the selected run.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("martini-report", flag.ContinueOnError)
	var (
		configPath  = fs.String("config", "", "path to JSON configuration file")
		ledgerPath  = fs.String("ledger", "", "path to the run ledger (overrides config)")
		runID       = fs.String("run", "", "run ID to report on (default: latest run of -kind)")
		kind        = fs.String("kind", runlog.KindHarness, "run kind when -run is empty: martini or testmartini")
		outDir      = fs.String("out", "", "output directory for plots (overrides config)")
		showVersion = fs.Bool("version", false, "print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *ledgerPath == "" {
		*ledgerPath = cfg.LedgerPath
	}
	if *outDir == "" {
		*outDir = cfg.ReportDir
	}
	if *ledgerPath == "" {
		return errors.New("no ledger: pass -ledger or set ledger_path in the config")
	}
	if err := security.ValidateOutputDir(*outDir); err != nil {
		return fmt.Errorf("invalid -out: %w", err)
	}
	if *kind != runlog.KindHarness && *kind != runlog.KindDriver {
		return fmt.Errorf("invalid -kind %q", *kind)
	}

	ledger, err := runlog.Open(*ledgerPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer ledger.Close()

	res, err := report.Generate(ledger, report.Options{
		RunID:  *runID,
		Kind:   *kind,
		OutDir: *outDir,
		Stdout: stdout,
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for _, f := range res.Files {
		fmt.Fprintf(stdout, "wrote %s\n", f)
	}
	return nil
}
