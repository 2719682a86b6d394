package main

import (
	"os"
	"runtime"

	"gopkg.in/alecthomas/kingpin.v2"

	"taxaformer/internal/config"
)

func main() {
	app := kingpin.New("taxareport", "Render PDF reports and exports from saved Taxaformer analysis results")
	app.Version("v0.1")

	render := app.Command("render", "render one result file to a PDF report")
	renderIn := render.Flag("input", "result file (.json or .csv)").Short('i').Required().ExistingFile()
	renderOut := render.Flag("out", "output PDF path (default: generated report name)").Short('o').Default("").String()

	exp := app.Command("export", "export the sequences of a result file")
	expIn := exp.Flag("input", "result file (.json or .csv)").Short('i').Required().ExistingFile()
	expFormat := exp.Flag("format", "csv or json").Default("csv").Enum("csv", "json")
	expOut := exp.Flag("out", "output path, - for stdout").Short('o').Default("-").String()

	batch := app.Command("batch", "render a report for every result file in a directory")
	batchDir := batch.Flag("dir", "input directory").Required().ExistingDir()
	batchOut := batch.Flag("out", "output directory").Required().String()
	batchCPU := batch.Flag("ncpu", "number of workers").Default("0").Int()
	batchProgress := batch.Flag("progress", "show progress").Default("true").Bool()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, "taxareport")
	opts := reportOptions(cfg)

	switch cmd {
	case render.FullCommand():
		path, pages, err := renderFile(*renderIn, *renderOut, opts)
		if err != nil {
			logger.Fatal("render report", "input", *renderIn, "err", err)
		}
		logger.Info("report written", "path", path, "pages", pages)
	case exp.FullCommand():
		if err := exportFile(*expIn, *expFormat, *expOut, os.Stdout); err != nil {
			logger.Fatal("export", "input", *expIn, "err", err)
		}
	case batch.FullCommand():
		ncpu := *batchCPU
		if ncpu <= 0 {
			ncpu = runtime.NumCPU()
		}
		summary, err := renderDir(*batchDir, *batchOut, opts, ncpu, *batchProgress)
		if err != nil {
			logger.Fatal("batch", "dir", *batchDir, "err", err)
		}
		for _, f := range summary.Failed {
			logger.Warn("report failed", "input", f.Input, "err", f.Err)
		}
		logger.Info("batch finished", "rendered", len(summary.Rendered), "failed", len(summary.Failed), "out", *batchOut)
	}
}
