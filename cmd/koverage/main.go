// Koverage computes per-sample, per-contig coverage statistics from paired
// FASTQ reads and a FASTA reference assembly. It delegates the alignment to
// minimap2 and orchestrates the per-sample work as a task graph: one mapping
// and one coverage-statistics task per sample, aggregated into a combined
// gzipped table at the end.
//
// A typical invocation:
//
//	koverage --reference asm.fasta --reads reads/ --output results/ --threads 16
//
// or with a YAML configuration file:
//
//	koverage --config koverage.yaml
//
// Flags override the configuration file. --draw writes the workflow DAG as a
// Graphviz DOT file instead of running.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/telatin/Koverage/internal/app"
	"github.com/telatin/Koverage/internal/config"
	"github.com/telatin/Koverage/internal/samples"
	"github.com/telatin/Koverage/pkg/runner"
	"github.com/telatin/Koverage/pkg/workflow/bench"
	"github.com/telatin/Koverage/pkg/workflow/drawer"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML configuration file")
		reference    = flag.String("reference", "", "reference assembly FASTA")
		reads        = flag.String("reads", "", "directory with paired read files")
		output       = flag.String("output", "", "output directory (default \"results\")")
		threads      = flag.Int("threads", 0, "global thread budget (default: all CPUs)")
		keepTemp     = flag.Bool("keep-temp", false, "keep the transient per-sample files")
		noAlignments = flag.Bool("no-alignments", false, "discard the compressed alignment streams")
		minimapPath  = flag.String("minimap2", "", "minimap2 executable (default \"minimap2\")")
		preset       = flag.String("preset", "", "minimap2 preset (default \"sr\")")
		draw         = flag.String("draw", "", "write the workflow DAG to this DOT file and exit")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "koverage: ", log.LstdFlags)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
	}
	if *reference != "" {
		cfg.Reference = *reference
	}
	if *reads != "" {
		cfg.Reads = *reads
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *keepTemp {
		cfg.KeepTemp = true
	}
	if *noAlignments {
		cfg.Map.KeepAlignments = false
	}
	if *minimapPath != "" {
		cfg.Minimap.Path = *minimapPath
	}
	if *preset != "" {
		cfg.Minimap.Preset = *preset
	}

	err := run(cfg, logger, *draw)
	if err != nil {
		logger.Fatal(err)
	}
}

func run(cfg config.Config, logger *log.Logger, drawPath string) error {
	recorder := bench.NewRecorder()
	mm := runner.NewMinimap2(cfg.Minimap.Path,
		runner.WithPreset(cfg.Minimap.Preset),
		runner.WithRecorder(recorder),
	)
	a := app.New(cfg, mm, logger)

	if drawPath != "" {
		err := cfg.Validate()
		if err != nil {
			return err
		}
		sampleList, err := samples.Scan(cfg.Reads)
		if err != nil {
			return err
		}
		w, err := a.BuildWorkflow(sampleList)
		if err != nil {
			return err
		}

		return drawer.Render(w, drawer.NewDOTDrawer(drawPath))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := a.Run(ctx)
	if err != nil {
		return err
	}

	summary(recorder, logger, cfg)

	return nil
}

// summary prints the per-sample mapping times collected during the run.
func summary(recorder *bench.Recorder, logger *log.Logger, cfg config.Config) {
	sampleList, err := samples.Scan(cfg.Reads)
	if err != nil {
		return
	}

	for _, sample := range sampleList {
		rec, ok := recorder.Get("map." + sample.Name)
		if !ok {
			continue
		}
		logger.Printf("sample %s: mapped in %s (cpu %s)", sample.Name, rec.Wall.Round(time.Millisecond), rec.CPU.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "koverage: results in %s\n", cfg.Output)
}
