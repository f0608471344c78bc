// Command wwvsync runs the WWV/WWVH sync-recovery pipeline: it reads an
// I/Q sample stream (a recorded capture, or a synthetic generator for
// demonstration), recovers tick/marker/BCD events and the one-second
// epoch, and streams telemetry over UDP, to a CSV file, and via
// Prometheus.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/wwvsync/internal/config"
	"github.com/cwsl/wwvsync/internal/control"
	"github.com/cwsl/wwvsync/internal/pipeline"
	"github.com/cwsl/wwvsync/internal/telemetry"
	"github.com/cwsl/wwvsync/internal/transport"
	"github.com/cwsl/wwvsync/internal/tunables"
)

var (
	configPath = flag.String("config", "", "path to YAML config file (defaults built in if empty)")
	synthetic  = flag.Bool("synthetic", false, "generate a synthetic WWV signal instead of reading input.capture_file")
	blockSize  = flag.Int("block", 4096, "samples per ingest block")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("wwvsync: %v", err)
		}
		cfg = loaded
	}

	table := tunables.NewTable()
	if cfg.Tunables.LoadOnStart {
		if warnings, err := table.Load(cfg.Tunables.INIPath); err != nil {
			log.Printf("wwvsync: no existing tunables file at %s, using defaults: %v", cfg.Tunables.INIPath, err)
		} else {
			for _, w := range warnings {
				log.Printf("wwvsync: tunables load warning: %s", w)
			}
		}
	}

	sinks := []telemetry.Sink{}
	if csv, err := telemetry.NewCSVSink(cfg.Telemetry.CSVPath); err != nil {
		log.Printf("wwvsync: telemetry CSV disabled: %v", err)
	} else {
		defer csv.Close()
		sinks = append(sinks, csv)
	}
	if udp, err := telemetry.NewUDPSink(cfg.Telemetry.UDPHost, cfg.Telemetry.UDPPort); err != nil {
		log.Printf("wwvsync: telemetry UDP disabled: %v", err)
	} else {
		defer udp.Close()
		sinks = append(sinks, udp)
	}
	emitter := telemetry.NewEmitter(sinks...)
	metrics := telemetry.NewMetrics()

	pl, err := pipeline.New(pipeline.DefaultConfig(cfg.Input.SampleRateHz), table, emitter, metrics)
	if err != nil {
		log.Fatalf("wwvsync: %v", err)
	}

	parser := control.NewParser(table, emitter, cfg.Tunables.INIPath, cfg.Control.MaxCmdsPerSec)
	listener, err := control.NewListener(cfg.Control.ListenAddr, parser)
	if err != nil {
		log.Printf("wwvsync: control listener disabled: %v", err)
	} else {
		go func() {
			if err := listener.Serve(); err != nil {
				log.Printf("wwvsync: control listener stopped: %v", err)
			}
		}()
		defer listener.Close()
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.ListenAddr, nil); err != nil {
			log.Printf("wwvsync: metrics endpoint stopped: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *synthetic || cfg.Input.CaptureFile == "" {
		runSynthetic(pl, cfg.Input.SampleRateHz, *blockSize, ctx.Done())
		return
	}
	if err := runCapture(pl, cfg.Input.CaptureFile, cfg.Input.SampleRateHz); err != nil {
		log.Fatalf("wwvsync: %v", err)
	}
}

func runSynthetic(pl *pipeline.Pipeline, rateHz float64, block int, stop <-chan struct{}) {
	gen := transport.NewGenerator(transport.DefaultSyntheticParams(rateHz), 0x5eed)
	log.Printf("wwvsync: running synthetic signal at %.0f Hz", rateHz)
	first := true
	for {
		select {
		case <-stop:
			log.Printf("wwvsync: shutting down")
			return
		default:
		}
		samples := gen.Next(block)
		pl.IngestBlock(samples, first)
		first = false
	}
}

func runCapture(pl *pipeline.Pipeline, path string, rateHz float64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open capture %s: %w", path, err)
	}
	defer f.Close()

	reader := transport.NewFrameReader(f, uint32(rateHz))
	first := true
	for {
		samples, err := reader.Next()
		if err != nil {
			log.Printf("wwvsync: capture finished: %v", err)
			return nil
		}
		pl.IngestBlock(samples, first)
		first = false
		// Yield periodically so out-of-band consumers (control commands,
		// telemetry flush) get scheduled.
		time.Sleep(0)
	}
}
