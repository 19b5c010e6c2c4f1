// Command trafficguru runs a terminal-only simulation of a four-way
// intersection arbitrated by the banker's algorithm, reporting derived
// metrics at the configured interval and on exit.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcortez/trafficguru/internal/config"
	"github.com/jcortez/trafficguru/internal/csvreport"
	"github.com/jcortez/trafficguru/internal/display"
	"github.com/jcortez/trafficguru/internal/quadrant"
	"github.com/jcortez/trafficguru/internal/simulation"
)

const reportInterval = 2 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("trafficguru: %v", err)
	}

	sim := simulation.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	go func() {
		for sig := range signals {
			switch sig {
			case syscall.SIGUSR1:
				laneID := quadrant.Lane(int(time.Now().UnixNano()/1e6) % int(quadrant.NumLanes))
				sim.Submit(simulation.NewControlEvent(simulation.TriggerEmergency, laneID))
			default:
				log.Println("trafficguru: shutdown signal received, finishing current tick...")
				sim.RequestShutdown()
				cancel()
				return
			}
		}
	}()

	var csvWriter *csvreport.Writer
	var csvFile *os.File
	if cfg.CSVPath != "" {
		f, err := os.Create(cfg.CSVPath)
		if err != nil {
			log.Fatalf("trafficguru: opening csv report: %v", err)
		}
		csvFile = f
		csvWriter = csvreport.NewWriter(f)
	}

	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-done:
			break loop
		case <-ticker.C:
			report := sim.MetricsReport()
			display.PrintLanes(os.Stdout, sim.Lanes())
			display.PrintReport(os.Stdout, report)
			if csvWriter != nil {
				if err := csvWriter.WriteRow(report); err != nil {
					log.Printf("trafficguru: csv write: %v", err)
				}
			}
		}
	}

	final := sim.MetricsReport()
	display.PrintReport(os.Stdout, final)
	if csvWriter != nil {
		if err := csvWriter.WriteRow(final); err != nil {
			log.Printf("trafficguru: final csv write: %v", err)
		}
		csvFile.Close()
		fmt.Fprintf(os.Stdout, "report written to %s\n", cfg.CSVPath)
	}
}
