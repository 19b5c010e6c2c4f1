// Package config defines the single configuration value populated once
// at startup and passed by pointer to every subsystem constructor,
// replacing the original's umbrella header of global constants with one
// owned value — per the specification's "single owned value passed by
// shared handle" rearchitecture note, applied to configuration as well
// as to the coordination singletons.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/jcortez/trafficguru/internal/simerr"
)

// Config holds every externally tunable parameter of a simulation run.
type Config struct {
	Duration      time.Duration
	ArrivalMin    time.Duration
	ArrivalMax    time.Duration
	Quantum       time.Duration
	Algorithm     string // sjf | mlfq | prr
	Strategy      string // fifo | banker | hybrid
	QueueCapacity int
	NoColor       bool
	Debug         bool
	CSVPath       string
}

// Default returns the specification's default configuration.
func Default() *Config {
	return &Config{
		Duration:      200 * time.Second,
		ArrivalMin:    1 * time.Second,
		ArrivalMax:    3 * time.Second,
		Quantum:       3 * time.Second,
		Algorithm:     "sjf",
		Strategy:      "hybrid",
		QueueCapacity: 20,
	}
}

// Parse builds a Config from command-line arguments, starting from
// Default() and overriding with any flags present in args.
func Parse(args []string) (*Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("trafficguru", flag.ContinueOnError)

	durationSec := fs.Int("duration", int(cfg.Duration.Seconds()), "simulation duration in seconds")
	arrivalMinSec := fs.Float64("arrival-min", cfg.ArrivalMin.Seconds(), "minimum inter-arrival time in seconds")
	arrivalMaxSec := fs.Float64("arrival-max", cfg.ArrivalMax.Seconds(), "maximum inter-arrival time in seconds")
	quantumSec := fs.Float64("quantum", cfg.Quantum.Seconds(), "base scheduling quantum in seconds")
	algorithm := fs.String("algorithm", cfg.Algorithm, "scheduling policy: sjf|mlfq|prr")
	strategy := fs.String("strategy", cfg.Strategy, "lock strategy: fifo|banker|hybrid")
	noColor := fs.Bool("no-color", false, "disable colored terminal output")
	debug := fs.Bool("debug", false, "enable verbose debug logging")
	csvPath := fs.String("csv", "", "write a metrics report to this CSV file on exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Duration = time.Duration(*durationSec) * time.Second
	cfg.ArrivalMin = time.Duration(*arrivalMinSec * float64(time.Second))
	cfg.ArrivalMax = time.Duration(*arrivalMaxSec * float64(time.Second))
	cfg.Quantum = time.Duration(*quantumSec * float64(time.Second))
	cfg.Algorithm = *algorithm
	cfg.Strategy = *strategy
	cfg.NoColor = *noColor
	cfg.Debug = *debug
	cfg.CSVPath = *csvPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports a *FATAL_INIT-class error for any configuration value
// that would leave a subsystem unable to start.
func (c *Config) Validate() error {
	if c.ArrivalMin <= 0 || c.ArrivalMax <= 0 || c.ArrivalMin > c.ArrivalMax {
		return simerr.NewFatalInitError("config", fmt.Sprintf("invalid arrival interval: min=%v max=%v", c.ArrivalMin, c.ArrivalMax))
	}
	if c.Quantum <= 0 {
		return simerr.NewFatalInitError("config", fmt.Sprintf("invalid quantum: %v", c.Quantum))
	}
	switch c.Algorithm {
	case "sjf", "mlfq", "prr":
	default:
		return simerr.NewFatalInitError("config", fmt.Sprintf("unknown algorithm: %s", c.Algorithm))
	}
	switch c.Strategy {
	case "fifo", "banker", "hybrid":
	default:
		return simerr.NewFatalInitError("config", fmt.Sprintf("unknown strategy: %s", c.Strategy))
	}
	return nil
}

// ArrivalIntervalSeconds returns the mean of ArrivalMin and ArrivalMax,
// the figure the Metrics Engine uses to derive an expected arrival rate.
func (c *Config) ArrivalIntervalSeconds() float64 {
	return (c.ArrivalMin.Seconds() + c.ArrivalMax.Seconds()) / 2
}
