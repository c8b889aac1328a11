// Command loadgen submits random attribution events to a standings service
// and verifies the rankings it serves.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/standings/internal/loadgen"
	"github.com/okian/standings/pkg/logger"
)

const (
	defaultNumEvents   = 10000
	defaultNumSubjects = 500
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultWait        = 10 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		events   = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		subjects = flag.Int("subjects", defaultNumSubjects, "Number of distinct subjects")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait     = flag.Duration("wait", defaultWait, "Pause before verification; should exceed the service refresh interval")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	_, err := loadgen.Run(ctx, &loadgen.Config{
		BaseURL:     *baseURL,
		NumEvents:   *events,
		NumSubjects: *subjects,
		Workers:     *workers,
		Timeout:     *timeout,
		Wait:        *wait,
		Verbose:     *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
