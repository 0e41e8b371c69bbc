package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/monopad/internal/triggerfeed"
)

// Default configuration constants.
const (
	defaultEntities   = 20
	defaultTriggers   = 2000
	defaultReplays    = 200
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		entities = flag.Int("entities", defaultEntities, "Number of entities to register")
		triggers = flag.Int("triggers", defaultTriggers, "Number of distinct triggers to submit")
		replays  = flag.Int("replays", defaultReplays, "Number of triggers submitted twice")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Log file (default: trigger_feed_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		triggerfeed.ShowHelp()
		return
	}

	if err := triggerfeed.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &triggerfeed.Config{
		BaseURL:  *baseURL,
		Entities: *entities,
		Triggers: *triggers,
		Replays:  *replays,
		Workers:  *workers,
		Timeout:  *timeout,
		Verbose:  *verbose,
	}
	if _, err := triggerfeed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Feed failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
