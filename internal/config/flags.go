package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend service (default from Config)
//	-t int      per-request HTTP timeout in seconds (default from Config)
//	-w int      prefetch worker count (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the backend service")
	httpTimeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "per-request HTTP timeout (in seconds)")
	fs.IntVar(&cfg.PrefetchWorkers, "w", cfg.PrefetchWorkers, "prefetch worker count")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
