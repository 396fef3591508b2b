package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/spoolview/internal/app"
	"github.com/five82/spoolview/internal/discover"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override spoolview config path (optional)")
	discoverOnly := flag.Bool("discover", false, "list IPP printers advertised on the local network and exit")
	discoverTimeout := flag.Duration("discover-timeout", discover.DefaultTimeout, "how long -discover listens for announcements")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *discoverOnly {
		return runDiscover(ctx, *discoverTimeout)
	}

	if err := app.Run(ctx, app.Options{ConfigPath: *configPath}); err != nil {
		fmt.Fprintf(os.Stderr, "spoolview: %v\n", err)
		return -1
	}
	return 0
}

func runDiscover(ctx context.Context, timeout time.Duration) int {
	printers, err := discover.Find(ctx, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spoolview: discover: %v\n", err)
		return -1
	}
	if len(printers) == 0 {
		fmt.Println("no IPP printers found")
		return 0
	}
	for _, p := range printers {
		fmt.Printf("%s\t%s\t%s\n", p.Name, p.State, p.URI)
	}
	return 0
}
