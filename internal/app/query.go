package app

import (
	"context"
	"log"
	"time"

	"github.com/five82/spoolview/internal/spooler"
	"github.com/five82/spoolview/internal/ui"
)

const defaultQueryTimeout = 5 * time.Second

// NewQuery returns the function the UI runs for each refresh. Every call opens
// the default queue, logs the outcome and closes the queue again.
func NewQuery(opener spooler.Opener, timeout time.Duration) ui.QueryFunc {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return func(ctx context.Context) (spooler.Listing, error) {
		return query(ctx, opener, timeout)
	}
}

func query(ctx context.Context, opener spooler.Opener, timeout time.Duration) (spooler.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	listing, err := spooler.Fetch(ctx, opener)
	if err != nil {
		log.Printf("print queue query failed: %v", err)
		return spooler.Listing{}, err
	}
	log.Printf("print queue %s: %d job(s)", listing.Printer, len(listing.Jobs))
	return listing, nil
}
