// Package discover finds IPP printers advertised over multicast DNS.
package discover

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"

	"github.com/five82/spoolview/internal/spooler"
)

const (
	serviceType = "_ipp._tcp"
	domain      = "local."

	// DefaultTimeout bounds how long Find listens for announcements.
	DefaultTimeout = 3 * time.Second
)

// Printer is an IPP queue announced on the local network.
type Printer struct {
	Name  string
	State spooler.PrinterState
	URI   string
}

type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Find browses for IPP printers until timeout elapses or ctx is cancelled and
// returns them sorted by name. Printers announced more than once are reported
// once per URI.
func Find(ctx context.Context, timeout time.Duration) ([]Printer, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create resolver: %w", err)
	}
	return find(ctx, timeout, resolver.Browse)
}

func find(ctx context.Context, timeout time.Duration, browse browseFunc) ([]Printer, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	local, _ := os.Hostname()
	entries := make(chan *zeroconf.ServiceEntry)
	eg, ctx := errgroup.WithContext(ctx)

	var printers []Printer
	eg.Go(func() error {
		seen := map[string]bool{}
		for {
			select {
			case <-ctx.Done():
				return nil
			case entry, ok := <-entries:
				if !ok {
					return nil
				}
				if entry == nil {
					continue
				}
				p := parseEntry(entry, local)
				if seen[p.URI] {
					continue
				}
				seen[p.URI] = true
				printers = append(printers, p)
			}
		}
	})

	eg.Go(func() error {
		if err := browse(ctx, serviceType, domain, entries); err != nil {
			return fmt.Errorf("browse %s: %w", serviceType, err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(printers, func(i, j int) bool { return printers[i].Name < printers[j].Name })
	return printers, nil
}

// parseEntry turns an mDNS announcement into a printer. The queue path comes
// from the "rp" TXT key; the local host is reported as localhost.
func parseEntry(entry *zeroconf.ServiceEntry, localHost string) Printer {
	attr := map[string]string{}
	for _, txt := range entry.Text {
		k, v, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		attr[k] = v
	}

	state, _ := strconv.Atoi(attr["printer-state"])

	hostname := strings.TrimSuffix(entry.HostName, ".")
	if hostname == "" || strings.EqualFold(hostname, localHost) || strings.EqualFold(hostname, localHost+".local") {
		hostname = "localhost"
	}

	path := attr["rp"]
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	uri := url.URL{
		Scheme: "ipp",
		Host:   hostname + ":" + strconv.Itoa(entry.Port),
		Path:   path,
	}

	return Printer{
		Name:  entry.Instance,
		State: spooler.PrinterState(state),
		URI:   uri.String(),
	}
}
