package spooler

import (
	"context"
	"errors"
	"fmt"
)

// MaxJobs bounds the buffer FetchJobs is willing to allocate for one query.
const MaxJobs = 1 << 16

var (
	ErrOpen        = errors.New("open print queue")
	ErrEnumeration = errors.New("enumerate print jobs")
	ErrAllocation  = errors.New("allocate job buffer")
)

// Job describes one queued print job.
type Job struct {
	ID       uint32
	Document string
}

// Listing is the result of a single query against the default queue.
type Listing struct {
	Printer string
	State   PrinterState
	Jobs    []Job
}

// Queue is an open handle to a print queue. Enumeration is a two-phase
// protocol: Probe reports the capacity a caller must provide, Fill writes up
// to len(buf) descriptors into buf and returns how many were written.
type Queue interface {
	Name() string
	State() PrinterState
	Probe(ctx context.Context) (int, error)
	Fill(ctx context.Context, buf []Job) (int, error)
	Close() error
}

// Opener opens the system default print queue.
type Opener interface {
	OpenDefault(ctx context.Context) (Queue, error)
}

// QueryError records which step of a query failed. It matches one of
// ErrOpen, ErrEnumeration or ErrAllocation with errors.Is.
type QueryError struct {
	Kind    error
	Printer string
	Err     error
}

func (e *QueryError) Error() string {
	msg := e.Kind.Error()
	if e.Printer != "" {
		msg += " " + e.Printer
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FetchJobs returns the jobs queued on the default printer in spooler order.
func FetchJobs(ctx context.Context, opener Opener) ([]Job, error) {
	listing, err := Fetch(ctx, opener)
	if err != nil {
		return nil, err
	}
	return listing.Jobs, nil
}

// Fetch opens the default queue, probes it for the job count, fills a buffer
// of that size and closes the queue again on every path.
func Fetch(ctx context.Context, opener Opener) (Listing, error) {
	if opener == nil {
		return Listing{}, &QueryError{Kind: ErrOpen, Err: errors.New("no spooler backend")}
	}
	queue, err := opener.OpenDefault(ctx)
	if err != nil {
		return Listing{}, &QueryError{Kind: ErrOpen, Err: err}
	}
	defer func() { _ = queue.Close() }()

	listing := Listing{Printer: queue.Name(), State: queue.State()}

	capacity, err := queue.Probe(ctx)
	if err != nil {
		return Listing{}, &QueryError{Kind: ErrEnumeration, Printer: listing.Printer, Err: err}
	}
	if capacity < 0 || capacity > MaxJobs {
		return Listing{}, &QueryError{
			Kind:    ErrAllocation,
			Printer: listing.Printer,
			Err:     fmt.Errorf("capacity %d outside [0, %d]", capacity, MaxJobs),
		}
	}
	if capacity == 0 {
		return listing, nil
	}

	buf := make([]Job, capacity)
	n, err := queue.Fill(ctx, buf)
	if err != nil {
		return Listing{}, &QueryError{Kind: ErrEnumeration, Printer: listing.Printer, Err: err}
	}
	if n < 0 || n > len(buf) {
		return Listing{}, &QueryError{
			Kind:    ErrEnumeration,
			Printer: listing.Printer,
			Err:     fmt.Errorf("backend reported %d jobs for a buffer of %d", n, len(buf)),
		}
	}
	listing.Jobs = buf[:n:n]
	return listing, nil
}
