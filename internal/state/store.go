package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/spoolview/internal/spooler"
)

// Snapshot represents the outcome of the most recent spooler queries.
type Snapshot struct {
	Printer             string
	PrinterState        spooler.PrinterState
	Jobs                []spooler.Job
	HasListing          bool
	LastUpdated         time.Time
	LastError           error
	Queries             int
	ConsecutiveFailures int
}

// Failing reports whether the latest query failed.
func (s Snapshot) Failing() bool {
	return s.ConsecutiveFailures > 0
}

// Store coordinates updates from query commands with reads from the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records a query outcome. When err is non-nil the previous listing is
// kept but the error is recorded for visibility.
func (s *Store) Update(listing *spooler.Listing, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Queries++
	s.snapshot.LastUpdated = time.Now()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if listing != nil {
		s.snapshot.Printer = listing.Printer
		s.snapshot.PrinterState = listing.State
		s.snapshot.Jobs = cloneJobs(listing.Jobs)
		s.snapshot.HasListing = true
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Jobs = cloneJobs(s.snapshot.Jobs)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneJobs(jobs []spooler.Job) []spooler.Job {
	if len(jobs) == 0 {
		return nil
	}
	dup := make([]spooler.Job, len(jobs))
	copy(dup, jobs)
	return dup
}
