package spooler

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendAuto     = "auto"
	BackendIPP      = "ipp"
	BackendWinspool = "winspool"
)

// Settings select and configure a spooler backend.
type Settings struct {
	Backend    string
	Server     string
	PrinterURI string
	Timeout    time.Duration
}

// New returns the Opener for the configured backend. "auto" picks winspool on
// Windows and IPP everywhere else.
func New(s Settings) (Opener, error) {
	switch ResolveBackend(s.Backend, runtime.GOOS) {
	case BackendIPP:
		return NewIPP(s.Server, s.PrinterURI, s.Timeout), nil
	case BackendWinspool:
		return NewWinspool(), nil
	default:
		return nil, fmt.Errorf("unknown spooler backend %q", s.Backend)
	}
}

// ResolveBackend maps "auto" (or empty) to the platform's native backend.
func ResolveBackend(backend, goos string) string {
	b := strings.ToLower(strings.TrimSpace(backend))
	if b == "" || b == BackendAuto {
		if goos == "windows" {
			return BackendWinspool
		}
		return BackendIPP
	}
	return b
}
