//go:build !windows

package spooler

import (
	"context"
	"errors"
)

var errWinspoolUnsupported = errors.New("winspool backend is only available on windows")

// WinspoolOpener is unavailable on this platform; OpenDefault always fails.
type WinspoolOpener struct{}

var _ Opener = WinspoolOpener{}

// NewWinspool returns the native Windows spooler backend.
func NewWinspool() Opener {
	return WinspoolOpener{}
}

func (WinspoolOpener) OpenDefault(context.Context) (Queue, error) {
	return nil, errWinspoolUnsupported
}
