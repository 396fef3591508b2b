//go:build windows

package spooler

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modwinspool = windows.NewLazySystemDLL("winspool.drv")

	procGetDefaultPrinterW = modwinspool.NewProc("GetDefaultPrinterW")
	procOpenPrinterW       = modwinspool.NewProc("OpenPrinterW")
	procEnumJobsW          = modwinspool.NewProc("EnumJobsW")
	procClosePrinter       = modwinspool.NewProc("ClosePrinter")
)

// jobInfo1 mirrors JOB_INFO_1W.
type jobInfo1 struct {
	JobID        uint32
	PrinterName  *uint16
	MachineName  *uint16
	UserName     *uint16
	Document     *uint16
	Datatype     *uint16
	Status       *uint16
	StatusCode   uint32
	Priority     uint32
	Position     uint32
	TotalPages   uint32
	PagesPrinted uint32
	Submitted    windows.Systemtime
}

const allJobs = 0xFFFFFFFF

// WinspoolOpener opens the default printer through winspool.drv.
type WinspoolOpener struct{}

var _ Opener = WinspoolOpener{}

// NewWinspool returns the native Windows spooler backend.
func NewWinspool() Opener {
	return WinspoolOpener{}
}

func (WinspoolOpener) OpenDefault(ctx context.Context) (Queue, error) {
	name, err := defaultPrinterName()
	if err != nil {
		return nil, err
	}
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("printer name %q: %w", name, err)
	}
	var handle windows.Handle
	r1, _, callErr := procOpenPrinterW.Call(
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(unsafe.Pointer(&handle)),
		0,
	)
	if r1 == 0 {
		return nil, fmt.Errorf("OpenPrinter %q: %w", name, callErr)
	}
	return &winspoolQueue{name: name, handle: handle}, nil
}

func defaultPrinterName() (string, error) {
	var size uint32
	r1, _, callErr := procGetDefaultPrinterW.Call(0, uintptr(unsafe.Pointer(&size)))
	if r1 == 0 && !errors.Is(callErr, windows.ERROR_INSUFFICIENT_BUFFER) {
		if errors.Is(callErr, windows.ERROR_FILE_NOT_FOUND) {
			return "", errNoDefaultPrinter
		}
		return "", fmt.Errorf("GetDefaultPrinter: %w", callErr)
	}
	if size == 0 {
		return "", errNoDefaultPrinter
	}
	buf := make([]uint16, size)
	r1, _, callErr = procGetDefaultPrinterW.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if r1 == 0 {
		return "", fmt.Errorf("GetDefaultPrinter: %w", callErr)
	}
	return windows.UTF16ToString(buf), nil
}

type winspoolQueue struct {
	name   string
	handle windows.Handle
	needed uint32
}

func (q *winspoolQueue) Name() string        { return q.name }
func (q *winspoolQueue) State() PrinterState { return PrinterUnknown }

// Probe calls EnumJobs with an empty buffer. The reported byte count covers
// the fixed records plus their strings, so dividing by the record size gives
// an upper bound on the number of jobs.
func (q *winspoolQueue) Probe(ctx context.Context) (int, error) {
	var needed, returned uint32
	r1, _, callErr := procEnumJobsW.Call(
		uintptr(q.handle), 0, allJobs, 1,
		0, 0,
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if r1 == 0 && !errors.Is(callErr, windows.ERROR_INSUFFICIENT_BUFFER) {
		return 0, fmt.Errorf("EnumJobs: %w", callErr)
	}
	q.needed = needed
	if needed == 0 {
		return 0, nil
	}
	size := uint32(unsafe.Sizeof(jobInfo1{}))
	return int((needed + size - 1) / size), nil
}

func (q *winspoolQueue) Fill(ctx context.Context, buf []Job) (int, error) {
	if q.needed == 0 || len(buf) == 0 {
		return 0, nil
	}
	raw := make([]byte, q.needed)
	var needed, returned uint32
	r1, _, callErr := procEnumJobsW.Call(
		uintptr(q.handle), 0, allJobs, 1,
		uintptr(unsafe.Pointer(&raw[0])), uintptr(len(raw)),
		uintptr(unsafe.Pointer(&needed)),
		uintptr(unsafe.Pointer(&returned)),
	)
	if r1 == 0 {
		return 0, fmt.Errorf("EnumJobs: %w", callErr)
	}
	if returned == 0 {
		return 0, nil
	}
	infos := unsafe.Slice((*jobInfo1)(unsafe.Pointer(&raw[0])), returned)
	n := 0
	for _, info := range infos {
		if n == len(buf) {
			break
		}
		buf[n] = Job{ID: info.JobID, Document: windows.UTF16PtrToString(info.Document)}
		n++
	}
	return n, nil
}

func (q *winspoolQueue) Close() error {
	if q.handle == 0 {
		return nil
	}
	r1, _, callErr := procClosePrinter.Call(uintptr(q.handle))
	q.handle = 0
	if r1 == 0 {
		return fmt.Errorf("ClosePrinter: %w", callErr)
	}
	return nil
}
