package spooler

// PrinterState follows the IPP printer-state enum. Backends that cannot report
// a state use PrinterUnknown.
type PrinterState int

const (
	PrinterUnknown    PrinterState = 0
	PrinterIdle       PrinterState = 3
	PrinterProcessing PrinterState = 4
	PrinterStopped    PrinterState = 5
)

func (s PrinterState) String() string {
	switch s {
	case PrinterIdle:
		return "idle"
	case PrinterProcessing:
		return "processing"
	case PrinterStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
