// Package ui implements the spoolview terminal window with Bubble Tea.
//
// The window owns a single scrollable job list. Creating the window triggers
// one spooler query; further queries only happen when the user asks for a
// refresh. Query failures open a modal overlay that must be dismissed before
// any other input is handled.
package ui
