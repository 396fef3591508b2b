// Package state holds the outcome of the latest spooler query.
//
// The UI records each query outcome when its result message reaches the event
// loop. The Store guards its Snapshot with a RWMutex and hands out copies, so
// readers outside the loop never see a half-applied update.
//
// A failed query keeps the previous listing and records the error together
// with a consecutive failure count; the next successful query clears both.
package state
