// Package config loads spoolview's TOML configuration.
//
// # Resolution
//
//  1. An explicit path (the -config flag) wins
//  2. Otherwise ~/.config/spoolview/config.toml is used
//  3. A missing file yields the defaults below
//  4. Empty or whitespace-only fields keep their defaults
//
// # Fields
//
//	backend = "auto"               # auto | ipp | winspool
//	server = "localhost:631"       # CUPS server for the ipp backend
//	printer_uri = ""               # skip CUPS-Get-Default and query this printer
//	request_timeout = "5s"         # bound on a single spooler query
//	log_file = "~/.local/state/spoolview/spoolview.log"
//
// Unknown backends, malformed durations and invalid TOML are load errors;
// spoolview refuses to start rather than guessing.
package config
