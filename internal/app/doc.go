// Package app is the composition root for spoolview.
//
// Run loads the TOML config and user prefs, points the standard logger at the
// configured log file, builds the spooler backend and hands the UI a QueryFunc
// together with the state.Store the UI records outcomes in:
//
//	Run()
//	 ├─> config.Load()      backend, server, printer, timeout, log file
//	 ├─> prefs.Load()       theme
//	 ├─> setupLogging()     tea.LogToFileWith
//	 ├─> spooler.New()      ipp or winspool Opener
//	 └─> ui.Run()           window + event loop (blocks)
//
// The UI calls the QueryFunc once when the window is created and again only
// when the user asks for it. Each call is bounded by request_timeout and logs
// the job count or the error; the UI records the outcome in the store. There is no
// background poller.
package app
