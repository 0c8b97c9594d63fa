package logger

// OutputCategory defines a category of output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Rendered files, listings
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v)
	OutputProgress     // Script progress ("line 4/12")
	OutputStartup      // Banners, config summary
	OutputSourceStatus // Graph source kind and health

	// Level 2 (-vv)
	OutputTiming    // Layout and render timing
	OutputConfig    // Config values loaded/applied
	OutputHTTPCalls // Requests made to the remote graph service

	// Level 3 (-vvv)
	OutputTransitions // Controller state transitions
	OutputWebsocket   // Websocket message summaries

	// Level 4 (-vvvv)
	OutputFrameDump // Full frame contents
	OutputGraphDump // Full graph documents
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress:     VerbosityInfo,
	OutputStartup:      VerbosityInfo,
	OutputSourceStatus: VerbosityInfo,

	OutputTiming:    VerbosityDebug,
	OutputConfig:    VerbosityDebug,
	OutputHTTPCalls: VerbosityDebug,

	OutputTransitions: VerbosityTrace,
	OutputWebsocket:   VerbosityTrace,

	OutputFrameDump: VerbosityAll,
	OutputGraphDump: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputResults:      "results",
	OutputErrors:       "errors",
	OutputUserStatus:   "status",
	OutputProgress:     "progress",
	OutputStartup:      "startup",
	OutputSourceStatus: "source-status",
	OutputTiming:       "timing",
	OutputConfig:       "config",
	OutputHTTPCalls:    "http",
	OutputTransitions:  "transitions",
	OutputWebsocket:    "websocket",
	OutputFrameDump:    "frame-dump",
	OutputGraphDump:    "graph-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
