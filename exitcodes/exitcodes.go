// Package exitcodes defines the exit codes used by op-reporter.
package exitcodes

// Exit code constants used by op-reporter:
//
// * Success (0): every session passed and no fatal error was reported
// * TestFailure (1): a test failed or a suite/run level error was reported
// * RuntimeErr (2): the reporter itself failed, eg. bad configuration or an unreadable event stream
const (
	Success     = 0 // All sessions passed
	TestFailure = 1 // Test failures or fatal run errors
	RuntimeErr  = 2 // Reporter errors
)
