// Package tui shows a live view of a scenario run.
//
// The view lists scenarios as they start and finish, a summary once the run
// is over and the tail of the harness log read from the logging TUI channel.
// Quitting while scenarios are still running interrupts the run; the view
// closes once the run has unwound.
package tui
