// Package cli implements the ytfetch command line: cobra commands, the
// terminal progress renderer and interactive pause/abort controls.
package cli
