// Package telnet provides the line-oriented chat console of the simulated
// host, with ANSI colors for error and system lines.
package telnet

// ANSI escape codes used by the console.
const (
	Reset       = "\033[0m"
	Red         = "\033[31m"
	Yellow      = "\033[33m"
	Cyan        = "\033[36m"
	BrightWhite = "\033[97m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
func Colorize(color, text string) string {
	return color + text + Reset
}
