// Package term provides ANSI color state and terminal detection.
//
// Colors are package-level variables shared by the logger and the banner.
// [Configure] sets them once during startup; when colors are disabled the
// variables are empty strings, making string concatenation a no-op.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/tiff2video/internal/config"
)

// ANSI color codes, one per log level. Empty when colors are disabled.
var (
	Red     = "" // ERROR
	Green   = "" // SUCCESS
	Yellow  = "" // WARN
	Blue    = "" // INFO
	Cyan    = "" // DEBUG
	Magenta = "" // banner
	NC      = "" // Reset sequence.
)

// Configure resolves the color mode against out and sets the package-level
// ANSI variables. It reports whether colors ended up enabled.
func Configure(mode config.ColorMode, out *os.File) bool {
	on := resolve(mode, out)
	if on {
		Red = "\033[1;91m"
		Green = "\033[1;92m"
		Yellow = "\033[1;93m"
		Blue = "\033[1;94m"
		Cyan = "\033[1;96m"
		Magenta = "\033[1;95m"
		NC = "\033[0m"
	} else {
		Red, Green, Yellow, Blue, Cyan, Magenta, NC = "", "", "", "", "", "", ""
	}
	return on
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return NC != "" }

// resolve honours NO_COLOR (https://no-color.org) and TERM=dumb in auto mode.
func resolve(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return IsTerminal(out) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
