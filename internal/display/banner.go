package display

import (
	"fmt"
	"io"

	"github.com/backmassage/tiff2video/internal/term"
)

const art = ` _   _  __  __ ____        _     _
| |_(_)/ _|/ _|___ \__   _(_) __| | ___  ___
| __| | |_| |_  __) \ \ / / |/ _` + "`" + ` |/ _ \/ _ \
| |_| |  _|  _|/ __/ \ V /| | (_| |  __/ (_) |
 \__|_|_| |_| |_____| \_/ |_|\__,_|\___|\___/
`

// PrintBanner writes the ASCII art banner followed by "<prog> <version>".
// The art is magenta when colors are enabled.
func PrintBanner(w io.Writer, prog, version string) {
	if term.Magenta != "" {
		fmt.Fprint(w, "\033[1;95m")
	}
	fmt.Fprint(w, art)
	if term.Magenta != "" {
		fmt.Fprint(w, term.NC)
	}
	fmt.Fprintf(w, "%s %s\n\n", prog, version)
}
