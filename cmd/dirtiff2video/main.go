// Command dirtiff2video joins a directory of single-page images (typically a
// TIFF sequence) into one video, one frame per file in natural name order.
package main

import (
	"os"

	"github.com/backmassage/tiff2video/internal/cli"
	"github.com/backmassage/tiff2video/internal/config"
)

func main() {
	os.Exit(cli.Run("dirtiff2video", config.ModeAggregate, os.Args[1:]))
}
