// Command tiff2video converts multi-page TIFF files into videos, one video
// per file. The input may be a single file or a directory of files.
package main

import (
	"os"

	"github.com/backmassage/tiff2video/internal/cli"
	"github.com/backmassage/tiff2video/internal/config"
)

func main() {
	os.Exit(cli.Run("tiff2video", config.ModeBatch, os.Args[1:]))
}
