package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveVideoPath turns a requested destination into the video file path.
//
//	dest == ""                          → <defaultDir>/<defaultStem><ext>
//	dest is a directory, or missing
//	and without an extension            → <dest>/<defaultStem><ext> (dest is created)
//	anything else                       → dest, unchanged
//
// The last branch trusts the caller's file name; the extension is not
// rewritten.
func ResolveVideoPath(fsys afero.Fs, dest, defaultDir, defaultStem, ext string) (string, error) {
	if dest == "" {
		return filepath.Join(defaultDir, defaultStem+ext), nil
	}

	fi, err := fsys.Stat(dest)
	switch {
	case err == nil && fi.IsDir():
		return filepath.Join(dest, defaultStem+ext), nil
	case err == nil:
		return dest, nil
	case !os.IsNotExist(err):
		return "", fmt.Errorf("stat %s: %w", dest, err)
	}

	if filepath.Ext(dest) != "" {
		return dest, nil
	}
	if err := fsys.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dest, err)
	}
	return filepath.Join(dest, defaultStem+ext), nil
}

// PrepareOutputDir returns the directory batch outputs are written to.
// An existing file falls back to its parent; otherwise dir is created.
func PrepareOutputDir(fsys afero.Fs, dir string) (string, error) {
	fi, err := fsys.Stat(dir)
	if err == nil && !fi.IsDir() {
		return filepath.Dir(dir), nil
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return dir, nil
}
